package engine

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
)

const (
	keyConfig = "config"
	keyParams = "params"
	keyState  = "state"
	prefixBet = "bet:"
)

// Config identifica a mesa e o contrato da casa.
type Config struct {
	Owner         string `json:"owner"`
	HouseContract string `json:"house_contract"`
	Name          string `json:"name"`
	Description   string `json:"description"`
}

// Params são os limites operacionais da mesa, ajustáveis pelo owner.
// HouseFee em partes por milhão; MaxBetRate limita a exposição do prêmio
// como múltiplo da aposta.
type Params struct {
	MinBet     *uint256.Int `json:"min_bet_amount"`
	MaxBet     *uint256.Int `json:"max_bet_amount"`
	MaxBetRate uint64       `json:"max_bet_rate"`
	HouseFee   uint64       `json:"house_fee"`
}

// State acumula o volume apostado na mesa.
type State struct {
	CumulativeBetAmount *uint256.Int `json:"cumulative_bet_amount"`
}

// Bet é o registro de slot único da aposta aberta de uma conta.
// Criada no PlaceBet, consumida inteira na resolução ou no estorno.
type Bet struct {
	Bettor     string       `json:"bettor"`
	Stake      *uint256.Int `json:"stake"`
	Prediction uint8        `json:"prediction"`
	Over       bool         `json:"over"`
	Payout     *uint256.Int `json:"payout"`
	Height     uint64       `json:"height"`
	Time       int64        `json:"time"`
}

func betKey(account string) string { return prefixBet + account }

func loadConfig(ctx context.Context, kv ledger.Tx) (*Config, error) {
	var cfg Config
	found, err := ledger.LoadJSON(ctx, kv, keyConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInstantiated
	}
	return &cfg, nil
}

func loadParams(ctx context.Context, kv ledger.Tx) (*Params, error) {
	var p Params
	found, err := ledger.LoadJSON(ctx, kv, keyParams, &p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInstantiated
	}
	return &p, nil
}

func loadState(ctx context.Context, kv ledger.Tx) (*State, error) {
	var s State
	found, err := ledger.LoadJSON(ctx, kv, keyState, &s)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInstantiated
	}
	return &s, nil
}

func loadBet(ctx context.Context, kv ledger.Tx, account string) (*Bet, bool, error) {
	var b Bet
	found, err := ledger.LoadJSON(ctx, kv, betKey(account), &b)
	if err != nil || !found {
		return nil, false, err
	}
	return &b, true, nil
}
