package engine

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
)

const (
	keyConfig    = "config"
	keyTokenInfo = "token_info"
	prefixBal    = "balance:"
)

// Config é o estado singleton da pool (casa).
type Config struct {
	Owner         string          `json:"owner"`
	PoolToken     string          `json:"pool_token"`
	StakeToken    string          `json:"stake_token"`
	GameContracts map[string]bool `json:"game_contracts"`
	Reserve       *uint256.Int    `json:"reserve"`
}

// TokenInfo descreve o token de cota da pool. A casa carrega os saldos e o
// supply do próprio token de cota, então mint/burn são mutações internas.
type TokenInfo struct {
	Name        string       `json:"name"`
	Symbol      string       `json:"symbol"`
	Decimals    uint8        `json:"decimals"`
	TotalSupply *uint256.Int `json:"total_supply"`
}

func balanceKey(account string) string { return prefixBal + account }

func loadConfig(ctx context.Context, kv ledger.Tx) (*Config, error) {
	var cfg Config
	found, err := ledger.LoadJSON(ctx, kv, keyConfig, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInstantiated
	}
	if cfg.GameContracts == nil {
		cfg.GameContracts = make(map[string]bool)
	}
	return &cfg, nil
}

func saveConfig(ctx context.Context, kv ledger.Tx, cfg *Config) error {
	return ledger.SaveJSON(ctx, kv, keyConfig, cfg)
}

func loadTokenInfo(ctx context.Context, kv ledger.Tx) (*TokenInfo, error) {
	var ti TokenInfo
	found, err := ledger.LoadJSON(ctx, kv, keyTokenInfo, &ti)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotInstantiated
	}
	return &ti, nil
}

func saveTokenInfo(ctx context.Context, kv ledger.Tx, ti *TokenInfo) error {
	return ledger.SaveJSON(ctx, kv, keyTokenInfo, ti)
}

// loadBalance devolve zero para contas ausentes; saldo zero é logicamente ausente.
func loadBalance(ctx context.Context, kv ledger.Tx, account string) (*uint256.Int, error) {
	bal := new(uint256.Int)
	_, err := ledger.LoadJSON(ctx, kv, balanceKey(account), bal)
	if err != nil {
		return nil, err
	}
	return bal, nil
}

func saveBalance(ctx context.Context, kv ledger.Tx, account string, bal *uint256.Int) error {
	if bal.IsZero() {
		return kv.Remove(ctx, balanceKey(account))
	}
	return ledger.SaveJSON(ctx, kv, balanceKey(account), bal)
}
