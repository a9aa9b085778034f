package engine

import (
	"context"
	"strconv"

	"github.com/holiman/uint256"

	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/internal/table/entropy"
	"github.com/radieske/casino-settlement-poc/internal/table/payout"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// OutcomeFunc deriva o slot vencedor; injetável nos testes para resultado fixo.
type OutcomeFunc func(bettor string, env wire.BlockEnv) uint8

// Engine implementa a mesa over/under: registra apostas de slot único por
// conta, resolve com entropia do bloco seguinte e emite o report de resultado
// pra casa. O despacho das intents fica com o serviço que hospeda o engine.
type Engine struct {
	denom   string
	outcome OutcomeFunc
}

func New(stakeDenom string) *Engine {
	return &Engine{denom: stakeDenom, outcome: entropy.DeriveOutcome}
}

// Denom devolve a denominação nativa aceita como aposta.
func (e *Engine) Denom() string { return e.denom }

// WithOutcome troca a derivação de resultado (testes).
func (e *Engine) WithOutcome(fn OutcomeFunc) *Engine {
	e.outcome = fn
	return e
}

// Instantiate cria config, params zerados e estado da mesa.
func (e *Engine) Instantiate(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, name, description string) (*wire.Response, error) {
	cfg := &Config{Owner: info.Sender, Name: name, Description: description}
	if err := ledger.SaveJSON(ctx, kv, keyConfig, cfg); err != nil {
		return nil, err
	}
	params := &Params{MinBet: new(uint256.Int), MaxBet: new(uint256.Int)}
	if err := ledger.SaveJSON(ctx, kv, keyParams, params); err != nil {
		return nil, err
	}
	state := &State{CumulativeBetAmount: new(uint256.Int)}
	if err := ledger.SaveJSON(ctx, kv, keyState, state); err != nil {
		return nil, err
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "instantiate"),
		wire.Attr("owner", info.Sender),
	}}, nil
}

// Instantiated diz se o estado da mesa já existe (usado no boot do serviço).
func (e *Engine) Instantiated(ctx context.Context, kv ledger.Tx) (bool, error) {
	var cfg Config
	return ledger.LoadJSON(ctx, kv, keyConfig, &cfg)
}

func (e *Engine) UpdateOwner(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, owner string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.Owner = owner
	if err := ledger.SaveJSON(ctx, kv, keyConfig, cfg); err != nil {
		return nil, err
	}
	return attrResp("UpdateOwner", "owner", owner), nil
}

func (e *Engine) UpdateHouseContract(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, contract string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.HouseContract = contract
	if err := ledger.SaveJSON(ctx, kv, keyConfig, cfg); err != nil {
		return nil, err
	}
	return attrResp("UpdateHouseContract", "house_contract", contract), nil
}

func (e *Engine) UpdateName(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, name string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.Name = name
	if err := ledger.SaveJSON(ctx, kv, keyConfig, cfg); err != nil {
		return nil, err
	}
	return attrResp("UpdateName", "name", name), nil
}

func (e *Engine) UpdateDescription(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, description string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.Description = description
	if err := ledger.SaveJSON(ctx, kv, keyConfig, cfg); err != nil {
		return nil, err
	}
	return attrResp("UpdateDescription", "description", description), nil
}

func (e *Engine) UpdateMinBet(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, amount *uint256.Int) (*wire.Response, error) {
	params, err := e.ownerParams(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	params.MinBet = amount.Clone()
	if err := ledger.SaveJSON(ctx, kv, keyParams, params); err != nil {
		return nil, err
	}
	return attrResp("UpdateMinBetAmount", "min_bet_amount", amount.Dec()), nil
}

func (e *Engine) UpdateMaxBet(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, amount *uint256.Int) (*wire.Response, error) {
	params, err := e.ownerParams(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	params.MaxBet = amount.Clone()
	if err := ledger.SaveJSON(ctx, kv, keyParams, params); err != nil {
		return nil, err
	}
	return attrResp("UpdateMaxBetAmount", "max_bet_amount", amount.Dec()), nil
}

func (e *Engine) UpdateMaxBetRate(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, rate uint64) (*wire.Response, error) {
	params, err := e.ownerParams(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	params.MaxBetRate = rate
	if err := ledger.SaveJSON(ctx, kv, keyParams, params); err != nil {
		return nil, err
	}
	return attrResp("UpdateMaxBetRate", "max_bet_rate", strconv.FormatUint(rate, 10)), nil
}

func (e *Engine) UpdateHouseFee(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, fee uint64) (*wire.Response, error) {
	params, err := e.ownerParams(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	if fee > 1_000_000 {
		return nil, ErrInvalidFeeRate
	}
	params.HouseFee = fee
	if err := ledger.SaveJSON(ctx, kv, keyParams, params); err != nil {
		return nil, err
	}
	return attrResp("UpdateHouseFee", "house_fee", strconv.FormatUint(fee, 10)), nil
}

// BetReceipt devolve ao apostador o prêmio travado e a altura de registro.
type BetReceipt struct {
	Payout *uint256.Int
	Height uint64
}

// PlaceBet registra a aposta de slot único do sender. Faixas por direção:
// over aceita [2,58], under aceita [1,57] — limites assimétricos que evitam
// odds degeneradas nas bordas do espaço de 59 slots. O prêmio é travado aqui,
// com a taxa vigente, não na resolução.
func (e *Engine) PlaceBet(ctx context.Context, kv ledger.Tx, env wire.BlockEnv, info wire.MsgInfo, prediction uint8, over bool) (*BetReceipt, *wire.Response, error) {
	if _, open, err := loadBet(ctx, kv, info.Sender); err != nil {
		return nil, nil, err
	} else if open {
		return nil, nil, ErrBetAlreadyOpen
	}

	if over {
		if prediction < 2 || prediction > 58 {
			return nil, nil, &InvalidPredictionError{Number: prediction, Over: true, Min: 2, Max: 58}
		}
	} else {
		if prediction < 1 || prediction > 57 {
			return nil, nil, &InvalidPredictionError{Number: prediction, Over: false, Min: 1, Max: 57}
		}
	}

	coin, ok := info.FindFund(e.denom)
	if !ok || coin.Amount == nil || coin.Amount.IsZero() {
		return nil, nil, ErrEmptyStake
	}
	stake := coin.Amount

	params, err := loadParams(ctx, kv)
	if err != nil {
		return nil, nil, err
	}
	if !params.MinBet.IsZero() && stake.Lt(params.MinBet) {
		return nil, nil, ErrBetBelowMin
	}
	if !params.MaxBet.IsZero() && stake.Gt(params.MaxBet) {
		return nil, nil, ErrBetAboveMax
	}

	prize, ok := payout.Compute(prediction, stake, params.HouseFee)
	if !ok {
		return nil, nil, &ArithmeticError{Op: "payout"}
	}
	if params.MaxBetRate > 0 {
		maxPrize := new(uint256.Int)
		if _, overflow := maxPrize.MulOverflow(stake, uint256.NewInt(params.MaxBetRate)); overflow || prize.Gt(maxPrize) {
			return nil, nil, ErrPayoutCap
		}
	}

	bet := &Bet{
		Bettor:     info.Sender,
		Stake:      stake.Clone(),
		Prediction: prediction,
		Over:       over,
		Payout:     prize,
		Height:     env.Height,
		Time:       env.Time,
	}
	if err := ledger.SaveJSON(ctx, kv, betKey(info.Sender), bet); err != nil {
		return nil, nil, err
	}

	state, err := loadState(ctx, kv)
	if err != nil {
		return nil, nil, err
	}
	if _, overflow := state.CumulativeBetAmount.AddOverflow(state.CumulativeBetAmount, stake); overflow {
		return nil, nil, &ArithmeticError{Op: "cumulative bet amount"}
	}
	if err := ledger.SaveJSON(ctx, kv, keyState, state); err != nil {
		return nil, nil, err
	}

	return &BetReceipt{Payout: prize.Clone(), Height: env.Height}, &wire.Response{
		Attributes: []wire.Attribute{
			wire.Attr("action", "Bet"),
			wire.Attr("bet_amount", stake.Dec()),
			wire.Attr("prediction_number", strconv.Itoa(int(prediction))),
			wire.Attr("payout", prize.Dec()),
		},
	}, nil
}

// Status terminais da resolução.
const (
	StatusRefunded = "REFUNDED"
	StatusWin      = "RESOLVED_WIN"
	StatusLose     = "RESOLVED_LOSE"
)

// Resolution descreve o desfecho de um ResolveBet bem-sucedido.
type Resolution struct {
	Status  string
	Outcome uint8
	Won     bool
	Stake   *uint256.Int
	Payout  *uint256.Int
}

// ResolveBet roda a máquina de estados da resolução:
//   - sem aposta: NoGame;
//   - mesmo bloco da aposta: NoResult, tenta de novo no próximo bloco (resolver
//     nunca usa a entropia do bloco em que a aposta entrou);
//   - atraso maior que um bloco: aposta caducou, estorno integral;
//   - exatamente um bloco depois: deriva o resultado, remove a aposta e emite
//     um único report pra casa, encaminhando a aposta original.
func (e *Engine) ResolveBet(ctx context.Context, kv ledger.Tx, env wire.BlockEnv, info wire.MsgInfo) (*Resolution, *wire.Response, error) {
	bet, found, err := loadBet(ctx, kv, info.Sender)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, ErrNoGame
	}

	if bet.Height >= env.Height {
		return nil, nil, ErrNoResult
	}

	if err := kv.Remove(ctx, betKey(info.Sender)); err != nil {
		return nil, nil, err
	}

	if env.Height-bet.Height != 1 {
		// janela de revelação perdida: devolve a aposta inteira
		res := &Resolution{Status: StatusRefunded, Stake: bet.Stake, Payout: new(uint256.Int)}
		return res, &wire.Response{
			Attributes: []wire.Attribute{
				wire.Attr("action", "Refund"),
				wire.Attr("bet_amount", bet.Stake.Dec()),
			},
			Intents: []wire.Intent{
				wire.NativeTransfer{To: info.Sender, Denom: e.denom, Amount: bet.Stake.Clone()},
			},
		}, nil
	}

	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, nil, err
	}

	outcome := e.outcome(info.Sender, env)
	won := payout.Wins(bet.Over, bet.Prediction, outcome)

	report := wire.ReportPlayResult{
		Contract:    cfg.HouseContract,
		Won:         won,
		BetAmount:   bet.Stake.Clone(),
		PrizeAmount: bet.Payout.Clone(),
		Winner:      info.Sender,
		Funds:       []wire.Coin{{Denom: e.denom, Amount: bet.Stake.Clone()}},
	}

	res := &Resolution{
		Outcome: outcome,
		Won:     won,
		Stake:   bet.Stake,
		Payout:  bet.Payout,
	}
	attrs := []wire.Attribute{wire.Attr("lucky_number", strconv.Itoa(int(outcome)))}
	if won {
		res.Status = StatusWin
		attrs = append(attrs, wire.Attr("action", "win"), wire.Attr("payout", bet.Payout.Dec()))
	} else {
		res.Status = StatusLose
		attrs = append(attrs, wire.Attr("action", "lose"), wire.Attr("bet_amount", bet.Stake.Dec()))
	}

	return res, &wire.Response{Attributes: attrs, Intents: []wire.Intent{report}}, nil
}

// TableInfo é a resposta da query de configuração da mesa.
type TableInfo struct {
	Owner               string
	HouseContract       string
	Name                string
	Description         string
	MinBet              *uint256.Int
	MaxBet              *uint256.Int
	MaxBetRate          uint64
	HouseFee            uint64
	CumulativeBetAmount *uint256.Int
}

// QueryBet devolve a aposta aberta da conta, se existir.
func (e *Engine) QueryBet(ctx context.Context, kv ledger.Tx, account string) (*Bet, bool, error) {
	return loadBet(ctx, kv, account)
}

func (e *Engine) QueryConfig(ctx context.Context, kv ledger.Tx) (*TableInfo, error) {
	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, err
	}
	params, err := loadParams(ctx, kv)
	if err != nil {
		return nil, err
	}
	state, err := loadState(ctx, kv)
	if err != nil {
		return nil, err
	}
	return &TableInfo{
		Owner:               cfg.Owner,
		HouseContract:       cfg.HouseContract,
		Name:                cfg.Name,
		Description:         cfg.Description,
		MinBet:              params.MinBet,
		MaxBet:              params.MaxBet,
		MaxBetRate:          params.MaxBetRate,
		HouseFee:            params.HouseFee,
		CumulativeBetAmount: state.CumulativeBetAmount,
	}, nil
}

func (e *Engine) ownerConfig(ctx context.Context, kv ledger.Tx, info wire.MsgInfo) (*Config, error) {
	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, err
	}
	if cfg.Owner != info.Sender {
		return nil, ErrUnauthorized
	}
	return cfg, nil
}

func (e *Engine) ownerParams(ctx context.Context, kv ledger.Tx, info wire.MsgInfo) (*Params, error) {
	if _, err := e.ownerConfig(ctx, kv, info); err != nil {
		return nil, err
	}
	return loadParams(ctx, kv)
}

func attrResp(action, key, value string) *wire.Response {
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", action),
		wire.Attr(key, value),
	}}
}
