package engine

import (
	"context"
	"sort"

	"github.com/holiman/uint256"

	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// Engine implementa a contabilidade de cotas da pool: mint no depósito, burn no
// saque e ajuste de reserva nos resultados de jogo reportados pelas mesas.
// Todo handler roda dentro de uma Tx do ledger; o chamador faz commit só quando
// o handler retorna sem erro.
type Engine struct {
	denom string
}

func New(stakeDenom string) *Engine {
	return &Engine{denom: stakeDenom}
}

// Denom devolve a denominação nativa que a pool aceita como colateral.
func (e *Engine) Denom() string { return e.denom }

// Instantiate cria o estado inicial: sender vira owner, reserva e supply zerados.
// Nome/símbolo/decimais do token de cota são fixos.
func (e *Engine) Instantiate(ctx context.Context, kv ledger.Tx, info wire.MsgInfo) (*wire.Response, error) {
	cfg := &Config{
		Owner:         info.Sender,
		GameContracts: make(map[string]bool),
		Reserve:       new(uint256.Int),
	}
	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, err
	}

	ti := &TokenInfo{
		Name:        "cpool",
		Symbol:      "cool",
		Decimals:    18,
		TotalSupply: new(uint256.Int),
	}
	if err := saveTokenInfo(ctx, kv, ti); err != nil {
		return nil, err
	}

	return &wire.Response{
		Attributes: []wire.Attribute{
			wire.Attr("action", "instantiate"),
			wire.Attr("owner", info.Sender),
		},
	}, nil
}

// Instantiated diz se o estado da pool já existe (usado no boot do serviço).
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
	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, err
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "updateOwner"),
		wire.Attr("owner", owner),
	}}, nil
}

func (e *Engine) UpdatePoolToken(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, contract string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.PoolToken = contract
	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, err
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "updatePoolTokenContract"),
		wire.Attr("pool_token", contract),
	}}, nil
}

func (e *Engine) UpdateStakeToken(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, contract string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	cfg.StakeToken = contract
	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, err
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "updateStakeTokenContract"),
		wire.Attr("stake_token", contract),
	}}, nil
}

// AddGameContract registra uma mesa autorizada a reportar resultados.
// O conjunto é um map por conta: pertencimento em O(1), sem varredura linear.
func (e *Engine) AddGameContract(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, contract string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	if !cfg.GameContracts[contract] {
		cfg.GameContracts[contract] = true
		if err := saveConfig(ctx, kv, cfg); err != nil {
			return nil, err
		}
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "addGameContract"),
		wire.Attr("game_contract", contract),
	}}, nil
}

func (e *Engine) RemoveGameContract(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, contract string) (*wire.Response, error) {
	cfg, err := e.ownerConfig(ctx, kv, info)
	if err != nil {
		return nil, err
	}
	if cfg.GameContracts[contract] {
		delete(cfg.GameContracts, contract)
		if err := saveConfig(ctx, kv, cfg); err != nil {
			return nil, err
		}
	}
	return &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "removeGameContract"),
		wire.Attr("game_contract", contract),
	}}, nil
}

// Deposit credita a reserva e minta cotas pro depositante.
// Bootstrap 1:1 quando supply ou reserva estão zerados; senão
// mint = floor(supply * amount / reserva). A divisão trunca de propósito:
// arredondamento sempre a favor da pool.
func (e *Engine) Deposit(ctx context.Context, kv ledger.Tx, info wire.MsgInfo) (*uint256.Int, *wire.Response, error) {
	coin, ok := info.FindFund(e.denom)
	if !ok || coin.Amount == nil || coin.Amount.IsZero() {
		return nil, nil, ErrZeroAmount
	}
	amount := coin.Amount

	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, nil, err
	}
	ti, err := loadTokenInfo(ctx, kv)
	if err != nil {
		return nil, nil, err
	}

	mint := new(uint256.Int)
	if ti.TotalSupply.IsZero() || cfg.Reserve.IsZero() {
		mint.Set(amount)
	} else {
		// multiplicação larga antes da divisão; overflow aqui é falha fatal
		if _, overflow := mint.MulDivOverflow(ti.TotalSupply, amount, cfg.Reserve); overflow {
			return nil, nil, &ArithmeticError{Op: "deposit mint"}
		}
	}

	if _, overflow := cfg.Reserve.AddOverflow(cfg.Reserve, amount); overflow {
		return nil, nil, &ArithmeticError{Op: "deposit reserve"}
	}
	if _, overflow := ti.TotalSupply.AddOverflow(ti.TotalSupply, mint); overflow {
		return nil, nil, &ArithmeticError{Op: "deposit supply"}
	}

	bal, err := loadBalance(ctx, kv, info.Sender)
	if err != nil {
		return nil, nil, err
	}
	if _, overflow := bal.AddOverflow(bal, mint); overflow {
		return nil, nil, &ArithmeticError{Op: "deposit balance"}
	}

	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, nil, err
	}
	if err := saveTokenInfo(ctx, kv, ti); err != nil {
		return nil, nil, err
	}
	if err := saveBalance(ctx, kv, info.Sender, bal); err != nil {
		return nil, nil, err
	}

	return mint, &wire.Response{
		Attributes: []wire.Attribute{
			wire.Attr("action", "deposit_mint"),
			wire.Attr("amount", mint.Dec()),
		},
	}, nil
}

// Withdraw queima cotas e paga a fatia proporcional da reserva.
// Só é alcançável via callback do contrato do token de cota: o caller precisa
// ser o pool token registrado, senão Unauthorized.
func (e *Engine) Withdraw(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, from string, shares *uint256.Int) (*uint256.Int, *wire.Response, error) {
	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, nil, err
	}
	if info.Sender != cfg.PoolToken {
		return nil, nil, ErrUnauthorized
	}
	if shares == nil || shares.IsZero() {
		return nil, nil, ErrZeroAmount
	}

	bal, err := loadBalance(ctx, kv, from)
	if err != nil {
		return nil, nil, err
	}
	if shares.Gt(bal) {
		return nil, nil, &InsufficientBalanceError{Account: from, Have: bal, Want: shares}
	}

	ti, err := loadTokenInfo(ctx, kv)
	if err != nil {
		return nil, nil, err
	}

	// pago = floor(reserva * cotas / supply); supply > 0 porque bal >= shares > 0
	paid := new(uint256.Int)
	if _, overflow := paid.MulDivOverflow(cfg.Reserve, shares, ti.TotalSupply); overflow {
		return nil, nil, &ArithmeticError{Op: "withdraw payout"}
	}

	if _, underflow := cfg.Reserve.SubOverflow(cfg.Reserve, paid); underflow {
		return nil, nil, &ArithmeticError{Op: "withdraw reserve"}
	}
	bal.Sub(bal, shares)
	ti.TotalSupply.Sub(ti.TotalSupply, shares)

	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, nil, err
	}
	if err := saveTokenInfo(ctx, kv, ti); err != nil {
		return nil, nil, err
	}
	if err := saveBalance(ctx, kv, from, bal); err != nil {
		return nil, nil, err
	}

	return paid, &wire.Response{
		Attributes: []wire.Attribute{
			wire.Attr("action", "withdraw"),
			wire.Attr("amount", shares.Dec()),
			wire.Attr("send_amount", paid.Dec()),
		},
		Intents: []wire.Intent{
			wire.NativeTransfer{To: from, Denom: e.denom, Amount: paid.Clone()},
		},
	}, nil
}

// ReportPlayResult é o único canal pelo qual resultados de jogo afetam a
// reserva. won=true: a casa perde, a reserva paga o prêmio e a transferência
// sai pro vencedor; won=false: a casa retém a aposta. Underflow da reserva é
// fatal: a pool nunca fica negativa.
func (e *Engine) ReportPlayResult(ctx context.Context, kv ledger.Tx, info wire.MsgInfo, won bool, betAmount, prizeAmount *uint256.Int, winner string) (*wire.Response, error) {
	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, err
	}
	if !cfg.GameContracts[info.Sender] {
		return nil, ErrUnauthorized
	}

	resp := &wire.Response{Attributes: []wire.Attribute{
		wire.Attr("action", "bet"),
		wire.Attr("result", boolStr(won)),
		wire.Attr("bet_amount", betAmount.Dec()),
		wire.Attr("prize_amount", prizeAmount.Dec()),
		wire.Attr("winner", winner),
	}}

	if won {
		if _, underflow := cfg.Reserve.SubOverflow(cfg.Reserve, prizeAmount); underflow {
			return nil, &ArithmeticError{Op: "play result reserve"}
		}
		resp.Intents = append(resp.Intents,
			wire.NativeTransfer{To: winner, Denom: e.denom, Amount: prizeAmount.Clone()})
	} else {
		if _, overflow := cfg.Reserve.AddOverflow(cfg.Reserve, betAmount); overflow {
			return nil, &ArithmeticError{Op: "play result reserve"}
		}
	}

	if err := saveConfig(ctx, kv, cfg); err != nil {
		return nil, err
	}
	return resp, nil
}

// ConfigInfo é a resposta da query de configuração da pool.
type ConfigInfo struct {
	Owner         string
	Reserve       *uint256.Int
	GameContracts []string
}

func (e *Engine) QueryConfig(ctx context.Context, kv ledger.Tx) (*ConfigInfo, error) {
	cfg, err := loadConfig(ctx, kv)
	if err != nil {
		return nil, err
	}
	contracts := make([]string, 0, len(cfg.GameContracts))
	for c := range cfg.GameContracts {
		contracts = append(contracts, c)
	}
	sort.Strings(contracts)
	return &ConfigInfo{
		Owner:         cfg.Owner,
		Reserve:       cfg.Reserve,
		GameContracts: contracts,
	}, nil
}

func (e *Engine) QueryTokenInfo(ctx context.Context, kv ledger.Tx) (*TokenInfo, error) {
	return loadTokenInfo(ctx, kv)
}

func (e *Engine) QueryBalance(ctx context.Context, kv ledger.Tx, account string) (*uint256.Int, error) {
	return loadBalance(ctx, kv, account)
}

// ownerConfig carrega a config e valida que o sender é o owner.
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

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
