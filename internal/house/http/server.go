package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/house/dto"
	"github.com/radieske/casino-settlement-poc/internal/house/engine"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// Publisher emite os eventos de liquidação; best-effort, nunca bloqueia a chamada.
type Publisher interface {
	PublishPlayResult(context.Context, events.PlayResult) error
	PublishNativeTransfer(context.Context, events.NativeTransfer) error
}

// Server expõe os comandos e queries da pool (casa) por HTTP.
// O sender vem no payload: autenticação de transporte é colaborador externo,
// aqui só valem as checagens de autorização do engine.
type Server struct {
	log      *zap.Logger
	store    ledger.Store
	eng      *engine.Engine
	contract string
	publ     Publisher

	OnCommand func(op string) // métricas (counter++)
}

func NewServer(log *zap.Logger, store ledger.Store, eng *engine.Engine, contract string, publ Publisher) *Server {
	return &Server{log: log, store: store, eng: eng, contract: contract, publ: publ}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/pool/deposit", s.deposit)                      // POST
	mux.HandleFunc("/pool/withdraw", s.withdraw)                    // POST (callback do token de cota)
	mux.HandleFunc("/pool/play-result", s.playResult)               // POST (só mesas registradas)
	mux.HandleFunc("/pool/owner", s.updateOwner)                    // POST
	mux.HandleFunc("/pool/pool-token", s.updatePoolToken)           // POST
	mux.HandleFunc("/pool/stake-token", s.updateStakeToken)         // POST
	mux.HandleFunc("/pool/game-contracts/add", s.addGameContract)   // POST
	mux.HandleFunc("/pool/game-contracts/remove", s.removeContract) // POST
	mux.HandleFunc("/pool/config", s.getConfig)                     // GET
	mux.HandleFunc("/pool/token-info", s.getTokenInfo)              // GET
	mux.HandleFunc("/pool/balance", s.getBalance)                   // GET ?account=...
	return mux
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	amount, err := parseAmount(req.Amount)
	if req.Sender == "" || err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	info := wire.MsgInfo{
		Sender: req.Sender,
		Funds:  []wire.Coin{{Denom: s.denom(), Amount: amount}},
	}

	var minted *uint256.Int
	err = s.withTx(r.Context(), func(kv ledger.Tx) error {
		var err error
		minted, _, err = s.eng.Deposit(r.Context(), kv, info)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.count("deposit")

	writeJSON(w, dto.DepositResponse{Sender: req.Sender, MintedShares: minted.Dec()})
}

func (s *Server) withdraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	shares, err := parseAmount(req.ShareAmount)
	if req.Sender == "" || req.From == "" || err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var paid *uint256.Int
	var resp *wire.Response
	err = s.withTx(r.Context(), func(kv ledger.Tx) error {
		var err error
		paid, resp, err = s.eng.Withdraw(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.From, shares)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.count("withdraw")

	transfers := s.dispatchTransfers(r.Context(), resp.Intents, "withdraw")
	writeJSON(w, dto.WithdrawResponse{From: req.From, Paid: paid.Dec(), Transfers: transfers})
}

func (s *Server) playResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.PlayResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	betAmount, err1 := parseAmount(req.BetAmount)
	prizeAmount, err2 := parseAmount(req.PrizeAmount)
	if req.Sender == "" || req.Winner == "" || err1 != nil || err2 != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	var resp *wire.Response
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		var err error
		resp, err = s.eng.ReportPlayResult(r.Context(), kv, wire.MsgInfo{Sender: req.Sender},
			req.Won, betAmount, prizeAmount, req.Winner)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.count("play_result")

	// evento de auditoria pro settlement-worker
	_ = s.publ.PublishPlayResult(r.Context(), events.PlayResult{
		GameContract: req.Sender,
		Winner:       req.Winner,
		Won:          req.Won,
		BetAmount:    betAmount.Dec(),
		PrizeAmount:  prizeAmount.Dec(),
	})

	transfers := s.dispatchTransfers(r.Context(), resp.Intents, "prize")
	writeJSON(w, dto.PlayResultResponse{Applied: true, Transfers: transfers})
}

func (s *Server) updateOwner(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOwnerRequest
	if !decodePost(w, r, &req) || req.Sender == "" || req.Owner == "" {
		return
	}
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		_, err := s.eng.UpdateOwner(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Owner)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) updatePoolToken(w http.ResponseWriter, r *http.Request) {
	s.contractUpdate(w, r, s.eng.UpdatePoolToken)
}

func (s *Server) updateStakeToken(w http.ResponseWriter, r *http.Request) {
	s.contractUpdate(w, r, s.eng.UpdateStakeToken)
}

func (s *Server) addGameContract(w http.ResponseWriter, r *http.Request) {
	s.contractUpdate(w, r, s.eng.AddGameContract)
}

func (s *Server) removeContract(w http.ResponseWriter, r *http.Request) {
	s.contractUpdate(w, r, s.eng.RemoveGameContract)
}

func (s *Server) contractUpdate(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ledger.Tx, wire.MsgInfo, string) (*wire.Response, error)) {
	var req dto.UpdateContractRequest
	if !decodePost(w, r, &req) || req.Sender == "" || req.Contract == "" {
		return
	}
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		_, err := fn(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Contract)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var out dto.ConfigResponse
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		cfg, err := s.eng.QueryConfig(r.Context(), kv)
		if err != nil {
			return err
		}
		out = dto.ConfigResponse{
			Owner:         cfg.Owner,
			Reserve:       cfg.Reserve.Dec(),
			GameContracts: cfg.GameContracts,
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) getTokenInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var out dto.TokenInfoResponse
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		ti, err := s.eng.QueryTokenInfo(r.Context(), kv)
		if err != nil {
			return err
		}
		out = dto.TokenInfoResponse{
			Name:        ti.Name,
			Symbol:      ti.Symbol,
			Decimals:    ti.Decimals,
			TotalSupply: ti.TotalSupply.Dec(),
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account required", http.StatusBadRequest)
		return
	}
	var out dto.BalanceResponse
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		bal, err := s.eng.QueryBalance(r.Context(), kv, account)
		if err != nil {
			return err
		}
		out = dto.BalanceResponse{Account: account, Balance: bal.Dec()}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, out)
}

// withTx roda fn dentro de uma transação do ledger; commit só sem erro.
func (s *Server) withTx(ctx context.Context, fn func(kv ledger.Tx) error) error {
	kv, err := s.store.Begin(ctx, s.contract)
	if err != nil {
		return err
	}
	defer kv.Rollback(ctx)

	if err := fn(kv); err != nil {
		return err
	}
	return kv.Commit(ctx)
}

// dispatchTransfers publica as intents de transferência e devolve o espelho DTO.
func (s *Server) dispatchTransfers(ctx context.Context, intents []wire.Intent, reason string) []dto.TransferDTO {
	out := make([]dto.TransferDTO, 0, len(intents))
	for _, it := range intents {
		tr, ok := it.(wire.NativeTransfer)
		if !ok {
			continue
		}
		if err := s.publ.PublishNativeTransfer(ctx, events.NativeTransfer{
			Recipient: tr.To,
			Denom:     tr.Denom,
			Amount:    tr.Amount.Dec(),
			Reason:    reason,
		}); err != nil {
			s.log.Warn("publish transfer", zap.Error(err))
		}
		out = append(out, dto.TransferDTO{To: tr.To, Denom: tr.Denom, Amount: tr.Amount.Dec()})
	}
	return out
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	var insuff *engine.InsufficientBalanceError
	var arith *engine.ArithmeticError
	switch {
	case errors.Is(err, engine.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, engine.ErrZeroAmount):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &insuff):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, engine.ErrNotInstantiated):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &arith):
		s.log.Error("arithmetic fault", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) count(op string) {
	if s.OnCommand != nil {
		s.OnCommand(op)
	}
}

func (s *Server) denom() string { return s.eng.Denom() }

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func parseAmount(s string) (*uint256.Int, error) {
	return uint256.FromDecimal(s)
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
