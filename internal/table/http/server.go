package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	housedto "github.com/radieske/casino-settlement-poc/internal/house/dto"
	"github.com/radieske/casino-settlement-poc/internal/shared/chain"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/internal/table/dto"
	"github.com/radieske/casino-settlement-poc/internal/table/engine"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

// HouseClient reporta o resultado pra pool. A chamada acontece ANTES do commit
// da transação da mesa: pool recusou, resolução inteira aborta.
type HouseClient interface {
	ReportPlayResult(ctx context.Context, sender string, won bool, betAmount, prizeAmount, winner string) ([]housedto.TransferDTO, error)
}

// HeadSource fornece o bloco corrente da cadeia simulada.
type HeadSource interface {
	Current(ctx context.Context) (wire.BlockEnv, error)
}

// Publisher emite os eventos de aposta; best-effort, depois do commit.
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
	PublishBetResolved(context.Context, events.BetResolved) error
	PublishNativeTransfer(context.Context, events.NativeTransfer) error
}

type Server struct {
	log      *zap.Logger
	store    ledger.Store
	eng      *engine.Engine
	head     HeadSource
	house    HouseClient
	contract string // endereço desta mesa, sender dos reports
	publ     Publisher

	OnCommand func(op string)
	OnResolve func(status string)
}

func NewServer(log *zap.Logger, store ledger.Store, eng *engine.Engine, head HeadSource,
	house HouseClient, contract string, publ Publisher) *Server {
	return &Server{log: log, store: store, eng: eng, head: head, house: house, contract: contract, publ: publ}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/table/bet", s.bet)                       // POST abre, GET ?account= consulta
	mux.HandleFunc("/table/resolve", s.resolve)               // POST
	mux.HandleFunc("/table/config", s.getConfig)              // GET
	mux.HandleFunc("/table/owner", s.updateOwner)             // POST
	mux.HandleFunc("/table/house-contract", s.updateHouse)    // POST
	mux.HandleFunc("/table/name", s.updateName)               // POST
	mux.HandleFunc("/table/description", s.updateDescription) // POST
	mux.HandleFunc("/table/min-bet", s.updateMinBet)          // POST
	mux.HandleFunc("/table/max-bet", s.updateMaxBet)          // POST
	mux.HandleFunc("/table/max-bet-rate", s.updateMaxBetRate) // POST
	mux.HandleFunc("/table/house-fee", s.updateHouseFee)      // POST
	return mux
}

func (s *Server) bet(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getBet(w, r)
	case http.MethodPost:
		s.placeBet(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if req.Sender == "" || err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	env, err := s.head.Current(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	info := wire.MsgInfo{
		Sender: req.Sender,
		Funds:  []wire.Coin{{Denom: s.eng.Denom(), Amount: amount}},
	}

	var receipt *engine.BetReceipt
	err = s.withTx(r.Context(), func(kv ledger.Tx) error {
		var err error
		receipt, _, err = s.eng.PlaceBet(r.Context(), kv, env, info, req.Prediction, req.Over)
		return err
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.count("place_bet")

	if err := s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		Table:      s.contract,
		Bettor:     req.Sender,
		Stake:      amount.Dec(),
		Prediction: req.Prediction,
		Over:       req.Over,
		Payout:     receipt.Payout.Dec(),
		Height:     receipt.Height,
	}); err != nil {
		s.log.Warn("publish bet_placed", zap.Error(err))
	}

	writeJSON(w, dto.PlaceBetResponse{
		Bettor:     req.Sender,
		Prediction: req.Prediction,
		Over:       req.Over,
		Stake:      amount.Dec(),
		Payout:     receipt.Payout.Dec(),
		Height:     receipt.Height,
	})
}

func (s *Server) resolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req dto.ResolveBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.Sender == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	env, err := s.head.Current(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	info := wire.MsgInfo{Sender: req.Sender}

	var res *engine.Resolution
	var resp *wire.Response
	var transfers []dto.TransferDTO
	err = s.withTx(r.Context(), func(kv ledger.Tx) error {
		var err error
		res, resp, err = s.eng.ResolveBet(r.Context(), kv, env, info)
		if err != nil {
			return err
		}
		// report síncrono pra pool dentro da mesma janela transacional:
		// ou os dois lados aplicam, ou nenhum
		for _, it := range resp.Intents {
			rep, ok := it.(wire.ReportPlayResult)
			if !ok {
				continue
			}
			paid, err := s.house.ReportPlayResult(r.Context(), s.contract,
				rep.Won, rep.BetAmount.Dec(), rep.PrizeAmount.Dec(), rep.Winner)
			if err != nil {
				return errHouseReport{err}
			}
			for _, t := range paid {
				transfers = append(transfers, dto.TransferDTO{To: t.To, Denom: t.Denom, Amount: t.Amount})
			}
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.count("resolve_bet")
	if s.OnResolve != nil {
		s.OnResolve(res.Status)
	}

	out := dto.ResolveBetResponse{
		Bettor: req.Sender,
		Status: res.Status,
		Stake:  res.Stake.Dec(),
		Payout: res.Payout.Dec(),
	}
	if res.Status != engine.StatusRefunded {
		outcome := res.Outcome
		out.Outcome = &outcome
	}

	// reembolso sai direto da mesa; despacho best-effort pós-commit
	for _, it := range resp.Intents {
		tr, ok := it.(wire.NativeTransfer)
		if !ok {
			continue
		}
		if err := s.publ.PublishNativeTransfer(r.Context(), events.NativeTransfer{
			Recipient: tr.To,
			Denom:     tr.Denom,
			Amount:    tr.Amount.Dec(),
			Reason:    "refund",
		}); err != nil {
			s.log.Warn("publish refund transfer", zap.Error(err))
		}
		out.Transfers = append(out.Transfers, dto.TransferDTO{To: tr.To, Denom: tr.Denom, Amount: tr.Amount.Dec()})
	}
	out.Transfers = append(out.Transfers, transfers...)

	if err := s.publ.PublishBetResolved(r.Context(), events.BetResolved{
		Table:   s.contract,
		Bettor:  req.Sender,
		Status:  res.Status,
		Outcome: res.Outcome,
		Stake:   res.Stake.Dec(),
		Payout:  res.Payout.Dec(),
		Height:  env.Height,
	}); err != nil {
		s.log.Warn("publish bet_resolved", zap.Error(err))
	}

	writeJSON(w, out)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	account := r.URL.Query().Get("account")
	if account == "" {
		http.Error(w, "account required", http.StatusBadRequest)
		return
	}
	var out dto.BetResponse
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		bet, found, err := s.eng.QueryBet(r.Context(), kv, account)
		if err != nil {
			return err
		}
		if !found {
			return engine.ErrNoGame
		}
		out = dto.BetResponse{
			Bettor:     bet.Bettor,
			Stake:      bet.Stake.Dec(),
			Prediction: bet.Prediction,
			Over:       bet.Over,
			Payout:     bet.Payout.Dec(),
			Height:     bet.Height,
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) getConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var out dto.TableConfigResponse
	err := s.withTx(r.Context(), func(kv ledger.Tx) error {
		ti, err := s.eng.QueryConfig(r.Context(), kv)
		if err != nil {
			return err
		}
		out = dto.TableConfigResponse{
			Owner:         ti.Owner,
			HouseContract: ti.HouseContract,
			Name:          ti.Name,
			Description:   ti.Description,
			MinBet:        ti.MinBet.Dec(),
			MaxBet:        ti.MaxBet.Dec(),
			MaxBetRate:    ti.MaxBetRate,
			HouseFee:      ti.HouseFee,
			Cumulative:    ti.CumulativeBetAmount.Dec(),
		}
		return nil
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, out)
}

func (s *Server) updateOwner(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOwnerRequest
	if !decodePost(w, r, &req) || req.Sender == "" || req.Owner == "" {
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := s.eng.UpdateOwner(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Owner)
		return err
	})
}

func (s *Server) updateHouse(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateContractRequest
	if !decodePost(w, r, &req) || req.Sender == "" || req.Contract == "" {
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := s.eng.UpdateHouseContract(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Contract)
		return err
	})
}

func (s *Server) updateName(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTextRequest
	if !decodePost(w, r, &req) || req.Sender == "" {
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := s.eng.UpdateName(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Value)
		return err
	})
}

func (s *Server) updateDescription(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTextRequest
	if !decodePost(w, r, &req) || req.Sender == "" {
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := s.eng.UpdateDescription(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Value)
		return err
	})
}

func (s *Server) updateMinBet(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.eng.UpdateMinBet)
}

func (s *Server) updateMaxBet(w http.ResponseWriter, r *http.Request) {
	s.amountCall(w, r, s.eng.UpdateMaxBet)
}

func (s *Server) updateMaxBetRate(w http.ResponseWriter, r *http.Request) {
	s.rateCall(w, r, s.eng.UpdateMaxBetRate)
}

func (s *Server) updateHouseFee(w http.ResponseWriter, r *http.Request) {
	s.rateCall(w, r, s.eng.UpdateHouseFee)
}

func (s *Server) amountCall(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ledger.Tx, wire.MsgInfo, *uint256.Int) (*wire.Response, error)) {
	var req dto.UpdateAmountRequest
	if !decodePost(w, r, &req) || req.Sender == "" {
		return
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := fn(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, amount)
		return err
	})
}

func (s *Server) rateCall(w http.ResponseWriter, r *http.Request,
	fn func(context.Context, ledger.Tx, wire.MsgInfo, uint64) (*wire.Response, error)) {
	var req dto.UpdateRateRequest
	if !decodePost(w, r, &req) || req.Sender == "" {
		return
	}
	s.adminCall(w, r, func(kv ledger.Tx) error {
		_, err := fn(r.Context(), kv, wire.MsgInfo{Sender: req.Sender}, req.Rate)
		return err
	})
}

func (s *Server) adminCall(w http.ResponseWriter, r *http.Request, fn func(kv ledger.Tx) error) {
	if err := s.withTx(r.Context(), fn); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"OK"}`))
}

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

// errHouseReport marca falha na chamada síncrona à pool (mesa fez rollback).
type errHouseReport struct{ err error }

func (e errHouseReport) Error() string { return "house report: " + e.err.Error() }
func (e errHouseReport) Unwrap() error { return e.err }

func (s *Server) fail(w http.ResponseWriter, err error) {
	var pred *engine.InvalidPredictionError
	var arith *engine.ArithmeticError
	var hrep errHouseReport
	switch {
	case errors.Is(err, engine.ErrNoGame):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrNoResult):
		http.Error(w, err.Error(), http.StatusTooEarly)
	case errors.Is(err, engine.ErrBetAlreadyOpen):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, engine.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, engine.ErrEmptyStake),
		errors.Is(err, engine.ErrBetBelowMin),
		errors.Is(err, engine.ErrBetAboveMax),
		errors.Is(err, engine.ErrPayoutCap),
		errors.Is(err, engine.ErrInvalidFeeRate),
		errors.As(err, &pred):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrNotInstantiated), errors.Is(err, chain.ErrNoHead):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &hrep):
		s.log.Error("house rejected play result", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
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

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
