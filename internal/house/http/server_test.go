package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/casino-settlement-poc/internal/house/dto"
	"github.com/radieske/casino-settlement-poc/internal/house/engine"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

type capturePublisher struct {
	results   []events.PlayResult
	transfers []events.NativeTransfer
}

func (p *capturePublisher) PublishPlayResult(_ context.Context, e events.PlayResult) error {
	p.results = append(p.results, e)
	return nil
}

func (p *capturePublisher) PublishNativeTransfer(_ context.Context, e events.NativeTransfer) error {
	p.transfers = append(p.transfers, e)
	return nil
}

func newTestServer(t *testing.T) (*Server, *capturePublisher) {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemory()
	eng := engine.New("ustake")

	kv, err := store.Begin(ctx, "addr_house")
	require.NoError(t, err)
	owner := wire.MsgInfo{Sender: "addr_operator"}
	_, err = eng.Instantiate(ctx, kv, owner)
	require.NoError(t, err)
	_, err = eng.UpdatePoolToken(ctx, kv, owner, "addr_pool_token")
	require.NoError(t, err)
	_, err = eng.AddGameContract(ctx, kv, owner, "addr_table_r2")
	require.NoError(t, err)
	require.NoError(t, kv.Commit(ctx))

	publ := &capturePublisher{}
	return NewServer(zap.NewNop(), store, eng, "addr_house", publ), publ
}

func post(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDepositThenWithdrawOverHTTP(t *testing.T) {
	srv, publ := newTestServer(t)
	router := srv.Router()

	rec := post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "1000"})
	require.Equal(t, http.StatusOK, rec.Code)

	var dep dto.DepositResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dep))
	assert.Equal(t, "1000", dep.MintedShares)

	rec = get(t, router, "/pool/balance?account=addr_alice")
	require.Equal(t, http.StatusOK, rec.Code)
	var bal dto.BalanceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bal))
	assert.Equal(t, "1000", bal.Balance)

	rec = post(t, router, "/pool/withdraw", dto.WithdrawRequest{
		Sender: "addr_pool_token", From: "addr_alice", ShareAmount: "400",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var wd dto.WithdrawResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &wd))
	assert.Equal(t, "400", wd.Paid)
	require.Len(t, wd.Transfers, 1)
	assert.Equal(t, "addr_alice", wd.Transfers[0].To)

	// evento de transferência emitido pro settlement-worker
	require.Len(t, publ.transfers, 1)
	assert.Equal(t, "withdraw", publ.transfers[0].Reason)
	assert.Equal(t, "400", publ.transfers[0].Amount)
}

func TestWithdrawFromWrongSenderIsForbidden(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "1000"})

	rec := post(t, router, "/pool/withdraw", dto.WithdrawRequest{
		Sender: "addr_alice", From: "addr_alice", ShareAmount: "400",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestWithdrawOverBalanceIsConflict(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "1000"})

	rec := post(t, router, "/pool/withdraw", dto.WithdrawRequest{
		Sender: "addr_pool_token", From: "addr_alice", ShareAmount: "1001",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlayResultOverHTTP(t *testing.T) {
	srv, publ := newTestServer(t)
	router := srv.Router()

	post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "1000"})

	rec := post(t, router, "/pool/play-result", dto.PlayResultRequest{
		Sender: "addr_table_r2", Won: true, BetAmount: "100", PrizeAmount: "250", Winner: "addr_bettor",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var out dto.PlayResultResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, out.Applied)
	require.Len(t, out.Transfers, 1)
	assert.Equal(t, "addr_bettor", out.Transfers[0].To)
	assert.Equal(t, "250", out.Transfers[0].Amount)

	require.Len(t, publ.results, 1)
	assert.Equal(t, "addr_bettor", publ.results[0].Winner)
	require.Len(t, publ.transfers, 1)
	assert.Equal(t, "prize", publ.transfers[0].Reason)

	rec = get(t, router, "/pool/config")
	require.Equal(t, http.StatusOK, rec.Code)
	var cfg dto.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "750", cfg.Reserve)
}

func TestPlayResultFromUnknownTableIsForbidden(t *testing.T) {
	srv, publ := newTestServer(t)
	router := srv.Router()

	post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "1000"})

	rec := post(t, router, "/pool/play-result", dto.PlayResultRequest{
		Sender: "addr_rogue", Won: false, BetAmount: "100", PrizeAmount: "0", Winner: "x",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, publ.results)
}

func TestPrizeOverReserveIsServerError(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "100"})

	rec := post(t, router, "/pool/play-result", dto.PlayResultRequest{
		Sender: "addr_table_r2", Won: true, BetAmount: "100", PrizeAmount: "101", Winner: "x",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// reserva intacta depois do abort
	rec = get(t, router, "/pool/config")
	var cfg dto.ConfigResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, "100", cfg.Reserve)
}

func TestInvalidAmountIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	router := srv.Router()

	rec := post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, router, "/pool/deposit", dto.DepositRequest{Sender: "addr_alice", Amount: "0"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
