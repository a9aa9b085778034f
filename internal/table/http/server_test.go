package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	housedto "github.com/radieske/casino-settlement-poc/internal/house/dto"
	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/internal/table/dto"
	"github.com/radieske/casino-settlement-poc/internal/table/engine"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/events"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

type stubHouse struct {
	fail  bool
	calls int
}

func (s *stubHouse) ReportPlayResult(_ context.Context, _ string, _ bool, _, prize, winner string) ([]housedto.TransferDTO, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("house unavailable")
	}
	return []housedto.TransferDTO{{To: winner, Denom: "ustake", Amount: prize}}, nil
}

type nopPublisher struct{}

func (nopPublisher) PublishBetPlaced(context.Context, events.BetPlaced) error           { return nil }
func (nopPublisher) PublishBetResolved(context.Context, events.BetResolved) error       { return nil }
func (nopPublisher) PublishNativeTransfer(context.Context, events.NativeTransfer) error { return nil }

// fakeHead injeta o bloco corrente sem Redis.
type fakeHead struct{ env wire.BlockEnv }

func (f *fakeHead) Current(context.Context) (wire.BlockEnv, error) { return f.env, nil }

func newTestServer(t *testing.T, house HouseClient, head *fakeHead) (*Server, *ledger.Memory, *engine.Engine) {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemory()

	eng := engine.New("ustake").WithOutcome(func(string, wire.BlockEnv) uint8 { return 45 })

	kv, err := store.Begin(ctx, "addr_table_r2")
	require.NoError(t, err)
	_, err = eng.Instantiate(ctx, kv, wire.MsgInfo{Sender: "addr_operator"}, "r2", "")
	require.NoError(t, err)
	_, err = eng.UpdateHouseContract(ctx, kv, wire.MsgInfo{Sender: "addr_operator"}, "addr_house")
	require.NoError(t, err)
	_, err = eng.UpdateHouseFee(ctx, kv, wire.MsgInfo{Sender: "addr_operator"}, 10_000)
	require.NoError(t, err)
	require.NoError(t, kv.Commit(ctx))

	srv := NewServer(zap.NewNop(), store, eng, head, house, "addr_table_r2", nopPublisher{})
	return srv, store, eng
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

func openBet(t *testing.T, store *ledger.Memory, eng *engine.Engine, height uint64) {
	t.Helper()
	ctx := context.Background()
	kv, err := store.Begin(ctx, "addr_table_r2")
	require.NoError(t, err)
	_, _, err = eng.PlaceBet(ctx, kv, wire.BlockEnv{Height: height}, wire.MsgInfo{
		Sender: "addr_bettor",
		Funds:  []wire.Coin{{Denom: "ustake", Amount: uint256.NewInt(1000)}},
	}, 30, true)
	require.NoError(t, err)
	require.NoError(t, kv.Commit(ctx))
}

func hasOpenBet(t *testing.T, store *ledger.Memory, eng *engine.Engine) bool {
	t.Helper()
	ctx := context.Background()
	kv, err := store.Begin(ctx, "addr_table_r2")
	require.NoError(t, err)
	defer kv.Rollback(ctx)
	_, found, err := eng.QueryBet(ctx, kv, "addr_bettor")
	require.NoError(t, err)
	return found
}

func TestResolveRollsBackWhenHouseRejects(t *testing.T) {
	house := &stubHouse{fail: true}
	srv, store, eng := newTestServer(t, house, &fakeHead{env: wire.BlockEnv{Height: 101}})
	openBet(t, store, eng, 100)

	rec := post(t, srv.Router(), "/table/resolve", dto.ResolveBetRequest{Sender: "addr_bettor"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1, house.calls)

	// casa recusou: transação da mesa abortada, a aposta continua aberta
	assert.True(t, hasOpenBet(t, store, eng))

	// casa voltou: a mesma resolução passa e consome a aposta
	house.fail = false
	rec = post(t, srv.Router(), "/table/resolve", dto.ResolveBetRequest{Sender: "addr_bettor"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out dto.ResolveBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, engine.StatusWin, out.Status)
	require.NotNil(t, out.Outcome)
	assert.Equal(t, uint8(45), *out.Outcome)
	require.Len(t, out.Transfers, 1)
	assert.Equal(t, "addr_bettor", out.Transfers[0].To)

	assert.False(t, hasOpenBet(t, store, eng))
}

func TestResolveRefundSkipsHouse(t *testing.T) {
	house := &stubHouse{}
	srv, store, eng := newTestServer(t, house, &fakeHead{env: wire.BlockEnv{Height: 110}})
	openBet(t, store, eng, 100)

	rec := post(t, srv.Router(), "/table/resolve", dto.ResolveBetRequest{Sender: "addr_bettor"})
	require.Equal(t, http.StatusOK, rec.Code)

	var out dto.ResolveBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, engine.StatusRefunded, out.Status)
	assert.Nil(t, out.Outcome)
	require.Len(t, out.Transfers, 1)
	assert.Equal(t, "1000", out.Transfers[0].Amount)

	// estorno nunca toca a pool
	assert.Equal(t, 0, house.calls)
}

func TestPlaceBetConflictOnOpenBet(t *testing.T) {
	srv, store, eng := newTestServer(t, &stubHouse{}, &fakeHead{env: wire.BlockEnv{Height: 101}})
	openBet(t, store, eng, 100)

	rec := post(t, srv.Router(), "/table/bet", dto.PlaceBetRequest{
		Sender: "addr_bettor", Amount: "500", Prediction: 20, Over: false,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}
