package engine

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/casino-settlement-poc/internal/shared/ledger"
	"github.com/radieske/casino-settlement-poc/pkg/contracts/wire"
)

const (
	denom    = "ustake"
	operator = "addr_operator"
	houseCt  = "addr_house"
	bettor   = "addr_bettor"
)

func envAt(height uint64) wire.BlockEnv {
	return wire.BlockEnv{ChainID: "casino-sim-1", Height: height, Time: 1_700_000_000 + int64(height), TimeNanos: 42}
}

func fixedOutcome(n uint8) OutcomeFunc {
	return func(string, wire.BlockEnv) uint8 { return n }
}

func setupTable(t *testing.T) (context.Context, ledger.Tx, *Engine) {
	t.Helper()
	ctx := context.Background()
	store := ledger.NewMemory()
	kv, err := store.Begin(ctx, "addr_table_r2")
	require.NoError(t, err)

	eng := New(denom)
	_, err = eng.Instantiate(ctx, kv, wire.MsgInfo{Sender: operator}, "r2", "over/under")
	require.NoError(t, err)
	_, err = eng.UpdateHouseContract(ctx, kv, wire.MsgInfo{Sender: operator}, houseCt)
	require.NoError(t, err)
	_, err = eng.UpdateHouseFee(ctx, kv, wire.MsgInfo{Sender: operator}, 10_000) // 1%
	require.NoError(t, err)
	return ctx, kv, eng
}

func betMsg(amount uint64) wire.MsgInfo {
	return wire.MsgInfo{
		Sender: bettor,
		Funds:  []wire.Coin{{Denom: denom, Amount: uint256.NewInt(amount)}},
	}
}

func TestPlaceBetLocksPayoutAtCurrentFee(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	receipt, resp, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1_000_000), 30, true)
	require.NoError(t, err)

	// multiplicador pra 30 com taxa de 1%: 990000/49 = 20204
	assert.Equal(t, uint256.NewInt(2_020_400), receipt.Payout)
	assert.Equal(t, uint64(100), receipt.Height)
	assert.NotEmpty(t, resp.Attributes)

	bet, found, err := eng.QueryBet(ctx, kv, bettor)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint256.NewInt(1_000_000), bet.Stake)
	assert.Equal(t, uint8(30), bet.Prediction)
	assert.True(t, bet.Over)

	// mudança de taxa depois da aposta não altera o prêmio já travado
	_, err = eng.UpdateHouseFee(ctx, kv, wire.MsgInfo{Sender: operator}, 500_000)
	require.NoError(t, err)
	bet, _, err = eng.QueryBet(ctx, kv, bettor)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(2_020_400), bet.Payout)
}

func TestPlaceBetPredictionRanges(t *testing.T) {
	ctx, kv, eng := setupTable(t)
	env := envAt(10)

	cases := []struct {
		name       string
		prediction uint8
		over       bool
		wantErr    bool
	}{
		{"over lower bound", 2, true, false},
		{"over upper bound", 58, true, false},
		{"over too low", 1, true, true},
		{"over too high", 59, true, true},
		{"under lower bound", 1, false, false},
		{"under upper bound", 57, false, false},
		{"under too low", 0, false, true},
		{"under too high", 58, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := wire.MsgInfo{
				Sender: "addr_" + tc.name,
				Funds:  []wire.Coin{{Denom: denom, Amount: uint256.NewInt(100)}},
			}
			_, _, err := eng.PlaceBet(ctx, kv, env, msg, tc.prediction, tc.over)
			if tc.wantErr {
				var pred *InvalidPredictionError
				require.ErrorAs(t, err, &pred)
				assert.Equal(t, tc.prediction, pred.Number)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlaceBetRequiresStake(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.PlaceBet(ctx, kv, envAt(10), wire.MsgInfo{Sender: bettor}, 30, true)
	assert.ErrorIs(t, err, ErrEmptyStake)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), wire.MsgInfo{
		Sender: bettor,
		Funds:  []wire.Coin{{Denom: "uother", Amount: uint256.NewInt(100)}},
	}, 30, true)
	assert.ErrorIs(t, err, ErrEmptyStake)
}

func TestPlaceBetRejectsSecondOpenBet(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.PlaceBet(ctx, kv, envAt(10), betMsg(100), 30, true)
	require.NoError(t, err)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(11), betMsg(100), 40, false)
	assert.ErrorIs(t, err, ErrBetAlreadyOpen)
}

func TestPlaceBetEnforcesMinMax(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, err := eng.UpdateMinBet(ctx, kv, wire.MsgInfo{Sender: operator}, uint256.NewInt(100))
	require.NoError(t, err)
	_, err = eng.UpdateMaxBet(ctx, kv, wire.MsgInfo{Sender: operator}, uint256.NewInt(10_000))
	require.NoError(t, err)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), betMsg(99), 30, true)
	assert.ErrorIs(t, err, ErrBetBelowMin)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), betMsg(10_001), 30, true)
	assert.ErrorIs(t, err, ErrBetAboveMax)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), betMsg(100), 30, true)
	assert.NoError(t, err)
}

func TestPlaceBetEnforcesPayoutCap(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	// 58 over paga 33x; com teto de 10x a aposta não entra
	_, err := eng.UpdateMaxBetRate(ctx, kv, wire.MsgInfo{Sender: operator}, 10)
	require.NoError(t, err)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), betMsg(1000), 58, true)
	assert.ErrorIs(t, err, ErrPayoutCap)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), betMsg(1000), 30, true)
	assert.NoError(t, err)
}

func TestPlaceBetAccumulatesVolume(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.PlaceBet(ctx, kv, envAt(10), betMsg(1000), 30, true)
	require.NoError(t, err)
	_, _, err = eng.PlaceBet(ctx, kv, envAt(10), wire.MsgInfo{
		Sender: "addr_other",
		Funds:  []wire.Coin{{Denom: denom, Amount: uint256.NewInt(234)}},
	}, 20, false)
	require.NoError(t, err)

	ti, err := eng.QueryConfig(ctx, kv)
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1234), ti.CumulativeBetAmount)
}

func TestResolveWithoutBetIsNoGame(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.ResolveBet(ctx, kv, envAt(10), wire.MsgInfo{Sender: bettor})
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestResolveInSameBlockIsNoResult(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1000), 30, true)
	require.NoError(t, err)

	_, _, err = eng.ResolveBet(ctx, kv, envAt(100), wire.MsgInfo{Sender: bettor})
	assert.ErrorIs(t, err, ErrNoResult)

	// NoResult não consome a aposta
	_, found, err := eng.QueryBet(ctx, kv, bettor)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestResolveNextBlockWin(t *testing.T) {
	ctx, kv, eng := setupTable(t)
	eng.WithOutcome(fixedOutcome(45)) // 45 > 30, over ganha

	_, _, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1_000_000), 30, true)
	require.NoError(t, err)

	res, resp, err := eng.ResolveBet(ctx, kv, envAt(101), wire.MsgInfo{Sender: bettor})
	require.NoError(t, err)
	assert.Equal(t, StatusWin, res.Status)
	assert.Equal(t, uint8(45), res.Outcome)
	assert.True(t, res.Won)
	assert.Equal(t, uint256.NewInt(2_020_400), res.Payout)

	require.Len(t, resp.Intents, 1)
	report := resp.Intents[0].(wire.ReportPlayResult)
	assert.Equal(t, houseCt, report.Contract)
	assert.True(t, report.Won)
	assert.Equal(t, uint256.NewInt(1_000_000), report.BetAmount)
	assert.Equal(t, uint256.NewInt(2_020_400), report.PrizeAmount)
	assert.Equal(t, bettor, report.Winner)
	// a aposta original segue anexada ao report
	require.Len(t, report.Funds, 1)
	assert.Equal(t, uint256.NewInt(1_000_000), report.Funds[0].Amount)

	// aposta consumida: segunda resolução é NoGame
	_, _, err = eng.ResolveBet(ctx, kv, envAt(102), wire.MsgInfo{Sender: bettor})
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestResolveNextBlockLose(t *testing.T) {
	ctx, kv, eng := setupTable(t)
	eng.WithOutcome(fixedOutcome(30)) // empate perde

	_, _, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1000), 30, true)
	require.NoError(t, err)

	res, resp, err := eng.ResolveBet(ctx, kv, envAt(101), wire.MsgInfo{Sender: bettor})
	require.NoError(t, err)
	assert.Equal(t, StatusLose, res.Status)
	assert.False(t, res.Won)

	require.Len(t, resp.Intents, 1)
	report := resp.Intents[0].(wire.ReportPlayResult)
	assert.False(t, report.Won)
}

func TestResolveAfterWindowRefunds(t *testing.T) {
	ctx, kv, eng := setupTable(t)
	eng.WithOutcome(fixedOutcome(45))

	_, _, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1000), 30, true)
	require.NoError(t, err)

	res, resp, err := eng.ResolveBet(ctx, kv, envAt(105), wire.MsgInfo{Sender: bettor})
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, res.Status)
	assert.Equal(t, uint256.NewInt(1000), res.Stake)
	assert.True(t, res.Payout.IsZero())

	// estorno integral direto pro apostador, nada vai pra casa
	require.Len(t, resp.Intents, 1)
	tr := resp.Intents[0].(wire.NativeTransfer)
	assert.Equal(t, bettor, tr.To)
	assert.Equal(t, uint256.NewInt(1000), tr.Amount)

	_, _, err = eng.ResolveBet(ctx, kv, envAt(106), wire.MsgInfo{Sender: bettor})
	assert.ErrorIs(t, err, ErrNoGame)
}

func TestRefundAllowsNewBet(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, _, err := eng.PlaceBet(ctx, kv, envAt(100), betMsg(1000), 30, true)
	require.NoError(t, err)
	_, _, err = eng.ResolveBet(ctx, kv, envAt(110), wire.MsgInfo{Sender: bettor})
	require.NoError(t, err)

	_, _, err = eng.PlaceBet(ctx, kv, envAt(110), betMsg(500), 20, false)
	assert.NoError(t, err)
}

func TestUpdateHouseFeeRejectsOverUnity(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	_, err := eng.UpdateHouseFee(ctx, kv, wire.MsgInfo{Sender: operator}, 1_000_001)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)

	_, err = eng.UpdateHouseFee(ctx, kv, wire.MsgInfo{Sender: operator}, 1_000_000)
	assert.NoError(t, err)
}

func TestAdminOpsRequireOwner(t *testing.T) {
	ctx, kv, eng := setupTable(t)

	rogue := wire.MsgInfo{Sender: "addr_rogue"}
	_, err := eng.UpdateOwner(ctx, kv, rogue, "addr_rogue")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = eng.UpdateHouseContract(ctx, kv, rogue, "addr_rogue")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = eng.UpdateHouseFee(ctx, kv, rogue, 0)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = eng.UpdateMinBet(ctx, kv, rogue, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrUnauthorized)
}
