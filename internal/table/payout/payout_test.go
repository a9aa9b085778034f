package payout

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiplierKnownValues(t *testing.T) {
	// valores conferidos na mão: (1000000 - fee) / (99 - n*5/3), tudo inteiro
	cases := []struct {
		prediction uint8
		feeRate    uint64
		want       uint64
	}{
		{1, 0, 10_204},        // 1000000 / 98
		{2, 0, 10_416},        // 1000000 / 96
		{30, 10_000, 20_204},  // 990000 / 49
		{50, 0, 62_500},       // 1000000 / 16
		{58, 0, 333_333},      // 1000000 / 3
		{58, 10_000, 330_000}, // 990000 / 3
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Multiplier(tc.prediction, tc.feeRate),
			"prediction %d fee %d", tc.prediction, tc.feeRate)
	}
}

func TestMultiplierGrowsWithPrediction(t *testing.T) {
	prev := uint64(0)
	for n := uint8(1); n <= 58; n++ {
		m := Multiplier(n, 10_000)
		assert.GreaterOrEqual(t, m, prev, "prediction %d", n)
		prev = m
	}
}

func TestHigherFeeNeverPaysMore(t *testing.T) {
	for n := uint8(1); n <= 58; n++ {
		assert.LessOrEqual(t, Multiplier(n, 50_000), Multiplier(n, 10_000), "prediction %d", n)
	}
}

func TestComputeTruncates(t *testing.T) {
	// 1000 * 20204 / 10000 = 2020.4 -> 2020
	out, ok := Compute(30, uint256.NewInt(1000), 10_000)
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(2020), out)

	out, ok = Compute(30, uint256.NewInt(1_000_000), 10_000)
	require.True(t, ok)
	assert.Equal(t, uint256.NewInt(2_020_400), out)
}

func TestComputeWideStakeDoesNotOverflow(t *testing.T) {
	// stake de 128 bits: o intermediário usa 512 bits, então não estoura
	stake := new(uint256.Int).Lsh(uint256.NewInt(1), 127)
	out, ok := Compute(58, stake, 0)
	require.True(t, ok)
	assert.True(t, out.Gt(stake)) // 33x a aposta
}

func TestWins(t *testing.T) {
	assert.True(t, Wins(true, 30, 31))
	assert.False(t, Wins(true, 30, 30)) // empate perde
	assert.False(t, Wins(true, 30, 29))

	assert.True(t, Wins(false, 30, 29))
	assert.False(t, Wins(false, 30, 30))
	assert.False(t, Wins(false, 30, 31))
}
