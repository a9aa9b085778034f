// Package payout calcula prêmios da mesa over/under de 59 slots.
// Toda a aritmética é inteira e truncada: o multiplicador sai em unidades de
// 1/10000 e a taxa da casa em partes por milhão. Qualquer mudança aqui muda a
// margem da casa, então os valores precisam bater exatamente.
package payout

import "github.com/holiman/uint256"

const (
	feeScale        = 1_000_000 // taxa da casa em ppm
	multiplierScale = 10_000
)

// Multiplier devolve o multiplicador de prêmio (x10000) para um número
// escolhido. A curva de odds depende só do número, não da direção.
func Multiplier(prediction uint8, feeRate uint64) uint64 {
	return (feeScale - feeRate) / (99 - uint64(prediction)*5/3)
}

// Compute trava o prêmio de uma aposta no momento em que ela é feita.
// payout = stake * multiplier / 10000, com intermediário largo.
func Compute(prediction uint8, stake *uint256.Int, feeRate uint64) (*uint256.Int, bool) {
	mult := uint256.NewInt(Multiplier(prediction, feeRate))
	out := new(uint256.Int)
	_, overflow := out.MulDivOverflow(stake, mult, uint256.NewInt(multiplierScale))
	return out, !overflow
}

// Wins aplica a regra de comparação: over ganha com outcome > prediction,
// under ganha com outcome < prediction. Empate perde nas duas direções.
func Wins(over bool, prediction, outcome uint8) bool {
	if over {
		return outcome > prediction
	}
	return outcome < prediction
}
