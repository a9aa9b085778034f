package engine

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNotInstantiated = errors.New("table not instantiated")
	ErrEmptyStake      = errors.New("no stake funds attached")
	ErrBetAlreadyOpen  = errors.New("bet already open for this account")
	ErrBetBelowMin     = errors.New("bet below table minimum")
	ErrBetAboveMax     = errors.New("bet above table maximum")
	ErrPayoutCap       = errors.New("payout exceeds max bet rate cap")
	ErrInvalidFeeRate  = errors.New("house fee over 100%")

	// Pré-condições da resolução: não são falha do sistema, o chamador
	// simplesmente errou (NoGame) ou precisa tentar no próximo bloco (NoResult).
	ErrNoGame   = errors.New("no game")
	ErrNoResult = errors.New("no result, wait next block")
)

// InvalidPredictionError indica número fora da faixa válida pra direção.
type InvalidPredictionError struct {
	Number uint8
	Over   bool
	Min    uint8
	Max    uint8
}

func (e *InvalidPredictionError) Error() string {
	dir := "under"
	if e.Over {
		dir = "over"
	}
	return fmt.Sprintf("prediction number %d invalid for %s, range %d~%d", e.Number, dir, e.Min, e.Max)
}

// ArithmeticError sinaliza overflow no cálculo de prêmio ou volume acumulado.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic fault in %s", e.Op)
}
