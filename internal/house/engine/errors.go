package engine

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrZeroAmount      = errors.New("invalid zero amount")
	ErrNotInstantiated = errors.New("pool not instantiated")
)

// InsufficientBalanceError indica tentativa de resgatar mais cotas do que a
// conta possui. Condição distinta de ErrZeroAmount e checável via errors.As.
type InsufficientBalanceError struct {
	Account string
	Have    *uint256.Int
	Want    *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: account %s has %s, wants %s",
		e.Account, e.Have.Dec(), e.Want.Dec())
}

// ArithmeticError sinaliza overflow/underflow na matemática de reserva ou
// saldos. Sempre fatal: aborta a chamada inteira em vez de saturar.
type ArithmeticError struct {
	Op string
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("arithmetic fault in %s", e.Op)
}
