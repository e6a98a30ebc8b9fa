package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAmount    = errors.New("amount must be a positive finite number")
	ErrInvalidLeverage  = errors.New("leverage out of range")
	ErrNoPrice          = errors.New("instrument has no price yet")
	ErrInvalidDirection = errors.New("unknown position direction")
	ErrUnknownSymbol    = errors.New("unknown instrument")
)

// PositionError annotates a ledger failure with the symbol and operation.
type PositionError struct {
	Symbol string
	Op     string
	Err    error
}

func (e *PositionError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("position %s [%s]: %v", e.Op, e.Symbol, e.Err)
	}
	return fmt.Sprintf("position %s: %v", e.Op, e.Err)
}

func (e *PositionError) Unwrap() error {
	return e.Err
}

// NewPositionError creates a PositionError.
func NewPositionError(symbol, op string, err error) *PositionError {
	return &PositionError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}
