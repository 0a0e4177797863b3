package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; the HTTP layer maps each kind to a status code.
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("not found")
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductMissing    = errors.New("product missing")
	ErrConflict          = errors.New("conflict")
)

// ErrInvalidTransition is an InvalidArgument raised by the order state machine.
var ErrInvalidTransition = &Error{kind: ErrInvalidArgument, msg: "invalid order status transition"}

// Error is a human-readable message tagged with one of the kinds above.
type Error struct {
	kind error
	msg  string
}

func Errorf(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// StockError reports a line whose requested quantity exceeds what is on hand.
type StockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
		e.ProductName, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
