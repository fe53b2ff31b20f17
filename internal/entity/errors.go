package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("no order items")
	ErrInvalidLine       = errors.New("invalid order line")
	ErrTotalMismatch     = errors.New("grand total does not equal items+tax+shipping")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrUnauthorized      = errors.New("not authorized")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("illegal status transition")
)

// InsufficientStockError reports which line could not be reserved and how
// much stock remains, so callers can surface a precise message.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// PersistenceError wraps a storage failure that triggered (or requires)
// compensation upstream.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }
