package model

import (
	"errors"
	"fmt"
)

var (
	// ErrHoldNotFound is returned when the hold row does not exist
	ErrHoldNotFound = errors.New("hold not found")

	// ErrInvalidQty is returned when the requested quantity is not positive
	ErrInvalidQty = errors.New("qty must be positive")

	// ErrInsufficientStock is returned when available stock cannot cover
	// the requested quantity; the hold is not created
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrHighContention is returned when an advisory lock could not be
	// acquired in time or deadlock retries ran out; safe to retry
	ErrHighContention = errors.New("high contention, retry later")

	// ErrHoldAlreadyUsed is returned when an order was already created
	// from the hold
	ErrHoldAlreadyUsed = errors.New("hold already used")

	// ErrHoldReleased is returned when the hold was already given back
	ErrHoldReleased = errors.New("hold already released")

	// ErrHoldExpired is returned when the hold's TTL elapsed before an
	// order was created from it
	ErrHoldExpired = errors.New("hold expired")
)

// NewInsufficientStockError reports how far the request overshot.
func NewInsufficientStockError(productID, requested, available int64) error {
	return fmt.Errorf("%w: product_id=%d requested=%d available=%d",
		ErrInsufficientStock, productID, requested, available)
}

// NewHoldNotFoundError creates a detailed not found error
func NewHoldNotFoundError(id int64) error {
	return fmt.Errorf("%w: id=%d", ErrHoldNotFound, id)
}

// NewHighContentionError wraps the lock or retry failure that exhausted
// the operation.
func NewHighContentionError(cause error) error {
	return fmt.Errorf("%w: %v", ErrHighContention, cause)
}

// IsNotFoundError checks if error is a hold not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrHoldNotFound)
}

// IsContentionError checks if error maps to the high-contention kind
func IsContentionError(err error) bool {
	return errors.Is(err, ErrHighContention)
}
