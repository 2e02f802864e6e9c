package model

import (
	"errors"
	"fmt"
)

var (
	// ErrOrderNotFound is returned when the order row does not exist
	ErrOrderNotFound = errors.New("order not found")

	// ErrInvalidTransition is returned when a status change would leave
	// the pending_payment -> paid / pending_payment -> cancelled machine
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrCannotCancelPaid is returned when cancelling an order that was
	// already settled as paid
	ErrCannotCancelPaid = errors.New("cannot cancel a paid order")
)

// NewOrderNotFoundError creates a detailed not found error
func NewOrderNotFoundError(id int64) error {
	return fmt.Errorf("%w: id=%d", ErrOrderNotFound, id)
}

// NewInvalidTransitionError names the rejected transition.
func NewInvalidTransitionError(id int64, from, to OrderStatus) error {
	return fmt.Errorf("%w: order_id=%d %s -> %s", ErrInvalidTransition, id, from, to)
}

// IsNotFoundError checks if error is an order not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
