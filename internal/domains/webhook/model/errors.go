package model

import (
	"errors"
	"fmt"
)

var (
	// ErrLogNotFound is returned when no webhook log carries the key
	ErrLogNotFound = errors.New("webhook log not found")

	// ErrDuplicateKey is returned when inserting a log whose
	// idempotency_key already exists; the concurrent delivery that won
	// the race has applied (or parked) the payload
	ErrDuplicateKey = errors.New("idempotency key already recorded")

	// ErrInvalidPaymentStatus is returned when payment_status is neither
	// success nor failed
	ErrInvalidPaymentStatus = errors.New("invalid payment status")
)

// NewInvalidPaymentStatusError names the rejected value.
func NewInvalidPaymentStatusError(status string) error {
	return fmt.Errorf("%w: %q", ErrInvalidPaymentStatus, status)
}

// IsDuplicateKeyError checks if error is an idempotency key collision
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}
