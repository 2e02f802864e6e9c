package service

import (
	"context"

	"flashsale-backend/internal/domains/hold/model"
)

// ServiceInterface is the hold manager: creation and release of stock
// reservations, serialized per product and per hold. The release job and
// the expiry sweeper depend only on this surface.
type ServiceInterface interface {
	// CreateHold reserves qty units of a product for the hold TTL.
	// Serialized per product by the advisory product lock plus the
	// product row lock; availability is always re-derived from the store
	// inside that critical section. Transient deadlocks are retried with
	// exponential backoff before surfacing ErrHighContention.
	// Returns ErrInvalidQty, ErrProductNotFound, ErrInsufficientStock or
	// ErrHighContention.
	CreateHold(ctx context.Context, productID, qty int64) (*model.Hold, error)

	// ReleaseHold gives a hold back. Returns false without error when the
	// hold is missing or already settled one way or the other; a used
	// hold is releasable only when its order was cancelled. The cached
	// counter restore afterwards is best-effort.
	ReleaseHold(ctx context.Context, holdID int64) (bool, error)

	// ListExpired returns up to limit holds whose TTL elapsed while still
	// fresh and whose id is greater than afterID, in id order. The
	// sweeper pages through with the last id as cursor.
	ListExpired(ctx context.Context, afterID int64, limit int) ([]model.Hold, error)
}
