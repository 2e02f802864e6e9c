package service

import (
	"context"
	"encoding/json"

	"flashsale-backend/internal/domains/webhook/model"
)

// ServiceInterface is webhook settlement: applying upstream payment
// outcomes to orders exactly once, in any delivery order.
type ServiceInterface interface {
	// Handle applies one webhook delivery. Duplicate keys collapse to
	// already_processed, deliveries that beat order creation are parked
	// as pending_order, and otherwise the order is settled as paid or
	// cancelled in the same transaction that records the log row. A
	// cancellation releases the order's hold after commit.
	// Returns ErrInvalidPaymentStatus before anything is written.
	Handle(ctx context.Context, req model.WebhookRequest, payload json.RawMessage) (*model.Result, error)

	// ReconcilePending replays parked deliveries whose payload names the
	// order, each in its own transaction, and reports how many applied.
	// Failures are logged and leave the row pending for a later pass.
	ReconcilePending(ctx context.Context, orderID int64) (int, error)
}
