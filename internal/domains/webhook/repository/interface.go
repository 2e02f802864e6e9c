package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/domains/webhook/model"
)

// RepositoryInterface defines the contract for webhook log data access.
// Insert and the lookups run inside the caller's transaction so the log
// row commits or rolls back together with the order change it records.
type RepositoryInterface interface {
	// GetByKey retrieves the log carrying the idempotency key.
	// Returns ErrLogNotFound if not exists.
	GetByKey(ctx context.Context, tx pgx.Tx, key string) (*model.WebhookLog, error)

	// Insert stores a fresh log and fills in its assigned id and
	// created_at. Returns ErrDuplicateKey when the idempotency key lost a
	// race against a concurrent delivery.
	Insert(ctx context.Context, tx pgx.Tx, log *model.WebhookLog) error

	// ListPendingOrder returns all logs still waiting for their order, in
	// id order.
	ListPendingOrder(ctx context.Context) ([]model.WebhookLog, error)

	// MarkProcessed moves a pending_order log to processed, stamping
	// processed_at. The pending row is updated in place; reconciliation
	// and a duplicate delivery still collapse on the unique key.
	MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error
}
