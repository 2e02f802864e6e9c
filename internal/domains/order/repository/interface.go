package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/domains/order/model"
)

// RepositoryInterface defines the contract for order data access. All
// methods run inside a caller-owned transaction; the row lock taken by
// GetForSettlement serializes settlement per order.
type RepositoryInterface interface {
	// Insert stores a fresh order and fills in its assigned id and
	// timestamps.
	Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// GetForSettlement retrieves an order under an exclusive row lock
	// together with the product id and qty of its hold. Only the order
	// row is locked.
	// Returns ErrOrderNotFound if not exists.
	GetForSettlement(ctx context.Context, tx pgx.Tx, id int64) (*model.OrderWithHold, error)

	// Exists reports whether an order row exists, without locking it.
	Exists(ctx context.Context, tx pgx.Tx, id int64) (bool, error)

	// UpdateStatus moves an order between statuses, guarded by the
	// expected current status. Callers verify the transition under the
	// row lock first.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to model.OrderStatus) error
}
