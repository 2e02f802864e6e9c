package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/domains/product/model"
)

// RepositoryInterface defines the contract for product data access.
// Availability is always derived from the store; the cached counter is
// advisory and lives a layer above.
type RepositoryInterface interface {
	// GetByID retrieves a product by id
	// Returns ErrProductNotFound if not exists
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDTx retrieves a product inside the given transaction without
	// locking its row. Price reads during order creation use this.
	// Returns ErrProductNotFound if not exists
	GetByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// GetByIDForUpdate retrieves a product under an exclusive row lock
	// inside the given transaction. This is the correctness boundary for
	// hold creation.
	// Returns ErrProductNotFound if not exists
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error)

	// AvailableStock computes authoritative available stock in a single
	// consistent snapshot:
	//   stock_total - stock_sold - active hold qty - pending-settlement qty
	// Active holds: not used, not released, not expired.
	// Pending settlement: used, not released, order still pending_payment.
	// The result is not floored; callers decide how to present negatives.
	AvailableStock(ctx context.Context, id int64) (int64, error)

	// AvailableStockTx is AvailableStock evaluated inside an open
	// transaction, after the product row lock has been taken.
	AvailableStockTx(ctx context.Context, tx pgx.Tx, id int64) (int64, error)

	// IncrementStockSold advances stock_sold by qty inside the given
	// transaction, guarded so stock_sold never passes stock_total.
	// Returns ErrProductNotFound or ErrStockAccountingViolated.
	IncrementStockSold(ctx context.Context, tx pgx.Tx, id int64, qty int64) error
}
