package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/domains/hold/model"
)

// RepositoryInterface defines the contract for hold data access. All
// mutating methods run inside a caller-owned transaction; the row lock
// taken by the Get*ForUpdate variants is what serializes per-hold state
// changes.
type RepositoryInterface interface {
	// Insert stores a fresh hold and fills in its assigned id and
	// created_at.
	Insert(ctx context.Context, tx pgx.Tx, hold *model.Hold) error

	// GetByIDForUpdate retrieves a hold under an exclusive row lock.
	// Returns ErrHoldNotFound if not exists.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Hold, error)

	// GetForRelease retrieves a hold under an exclusive row lock together
	// with the status of its order, when one exists. Only the hold row is
	// locked.
	// Returns ErrHoldNotFound if not exists.
	GetForRelease(ctx context.Context, tx pgx.Tx, id int64) (*model.HoldWithOrder, error)

	// MarkUsed flips used on a fresh hold. Fails when the hold is no
	// longer fresh; callers verify state under the row lock first.
	MarkUsed(ctx context.Context, tx pgx.Tx, id int64) error

	// MarkReleased flips released. The only guard is released = FALSE so
	// the order-cancel path can release a used hold.
	MarkReleased(ctx context.Context, tx pgx.Tx, id int64) error

	// ListExpiredActive returns up to limit holds whose TTL elapsed while
	// still fresh, with id greater than afterID, in id order. The sweeper
	// pages through with the last id as cursor and fans the rows out as
	// release tasks.
	ListExpiredActive(ctx context.Context, afterID int64, limit int) ([]model.Hold, error)
}
