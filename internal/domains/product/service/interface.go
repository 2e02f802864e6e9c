package service

import (
	"context"

	"flashsale-backend/internal/domains/product/model"
)

// ServiceInterface is the product surface the HTTP layer and the hold
// manager consume. It owns the advisory stock counter; the store stays
// the source of truth and every number handed out is floored at zero.
type ServiceInterface interface {
	// GetProduct returns the API view of a product with its available
	// stock. Returns ErrProductNotFound if not exists.
	GetProduct(ctx context.Context, id int64) (*model.ProductResponse, error)

	// GetAvailable returns available stock, serving the cached counter
	// when present and recomputing from the store on miss.
	GetAvailable(ctx context.Context, id int64) (int64, error)

	// Refresh recomputes available stock from the store and overwrites
	// the cached counter.
	Refresh(ctx context.Context, id int64) (int64, error)

	// Cached returns the raw cached counter without flooring.
	// found=false means the counter is absent or unreadable.
	Cached(ctx context.Context, id int64) (value int64, found bool, err error)

	// Overwrite replaces the cached counter with value, floored at zero.
	Overwrite(ctx context.Context, id int64, value int64) error

	// Increment / Decrement atomically adjust the cached counter when it
	// exists. applied=false means the counter was absent and nothing
	// changed; callers fall back to Refresh.
	Increment(ctx context.Context, id int64, qty int64) (applied bool, err error)
	Decrement(ctx context.Context, id int64, qty int64) (applied bool, err error)
}
