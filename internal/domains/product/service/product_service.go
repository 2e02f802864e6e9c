package service

import (
	"context"
	"fmt"
	"time"

	"flashsale-backend/internal/domains/product/model"
	"flashsale-backend/internal/domains/product/repository"
	"flashsale-backend/pkg/cache"
	"flashsale-backend/pkg/logger"
)

type ProductService struct {
	repo     repository.RepositoryInterface
	cache    cache.Cache
	cacheTTL time.Duration
}

// NewService creates a new product service
func NewService(repo repository.RepositoryInterface, c cache.Cache, cacheTTL time.Duration) ServiceInterface {
	return &ProductService{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

func stockKey(productID int64) string {
	return fmt.Sprintf("product:%d:available_stock", productID)
}

// GetProduct implements ServiceInterface.GetProduct
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.ProductResponse, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	available, err := s.GetAvailable(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := product.ToResponse(available)
	return &resp, nil
}

// GetAvailable implements ServiceInterface.GetAvailable
func (s *ProductService) GetAvailable(ctx context.Context, id int64) (int64, error) {
	var cached int64
	found, err := s.cache.Get(ctx, stockKey(id), &cached)
	if err != nil {
		// The counter is advisory; a broken cache degrades to a store read.
		logger.Warn("stock cache read failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
		found = false
	}
	if found {
		return floor(cached), nil
	}

	return s.Refresh(ctx, id)
}

// Refresh implements ServiceInterface.Refresh
func (s *ProductService) Refresh(ctx context.Context, id int64) (int64, error) {
	available, err := s.repo.AvailableStock(ctx, id)
	if err != nil {
		return 0, err
	}
	available = floor(available)

	if err := s.cache.Set(ctx, stockKey(id), available, s.cacheTTL); err != nil {
		logger.Warn("stock cache refresh write failed", map[string]interface{}{
			"product_id": id,
			"error":      err.Error(),
		})
	}

	return available, nil
}

// Cached implements ServiceInterface.Cached
func (s *ProductService) Cached(ctx context.Context, id int64) (int64, bool, error) {
	var cached int64
	found, err := s.cache.Get(ctx, stockKey(id), &cached)
	if err != nil {
		return 0, false, err
	}
	return cached, found, nil
}

// Overwrite implements ServiceInterface.Overwrite
func (s *ProductService) Overwrite(ctx context.Context, id int64, value int64) error {
	return s.cache.Set(ctx, stockKey(id), floor(value), s.cacheTTL)
}

// Increment implements ServiceInterface.Increment
func (s *ProductService) Increment(ctx context.Context, id int64, qty int64) (bool, error) {
	return s.adjust(ctx, id, qty)
}

// Decrement implements ServiceInterface.Decrement
func (s *ProductService) Decrement(ctx context.Context, id int64, qty int64) (bool, error) {
	return s.adjust(ctx, id, -qty)
}

// adjust applies a signed counter delta. The cache only writes while the
// key is live, so an expired counter is never resurrected without a TTL;
// the next read rebuilds it through Refresh.
func (s *ProductService) adjust(ctx context.Context, id, delta int64) (bool, error) {
	_, applied, err := s.cache.IncrByIfExists(ctx, stockKey(id), delta)
	if err != nil {
		return false, err
	}
	return applied, nil
}

func floor(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
