package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/config"
	"flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/domains/hold/repository"
	productRepo "flashsale-backend/internal/domains/product/repository"
	productService "flashsale-backend/internal/domains/product/service"
	"flashsale-backend/internal/infrastructure/lock"
	"flashsale-backend/pkg/database"
	"flashsale-backend/pkg/logger"
)

type HoldService struct {
	db       database.TxBeginner
	holds    repository.RepositoryInterface
	products productRepo.RepositoryInterface
	stock    productService.ServiceInterface
	locker   lock.Locker
	cfg      config.CheckoutConfig
}

// NewService creates a new hold service
func NewService(
	db database.TxBeginner,
	holds repository.RepositoryInterface,
	products productRepo.RepositoryInterface,
	stock productService.ServiceInterface,
	locker lock.Locker,
	cfg config.CheckoutConfig,
) ServiceInterface {
	return &HoldService{
		db:       db,
		holds:    holds,
		products: products,
		stock:    stock,
		locker:   locker,
		cfg:      cfg,
	}
}

// CreateHold implements ServiceInterface.CreateHold
func (s *HoldService) CreateHold(ctx context.Context, productID, qty int64) (*model.Hold, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: qty=%d", model.ErrInvalidQty, qty)
	}

	var hold *model.Hold
	var err error
	for attempt := 1; attempt <= s.cfg.DeadlockRetries; attempt++ {
		hold, err = s.createAttempt(ctx, productID, qty)
		if err == nil || !database.IsDeadlock(err) {
			return hold, err
		}

		logger.Warn("hold creation deadlocked, backing off", map[string]interface{}{
			"product_id": productID,
			"attempt":    attempt,
		})
		if werr := s.backoff(ctx, attempt); werr != nil {
			return nil, fmt.Errorf("hold creation cancelled: %w", werr)
		}
	}

	return nil, model.NewHighContentionError(err)
}

// createAttempt is one pass of hold creation: advisory product lock, row
// lock, authoritative availability check, insert, counter decrement.
func (s *HoldService) createAttempt(ctx context.Context, productID, qty int64) (*model.Hold, error) {
	plock, err := s.locker.Acquire(ctx, lock.ProductKey(productID), s.cfg.ProductLockWait, s.cfg.ProductLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, model.NewHighContentionError(err)
		}
		return nil, err
	}
	defer s.unlock(ctx, plock)

	return database.WithTransactionResult(ctx, s.db, func(tx pgx.Tx) (*model.Hold, error) {
		// The row lock is the correctness boundary; the advisory lock
		// above only thins the herd reaching it.
		if _, err := s.products.GetByIDForUpdate(ctx, tx, productID); err != nil {
			return nil, err
		}

		available, err := s.products.AvailableStockTx(ctx, tx, productID)
		if err != nil {
			return nil, err
		}
		if available < 0 {
			available = 0
		}

		// Heal the advisory counter while we hold the product lock.
		cached, found, cerr := s.stock.Cached(ctx, productID)
		if cerr != nil {
			logger.Warn("stock counter read failed during hold creation", map[string]interface{}{
				"product_id": productID,
				"error":      cerr.Error(),
			})
			found = false
		}
		if !found || cached != available {
			if oerr := s.stock.Overwrite(ctx, productID, available); oerr != nil {
				logger.Warn("stock counter overwrite failed", map[string]interface{}{
					"product_id": productID,
					"error":      oerr.Error(),
				})
			}
		}

		if available < qty {
			return nil, model.NewInsufficientStockError(productID, qty, available)
		}

		hold := &model.Hold{
			ProductID: productID,
			Qty:       qty,
			ExpiresAt: time.Now().UTC().Add(s.cfg.HoldTTL),
		}
		if err := s.holds.Insert(ctx, tx, hold); err != nil {
			return nil, err
		}

		if _, derr := s.stock.Decrement(ctx, productID, qty); derr != nil {
			logger.Warn("stock counter decrement failed", map[string]interface{}{
				"product_id": productID,
				"error":      derr.Error(),
			})
		}

		return hold, nil
	})
}

// ReleaseHold implements ServiceInterface.ReleaseHold
func (s *HoldService) ReleaseHold(ctx context.Context, holdID int64) (bool, error) {
	var out releaseOutcome
	var err error
	for attempt := 1; attempt <= s.cfg.DeadlockRetries; attempt++ {
		out, err = s.releaseAttempt(ctx, holdID)
		if err == nil || !database.IsDeadlock(err) {
			if err != nil {
				return false, err
			}
			if !out.released {
				return false, nil
			}
			// The store already reflects the release; failing to fix
			// the counter here only costs a future cache miss.
			s.restoreCounter(ctx, out.hold.ProductID, out.hold.Qty)
			return true, nil
		}

		logger.Warn("hold release deadlocked, backing off", map[string]interface{}{
			"hold_id": holdID,
			"attempt": attempt,
		})
		if werr := s.backoff(ctx, attempt); werr != nil {
			return false, fmt.Errorf("hold release cancelled: %w", werr)
		}
	}

	return false, model.NewHighContentionError(err)
}

type releaseOutcome struct {
	released bool
	hold     *model.Hold
}

func (s *HoldService) releaseAttempt(ctx context.Context, holdID int64) (releaseOutcome, error) {
	hlock, err := s.locker.Acquire(ctx, lock.HoldKey(holdID), s.cfg.HoldLockWait, s.cfg.HoldLockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return releaseOutcome{}, model.NewHighContentionError(err)
		}
		return releaseOutcome{}, err
	}
	defer s.unlock(ctx, hlock)

	return database.WithTransactionResult(ctx, s.db, func(tx pgx.Tx) (releaseOutcome, error) {
		hw, err := s.holds.GetForRelease(ctx, tx, holdID)
		if err != nil {
			if model.IsNotFoundError(err) {
				return releaseOutcome{}, nil
			}
			return releaseOutcome{}, err
		}

		if hw.Hold.Released {
			return releaseOutcome{}, nil
		}
		if hw.Hold.Used && !hw.ReleasableAfterCancel() {
			return releaseOutcome{}, nil
		}

		if err := s.holds.MarkReleased(ctx, tx, hw.Hold.ID); err != nil {
			return releaseOutcome{}, err
		}

		return releaseOutcome{released: true, hold: &hw.Hold}, nil
	})
}

// restoreCounter gives the released quantity back to the advisory
// counter: increment under the product lock when the counter exists,
// otherwise recompute. Lock starvation degrades to a recompute. Never
// fails the release.
func (s *HoldService) restoreCounter(ctx context.Context, productID, qty int64) {
	plock, err := s.locker.Acquire(ctx, lock.ProductKey(productID), s.cfg.RestoreLockWait, s.cfg.RestoreLockTTL)
	if err != nil {
		if !errors.Is(err, lock.ErrNotAcquired) {
			logger.Warn("product lock failed during counter restore", map[string]interface{}{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
		s.refreshCounter(ctx, productID)
		return
	}
	defer s.unlock(ctx, plock)

	applied, err := s.stock.Increment(ctx, productID, qty)
	if err != nil {
		logger.Warn("stock counter increment failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
		return
	}
	if !applied {
		s.refreshCounter(ctx, productID)
	}
}

func (s *HoldService) refreshCounter(ctx context.Context, productID int64) {
	if _, err := s.stock.Refresh(ctx, productID); err != nil {
		logger.Warn("stock counter refresh failed", map[string]interface{}{
			"product_id": productID,
			"error":      err.Error(),
		})
	}
}

// ListExpired implements ServiceInterface.ListExpired
func (s *HoldService) ListExpired(ctx context.Context, afterID int64, limit int) ([]model.Hold, error) {
	return s.holds.ListExpiredActive(ctx, afterID, limit)
}

// backoff sleeps 2^attempt base units, so a 100ms base yields 200, 400,
// 800ms across three attempts.
func (s *HoldService) backoff(ctx context.Context, attempt int) error {
	delay := s.cfg.RetryBackoffBase * time.Duration(1<<attempt)
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *HoldService) unlock(ctx context.Context, lk lock.Lock) {
	if err := lk.Release(ctx); err != nil {
		logger.Warn("advisory lock release failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
