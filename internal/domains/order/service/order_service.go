package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	holdModel "flashsale-backend/internal/domains/hold/model"
	holdRepo "flashsale-backend/internal/domains/hold/repository"
	"flashsale-backend/internal/domains/order/model"
	"flashsale-backend/internal/domains/order/repository"
	productRepo "flashsale-backend/internal/domains/product/repository"
	"flashsale-backend/pkg/database"
)

type OrderService struct {
	db       database.TxBeginner
	orders   repository.RepositoryInterface
	holds    holdRepo.RepositoryInterface
	products productRepo.RepositoryInterface
}

// NewService creates a new order service
func NewService(
	db database.TxBeginner,
	orders repository.RepositoryInterface,
	holds holdRepo.RepositoryInterface,
	products productRepo.RepositoryInterface,
) ServiceInterface {
	return &OrderService{
		db:       db,
		orders:   orders,
		holds:    holds,
		products: products,
	}
}

// CreateFromHold implements ServiceInterface.CreateFromHold
func (s *OrderService) CreateFromHold(ctx context.Context, holdID int64) (*model.Order, error) {
	return database.WithTransactionResult(ctx, s.db, func(tx pgx.Tx) (*model.Order, error) {
		hold, err := s.holds.GetByIDForUpdate(ctx, tx, holdID)
		if err != nil {
			return nil, err
		}

		// Reject with the most specific reason first: a used hold that
		// also expired is still "already used".
		switch {
		case hold.Used:
			return nil, fmt.Errorf("%w: hold_id=%d", holdModel.ErrHoldAlreadyUsed, holdID)
		case hold.Released:
			return nil, fmt.Errorf("%w: hold_id=%d", holdModel.ErrHoldReleased, holdID)
		case hold.IsExpired(time.Now().UTC()):
			return nil, fmt.Errorf("%w: hold_id=%d expires_at=%s",
				holdModel.ErrHoldExpired, holdID, hold.ExpiresAt.UTC().Format(time.RFC3339))
		}

		if err := s.holds.MarkUsed(ctx, tx, holdID); err != nil {
			return nil, err
		}

		product, err := s.products.GetByIDTx(ctx, tx, hold.ProductID)
		if err != nil {
			return nil, err
		}

		order := &model.Order{
			HoldID: holdID,
			Status: model.OrderStatusPendingPayment,
			Amount: product.Price.Mul(decimal.NewFromInt(hold.Qty)),
		}
		if err := s.orders.Insert(ctx, tx, order); err != nil {
			return nil, err
		}

		return order, nil
	})
}

// MarkPaidTx implements ServiceInterface.MarkPaidTx
func (s *OrderService) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error) {
	ow, err := s.orders.GetForSettlement(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	switch ow.Order.Status {
	case model.OrderStatusPaid:
		return &ow.Order, nil
	case model.OrderStatusCancelled:
		return nil, model.NewInvalidTransitionError(orderID, model.OrderStatusCancelled, model.OrderStatusPaid)
	}

	if err := s.orders.UpdateStatus(ctx, tx, orderID, model.OrderStatusPendingPayment, model.OrderStatusPaid); err != nil {
		return nil, err
	}

	// The guarded update serializes on the product row only until this
	// transaction commits; the product is never SELECT ... FOR UPDATE
	// locked here.
	if err := s.products.IncrementStockSold(ctx, tx, ow.ProductID, ow.Qty); err != nil {
		return nil, err
	}

	ow.Order.Status = model.OrderStatusPaid
	return &ow.Order, nil
}

// CancelTx implements ServiceInterface.CancelTx
func (s *OrderService) CancelTx(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error) {
	ow, err := s.orders.GetForSettlement(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	switch ow.Order.Status {
	case model.OrderStatusCancelled:
		return &ow.Order, nil
	case model.OrderStatusPaid:
		return nil, fmt.Errorf("%w: order_id=%d", model.ErrCannotCancelPaid, orderID)
	}

	if err := s.orders.UpdateStatus(ctx, tx, orderID, model.OrderStatusPendingPayment, model.OrderStatusCancelled); err != nil {
		return nil, err
	}

	ow.Order.Status = model.OrderStatusCancelled
	return &ow.Order, nil
}
