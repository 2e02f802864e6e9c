package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashsale-backend/internal/domains/order/model"
)

type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &OrderRepository{pool: pool}
}

// Insert implements RepositoryInterface.Insert
func (r *OrderRepository) Insert(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (hold_id, status, amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(ctx, query, order.HoldID, order.Status, order.Amount).
		Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetForSettlement implements RepositoryInterface.GetForSettlement
func (r *OrderRepository) GetForSettlement(ctx context.Context, tx pgx.Tx, id int64) (*model.OrderWithHold, error) {
	query := `
		SELECT o.id, o.hold_id, o.status, o.amount, o.created_at, o.updated_at,
		       h.product_id, h.qty
		FROM orders o
		JOIN holds h ON h.id = o.hold_id
		WHERE o.id = $1
		FOR UPDATE OF o`

	var ow model.OrderWithHold
	err := tx.QueryRow(ctx, query, id).Scan(
		&ow.Order.ID,
		&ow.Order.HoldID,
		&ow.Order.Status,
		&ow.Order.Amount,
		&ow.Order.CreatedAt,
		&ow.Order.UpdatedAt,
		&ow.ProductID,
		&ow.Qty,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NewOrderNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order for settlement: %w", err)
	}
	return &ow, nil
}

// Exists implements RepositoryInterface.Exists
func (r *OrderRepository) Exists(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`

	var exists bool
	if err := tx.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order existence: %w", err)
	}
	return exists, nil
}

// UpdateStatus implements RepositoryInterface.UpdateStatus
func (r *OrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to model.OrderStatus) error {
	query := `
		UPDATE orders
		SET status = $3,
		    updated_at = NOW()
		WHERE id = $1
		  AND status = $2`

	tag, err := tx.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d changed state under the row lock", id)
	}
	return nil
}
