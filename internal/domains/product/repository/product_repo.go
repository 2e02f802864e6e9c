package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashsale-backend/internal/domains/product/model"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository creates a new product repository
func NewProductRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &ProductRepository{pool: pool}
}

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx, so the
// availability snapshot runs identically inside and outside a transaction.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const productColumns = `id, name, price, stock_total, stock_sold, created_at, updated_at`

// GetByID implements RepositoryInterface.GetByID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	return r.scanProduct(r.pool.QueryRow(ctx, query, id), id)
}

// GetByIDTx implements RepositoryInterface.GetByIDTx
func (r *ProductRepository) GetByIDTx(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1`

	return r.scanProduct(tx.QueryRow(ctx, query, id), id)
}

// GetByIDForUpdate implements RepositoryInterface.GetByIDForUpdate
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
		FOR UPDATE`

	return r.scanProduct(tx.QueryRow(ctx, query, id), id)
}

func (r *ProductRepository) scanProduct(row pgx.Row, id int64) (*model.Product, error) {
	var p model.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.StockTotal,
		&p.StockSold,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NewProductNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// availableStockQuery derives available stock in one statement so the two
// hold subqueries and the product counters come from the same snapshot.
// The subquery sets are disjoint: one counts used = FALSE, the other
// used = TRUE.
const availableStockQuery = `
	SELECT (
		p.stock_total - p.stock_sold
		- COALESCE((
			SELECT SUM(h.qty)
			FROM holds h
			WHERE h.product_id = p.id
			  AND h.used = FALSE
			  AND h.released = FALSE
			  AND h.expires_at > NOW()
		), 0)
		- COALESCE((
			SELECT SUM(h.qty)
			FROM holds h
			JOIN orders o ON o.hold_id = h.id
			WHERE h.product_id = p.id
			  AND h.used = TRUE
			  AND h.released = FALSE
			  AND o.status = 'pending_payment'
		), 0)
	)::BIGINT AS available
	FROM products p
	WHERE p.id = $1`

// AvailableStock implements RepositoryInterface.AvailableStock
func (r *ProductRepository) AvailableStock(ctx context.Context, id int64) (int64, error) {
	return r.availableStock(ctx, r.pool, id)
}

// AvailableStockTx implements RepositoryInterface.AvailableStockTx
func (r *ProductRepository) AvailableStockTx(ctx context.Context, tx pgx.Tx, id int64) (int64, error) {
	return r.availableStock(ctx, tx, id)
}

func (r *ProductRepository) availableStock(ctx context.Context, q rowQuerier, id int64) (int64, error) {
	var available int64
	err := q.QueryRow(ctx, availableStockQuery, id).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.NewProductNotFoundError(id)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to compute available stock: %w", err)
	}
	return available, nil
}

// IncrementStockSold implements RepositoryInterface.IncrementStockSold
func (r *ProductRepository) IncrementStockSold(ctx context.Context, tx pgx.Tx, id int64, qty int64) error {
	query := `
		UPDATE products
		SET stock_sold = stock_sold + $2,
		    updated_at = NOW()
		WHERE id = $1
		  AND stock_sold + $2 <= stock_total`

	tag, err := tx.Exec(ctx, query, id, qty)
	if err != nil {
		return fmt.Errorf("failed to increment stock_sold: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows means the product is gone or the guard rejected the
	// update; distinguish the two.
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check product existence: %w", err)
	}
	if !exists {
		return model.NewProductNotFoundError(id)
	}
	return fmt.Errorf("%w: product_id=%d qty=%d", model.ErrStockAccountingViolated, id, qty)
}
