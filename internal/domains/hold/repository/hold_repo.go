package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashsale-backend/internal/domains/hold/model"
)

type HoldRepository struct {
	pool *pgxpool.Pool
}

// NewHoldRepository creates a new hold repository
func NewHoldRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &HoldRepository{pool: pool}
}

// Insert implements RepositoryInterface.Insert
func (r *HoldRepository) Insert(ctx context.Context, tx pgx.Tx, hold *model.Hold) error {
	query := `
		INSERT INTO holds (product_id, qty, expires_at, used, released)
		VALUES ($1, $2, $3, FALSE, FALSE)
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query, hold.ProductID, hold.Qty, hold.ExpiresAt).
		Scan(&hold.ID, &hold.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert hold: %w", err)
	}
	return nil
}

// GetByIDForUpdate implements RepositoryInterface.GetByIDForUpdate
func (r *HoldRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*model.Hold, error) {
	query := `
		SELECT id, product_id, qty, expires_at, used, released, created_at
		FROM holds
		WHERE id = $1
		FOR UPDATE`

	var h model.Hold
	err := tx.QueryRow(ctx, query, id).Scan(
		&h.ID,
		&h.ProductID,
		&h.Qty,
		&h.ExpiresAt,
		&h.Used,
		&h.Released,
		&h.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NewHoldNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	return &h, nil
}

// GetForRelease implements RepositoryInterface.GetForRelease
func (r *HoldRepository) GetForRelease(ctx context.Context, tx pgx.Tx, id int64) (*model.HoldWithOrder, error) {
	query := `
		SELECT h.id, h.product_id, h.qty, h.expires_at, h.used, h.released, h.created_at,
		       o.status
		FROM holds h
		LEFT JOIN orders o ON o.hold_id = h.id
		WHERE h.id = $1
		FOR UPDATE OF h`

	var hw model.HoldWithOrder
	err := tx.QueryRow(ctx, query, id).Scan(
		&hw.Hold.ID,
		&hw.Hold.ProductID,
		&hw.Hold.Qty,
		&hw.Hold.ExpiresAt,
		&hw.Hold.Used,
		&hw.Hold.Released,
		&hw.Hold.CreatedAt,
		&hw.OrderStatus,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.NewHoldNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hold for release: %w", err)
	}
	return &hw, nil
}

// MarkUsed implements RepositoryInterface.MarkUsed
func (r *HoldRepository) MarkUsed(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE holds
		SET used = TRUE
		WHERE id = $1
		  AND used = FALSE
		  AND released = FALSE`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark hold used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hold %d changed state under the row lock", id)
	}
	return nil
}

// MarkReleased implements RepositoryInterface.MarkReleased
func (r *HoldRepository) MarkReleased(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE holds
		SET released = TRUE
		WHERE id = $1
		  AND released = FALSE`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark hold released: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("hold %d changed state under the row lock", id)
	}
	return nil
}

// ListExpiredActive implements RepositoryInterface.ListExpiredActive
func (r *HoldRepository) ListExpiredActive(ctx context.Context, afterID int64, limit int) ([]model.Hold, error) {
	query := `
		SELECT id, product_id, qty, expires_at, used, released, created_at
		FROM holds
		WHERE expires_at <= NOW()
		  AND used = FALSE
		  AND released = FALSE
		  AND id > $1
		ORDER BY id
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired holds: %w", err)
	}
	defer rows.Close()

	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		if err := rows.Scan(
			&h.ID,
			&h.ProductID,
			&h.Qty,
			&h.ExpiresAt,
			&h.Used,
			&h.Released,
			&h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan expired hold: %w", err)
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read expired holds: %w", err)
	}

	return holds, nil
}
