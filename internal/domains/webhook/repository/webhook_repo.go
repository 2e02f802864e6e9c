package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"flashsale-backend/internal/domains/webhook/model"
	"flashsale-backend/pkg/database"
)

// idempotencyKeyConstraint is the unique index enforcing one log per key.
const idempotencyKeyConstraint = "webhook_logs_idempotency_key_key"

type WebhookRepository struct {
	pool *pgxpool.Pool
}

// NewWebhookRepository creates a new webhook log repository
func NewWebhookRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &WebhookRepository{pool: pool}
}

// GetByKey implements RepositoryInterface.GetByKey
func (r *WebhookRepository) GetByKey(ctx context.Context, tx pgx.Tx, key string) (*model.WebhookLog, error) {
	query := `
		SELECT id, idempotency_key, payload, status, processed_at, created_at
		FROM webhook_logs
		WHERE idempotency_key = $1`

	var log model.WebhookLog
	err := tx.QueryRow(ctx, query, key).Scan(
		&log.ID,
		&log.IdempotencyKey,
		&log.Payload,
		&log.Status,
		&log.ProcessedAt,
		&log.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: key=%s", model.ErrLogNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get webhook log by key: %w", err)
	}
	return &log, nil
}

// Insert implements RepositoryInterface.Insert
func (r *WebhookRepository) Insert(ctx context.Context, tx pgx.Tx, log *model.WebhookLog) error {
	query := `
		INSERT INTO webhook_logs (idempotency_key, payload, status, processed_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := tx.QueryRow(ctx, query, log.IdempotencyKey, log.Payload, log.Status, log.ProcessedAt).
		Scan(&log.ID, &log.CreatedAt)
	if database.IsUniqueViolation(err, idempotencyKeyConstraint) {
		return fmt.Errorf("%w: key=%s", model.ErrDuplicateKey, log.IdempotencyKey)
	}
	if err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}
	return nil
}

// ListPendingOrder implements RepositoryInterface.ListPendingOrder
func (r *WebhookRepository) ListPendingOrder(ctx context.Context) ([]model.WebhookLog, error) {
	query := `
		SELECT id, idempotency_key, payload, status, processed_at, created_at
		FROM webhook_logs
		WHERE status = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, model.StatusPendingOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []model.WebhookLog
	for rows.Next() {
		var log model.WebhookLog
		if err := rows.Scan(
			&log.ID,
			&log.IdempotencyKey,
			&log.Payload,
			&log.Status,
			&log.ProcessedAt,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate webhook logs: %w", err)
	}
	return logs, nil
}

// MarkProcessed implements RepositoryInterface.MarkProcessed
func (r *WebhookRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	query := `
		UPDATE webhook_logs
		SET status = $2,
		    processed_at = NOW()
		WHERE id = $1
		  AND status = $3`

	tag, err := tx.Exec(ctx, query, id, model.StatusProcessed, model.StatusPendingOrder)
	if err != nil {
		return fmt.Errorf("failed to mark webhook log processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("webhook log %d is no longer pending", id)
	}
	return nil
}
