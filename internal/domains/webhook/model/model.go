package model

import (
	"encoding/json"
	"time"
)

// WebhookStatus is the lifecycle of a webhook_logs row. processed means
// the payload's effect has been applied to the order; pending_order means
// the webhook arrived before the order existed and waits for
// reconciliation.
type WebhookStatus string

const (
	StatusProcessed    WebhookStatus = "processed"
	StatusPendingOrder WebhookStatus = "pending_order"
)

func (ws WebhookStatus) IsValid() bool {
	switch ws {
	case StatusProcessed, StatusPendingOrder:
		return true
	}
	return false
}

func (ws WebhookStatus) String() string {
	return string(ws)
}

// PaymentStatus is the outcome the upstream payment system reports.
type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (ps PaymentStatus) IsValid() bool {
	switch ps {
	case PaymentStatusSuccess, PaymentStatusFailed:
		return true
	}
	return false
}

// WebhookLog is one received webhook delivery, mapped to the webhook_logs
// table. The unique idempotency_key is the idempotency primitive: a second
// delivery with the same key hits the unique index instead of re-applying
// the payload. Payload keeps the raw request body so reconciliation can
// replay it later.
type WebhookLog struct {
	ID             int64           `db:"id"`
	IdempotencyKey string          `db:"idempotency_key"`
	Payload        json.RawMessage `db:"payload"`
	Status         WebhookStatus   `db:"status"`
	ProcessedAt    *time.Time      `db:"processed_at"`
	CreatedAt      time.Time       `db:"created_at"`
}
