package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// WebhookRequest is the payload for POST /api/v1/payments/webhook. The
// same shape is parsed back out of stored payloads during reconciliation.
type WebhookRequest struct {
	OrderID        int64  `json:"order_id"`
	PaymentStatus  string `json:"payment_status"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Validate checks field presence only. The payment_status value is
// checked by the service so an unknown value maps to its own error kind
// instead of a generic validation failure.
func (r WebhookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.OrderID, validation.Required, validation.Min(1)),
		validation.Field(&r.PaymentStatus, validation.Required),
		validation.Field(&r.IdempotencyKey, validation.Required, validation.Length(1, 255)),
	)
}

// ResultStatus is the informational outcome of handling one delivery.
type ResultStatus string

const (
	ResultSuccess          ResultStatus = "success"
	ResultFailed           ResultStatus = "failed"
	ResultAlreadyProcessed ResultStatus = "already_processed"
	ResultPendingOrder     ResultStatus = "pending_order"
)

// Result is what webhook handling reports back to the caller. Every
// outcome is a 200; the status tells the upstream system whether the
// delivery changed anything.
type Result struct {
	Status  ResultStatus
	OrderID int64
}

// WebhookResponse is the 200 payload for a handled delivery.
type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id,omitempty"`
}

var resultMessages = map[ResultStatus]string{
	ResultSuccess:          "payment recorded, order marked paid",
	ResultFailed:           "payment failure recorded, order cancelled",
	ResultAlreadyProcessed: "duplicate delivery, already handled",
	ResultPendingOrder:     "order not created yet, webhook parked for reconciliation",
}

func (r *Result) ToResponse() WebhookResponse {
	return WebhookResponse{
		Status:  string(r.Status),
		Message: resultMessages[r.Status],
		OrderID: r.OrderID,
	}
}
