package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateOrderRequest is the payload for POST /api/v1/orders.
type CreateOrderRequest struct {
	HoldID int64 `json:"hold_id"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.HoldID, validation.Required, validation.Min(1)),
	)
}

// OrderResponse is the API view of an order. Amount carries exactly two
// fractional digits; CreatedAt is ISO-8601 in UTC.
type OrderResponse struct {
	ID        int64  `json:"id"`
	HoldID    int64  `json:"hold_id"`
	Status    string `json:"status"`
	Amount    string `json:"amount"`
	CreatedAt string `json:"created_at"`
}

func (o *Order) ToResponse() OrderResponse {
	return OrderResponse{
		ID:        o.ID,
		HoldID:    o.HoldID,
		Status:    o.Status.String(),
		Amount:    o.Amount.StringFixed(2),
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
