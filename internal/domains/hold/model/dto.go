package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// CreateHoldRequest is the payload for POST /api/v1/holds.
type CreateHoldRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int64 `json:"qty"`
}

func (r CreateHoldRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProductID, validation.Required, validation.Min(1)),
		validation.Field(&r.Qty, validation.Required, validation.Min(1)),
	)
}

// HoldResponse is the 201 payload for a created hold. ExpiresAt is
// ISO-8601 in UTC.
type HoldResponse struct {
	HoldID    int64  `json:"hold_id"`
	ExpiresAt string `json:"expires_at"`
}

func (h *Hold) ToResponse() HoldResponse {
	return HoldResponse{
		HoldID:    h.ID,
		ExpiresAt: h.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// ReleaseHoldPayload is the task payload for hold:release.
type ReleaseHoldPayload struct {
	HoldID int64 `json:"hold_id"`
}

// ExpireHoldsSweepPayload is the task payload for hold:expire_sweep.
type ExpireHoldsSweepPayload struct{}
