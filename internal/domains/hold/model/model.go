package model

import (
	"time"
)

// Hold is a time-bounded reservation of product stock, mapped to the
// holds table. A fresh hold moves into exactly one of used (an order was
// created from it) or released (given back, by hand or by the sweeper);
// both flags are monotone once set and never both true.
type Hold struct {
	ID        int64     `db:"id"`
	ProductID int64     `db:"product_id"`
	Qty       int64     `db:"qty"`
	ExpiresAt time.Time `db:"expires_at"`
	Used      bool      `db:"used"`
	Released  bool      `db:"released"`
	CreatedAt time.Time `db:"created_at"`
}

// IsExpired reports whether the hold's TTL has elapsed.
func (h *Hold) IsExpired(now time.Time) bool {
	return !h.ExpiresAt.After(now)
}

// IsActive reports whether the hold still reserves stock: not used, not
// released, not expired.
func (h *Hold) IsActive(now time.Time) bool {
	return !h.Used && !h.Released && h.ExpiresAt.After(now)
}

// HoldWithOrder pairs a hold with the status of the order created from
// it, nil when no order exists yet.
type HoldWithOrder struct {
	Hold        Hold
	OrderStatus *string
}

// ReleasableAfterCancel reports whether a used hold may still be released
// because the order created from it was cancelled. Used holds with a live
// or paid order stay untouchable.
func (hw *HoldWithOrder) ReleasableAfterCancel() bool {
	return hw.Hold.Used && !hw.Hold.Released &&
		hw.OrderStatus != nil && *hw.OrderStatus == "cancelled"
}
