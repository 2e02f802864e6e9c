package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHold_IsExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	future := Hold{ExpiresAt: now.Add(time.Minute)}
	past := Hold{ExpiresAt: now.Add(-time.Minute)}
	exact := Hold{ExpiresAt: now}

	assert.False(t, future.IsExpired(now))
	assert.True(t, past.IsExpired(now))
	// The boundary instant counts as expired.
	assert.True(t, exact.IsExpired(now))
}

func TestHold_IsActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	live := now.Add(time.Minute)

	tests := []struct {
		name string
		hold Hold
		want bool
	}{
		{"fresh and live", Hold{ExpiresAt: live}, true},
		{"used", Hold{ExpiresAt: live, Used: true}, false},
		{"released", Hold{ExpiresAt: live, Released: true}, false},
		{"expired", Hold{ExpiresAt: now.Add(-time.Second)}, false},
		{"used and expired", Hold{ExpiresAt: now.Add(-time.Second), Used: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hold.IsActive(now))
		})
	}
}

func TestHoldWithOrder_ReleasableAfterCancel(t *testing.T) {
	status := func(s string) *string { return &s }

	tests := []struct {
		name string
		hw   HoldWithOrder
		want bool
	}{
		{"used with cancelled order", HoldWithOrder{Hold: Hold{Used: true}, OrderStatus: status("cancelled")}, true},
		{"used with pending order", HoldWithOrder{Hold: Hold{Used: true}, OrderStatus: status("pending_payment")}, false},
		{"used with paid order", HoldWithOrder{Hold: Hold{Used: true}, OrderStatus: status("paid")}, false},
		{"used without order row", HoldWithOrder{Hold: Hold{Used: true}}, false},
		{"fresh hold", HoldWithOrder{Hold: Hold{}, OrderStatus: status("cancelled")}, false},
		{"already released", HoldWithOrder{Hold: Hold{Used: true, Released: true}, OrderStatus: status("cancelled")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.hw.ReleasableAfterCancel())
		})
	}
}

func TestHold_ToResponse(t *testing.T) {
	loc := time.FixedZone("UTC+7", 7*3600)
	hold := Hold{
		ID:        42,
		ExpiresAt: time.Date(2026, 3, 1, 19, 30, 0, 0, loc),
	}

	resp := hold.ToResponse()

	assert.Equal(t, int64(42), resp.HoldID)
	// Always rendered in UTC regardless of the stored zone.
	assert.Equal(t, "2026-03-01T12:30:00Z", resp.ExpiresAt)
}

func TestCreateHoldRequest_Validate(t *testing.T) {
	assert.NoError(t, CreateHoldRequest{ProductID: 1, Qty: 3}.Validate())

	assert.Error(t, CreateHoldRequest{Qty: 3}.Validate())
	assert.Error(t, CreateHoldRequest{ProductID: 1}.Validate())
	assert.Error(t, CreateHoldRequest{ProductID: -1, Qty: 3}.Validate())
	assert.Error(t, CreateHoldRequest{ProductID: 1, Qty: -2}.Validate())
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsNotFoundError(NewHoldNotFoundError(7)))
	assert.False(t, IsNotFoundError(ErrHoldExpired))

	contention := NewHighContentionError(assert.AnError)
	assert.True(t, IsContentionError(contention))
	assert.False(t, IsContentionError(ErrInsufficientStock))

	insufficient := NewInsufficientStockError(1, 5, 2)
	assert.ErrorIs(t, insufficient, ErrInsufficientStock)
	assert.Contains(t, insufficient.Error(), "requested=5")
	assert.Contains(t, insufficient.Error(), "available=2")
}
