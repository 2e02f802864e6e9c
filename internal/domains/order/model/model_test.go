package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_IsValid(t *testing.T) {
	assert.True(t, OrderStatusPendingPayment.IsValid())
	assert.True(t, OrderStatusPaid.IsValid())
	assert.True(t, OrderStatusCancelled.IsValid())

	assert.False(t, OrderStatus("refunded").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}

func TestOrder_ToResponse(t *testing.T) {
	order := Order{
		ID:        1001,
		HoldID:    42,
		Status:    OrderStatusPendingPayment,
		Amount:    decimal.RequireFromString("999.98"),
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
	}

	resp := order.ToResponse()

	assert.Equal(t, int64(1001), resp.ID)
	assert.Equal(t, int64(42), resp.HoldID)
	assert.Equal(t, "pending_payment", resp.Status)
	assert.Equal(t, "999.98", resp.Amount)
	assert.Equal(t, "2026-03-01T12:30:00Z", resp.CreatedAt)
}

func TestOrder_ToResponse_AmountAlwaysTwoDigits(t *testing.T) {
	whole := Order{Amount: decimal.NewFromInt(50)}
	assert.Equal(t, "50.00", whole.ToResponse().Amount)

	half := Order{Amount: decimal.RequireFromString("129.5")}
	assert.Equal(t, "129.50", half.ToResponse().Amount)
}

func TestCreateOrderRequest_Validate(t *testing.T) {
	assert.NoError(t, CreateOrderRequest{HoldID: 42}.Validate())

	assert.Error(t, CreateOrderRequest{}.Validate())
	assert.Error(t, CreateOrderRequest{HoldID: -1}.Validate())
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError(500, OrderStatusCancelled, OrderStatusPaid)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "cancelled -> paid")
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(NewOrderNotFoundError(500)))
	assert.False(t, IsNotFoundError(ErrCannotCancelPaid))
	assert.False(t, IsNotFoundError(nil))
}
