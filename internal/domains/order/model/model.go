package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents order status. pending_payment is the only
// non-terminal state; paid and cancelled are absorbing.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

func (os OrderStatus) IsValid() bool {
	switch os {
	case OrderStatusPendingPayment, OrderStatusPaid, OrderStatusCancelled:
		return true
	}
	return false
}

func (os OrderStatus) String() string {
	return string(os)
}

// Order is a purchase settled against exactly one hold, mapped to the
// orders table. Amount is fixed at creation: hold qty times the product
// price at that moment.
type Order struct {
	ID        int64           `db:"id"`
	HoldID    int64           `db:"hold_id"`
	Status    OrderStatus     `db:"status"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// OrderWithHold pairs an order with the hold fields settlement needs:
// which product to account against and how many units.
type OrderWithHold struct {
	Order     Order
	ProductID int64
	Qty       int64
}
