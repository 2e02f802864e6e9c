package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a flash-sale item, mapped to the products table.
// stock_total is fixed at seeding time; stock_sold only grows, and only
// when an order settles as paid.
type Product struct {
	ID         int64           `db:"id"`
	Name       string          `db:"name"`
	Price      decimal.Decimal `db:"price"`
	StockTotal int64           `db:"stock_total"`
	StockSold  int64           `db:"stock_sold"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
