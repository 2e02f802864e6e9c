package model

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound is returned when the product row does not exist
	ErrProductNotFound = errors.New("product not found")

	// ErrStockAccountingViolated is returned when a settlement would push
	// stock_sold past stock_total; under the oversell guard this cannot
	// happen and indicates corrupted accounting
	ErrStockAccountingViolated = errors.New("stock_sold would exceed stock_total")
)

// NewProductNotFoundError creates a detailed not found error
func NewProductNotFoundError(id int64) error {
	return fmt.Errorf("%w: id=%d", ErrProductNotFound, id)
}

// IsNotFoundError checks if error is a product not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}
