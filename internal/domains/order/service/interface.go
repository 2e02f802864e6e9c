package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"flashsale-backend/internal/domains/order/model"
)

// ServiceInterface is the order manager: converting holds into orders
// and settling them. The settlement methods run inside a caller-owned
// transaction so webhook processing can commit its log row and the
// status change atomically.
type ServiceInterface interface {
	// CreateFromHold converts an active hold into a pending_payment
	// order, in one transaction under the hold's row lock. The amount is
	// fixed there: hold qty times the current product price.
	// Returns ErrHoldNotFound, ErrHoldAlreadyUsed, ErrHoldReleased or
	// ErrHoldExpired.
	CreateFromHold(ctx context.Context, holdID int64) (*model.Order, error)

	// MarkPaidTx settles an order as paid under its row lock, advancing
	// the product's sold counter in the same transaction. Already paid is
	// a no-op returning the order; cancelled fails with
	// ErrInvalidTransition.
	MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error)

	// CancelTx settles an order as cancelled under its row lock. Already
	// cancelled is a no-op returning the order; paid fails with
	// ErrCannotCancelPaid. The hold behind the order stays used here:
	// callers release it through the hold manager after their transaction
	// commits, because the release runs in its own transaction and must
	// observe the cancelled status.
	CancelTx(ctx context.Context, tx pgx.Tx, orderID int64) (*model.Order, error)
}
