package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxBeginner starts transactions. *pgxpool.Pool satisfies it; services
// depend on this instead of the pool type itself.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxFunc is executed inside a transaction.
type TxFunc func(pgx.Tx) error

// WithTransaction runs fn inside a transaction. Rolls back on error or
// panic, commits otherwise.
func WithTransaction(ctx context.Context, db TxBeginner, fn TxFunc) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WithTransactionResult runs a value-returning fn inside a transaction.
func WithTransactionResult[T any](ctx context.Context, db TxBeginner, fn func(pgx.Tx) (T, error)) (T, error) {
	var result T
	var fnErr error

	err := WithTransaction(ctx, db, func(tx pgx.Tx) error {
		result, fnErr = fn(tx)
		return fnErr
	})

	if err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// Postgres reports serialization failures as 40001 and deadlocks as 40P01.
// 1213 is the MySQL deadlock code, seen when a proxy relays it verbatim.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeMySQLDeadlock        = "1213"
)

// IsDeadlock reports whether err is a transient lock conflict worth retrying.
func IsDeadlock(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeMySQLDeadlock:
			return true
		}
	}

	// Some pool proxies flatten the error before it reaches us. The codes
	// are matched with their reporting prefix so ids or ports that happen
	// to contain the digits do not trigger a retry.
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE "+codeSerializationFailure) ||
		strings.Contains(msg, "SQLSTATE "+codeDeadlockDetected) ||
		strings.Contains(msg, "Error "+codeMySQLDeadlock) ||
		strings.Contains(msg, "ERROR "+codeMySQLDeadlock) ||
		strings.Contains(msg, "deadlock detected")
}

// IsUniqueViolation reports whether err is a unique constraint violation,
// optionally narrowed to a specific constraint name.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
