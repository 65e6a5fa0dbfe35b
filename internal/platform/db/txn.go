package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medibed/medibed/internal/platform/apperror"
)

// DefaultTxRetries bounds automatic re-runs of a transaction that lost a
// serialization or deadlock race. Logical conflicts (CAS misses, duplicate
// keys) are never retried here; those surface to the caller unchanged.
const DefaultTxRetries = 3

// Postgres SQLSTATE codes for transient transaction conflicts.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// RunInTx executes fn inside a transaction. The whole unit commits or none of
// it does. When the store aborts the transaction because a concurrent writer
// won (serialization failure or deadlock), the transaction is re-run up to
// maxRetries times with a short backoff; after that the error surfaces as a
// Conflict so callers know the operation did not happen.
func RunInTx(ctx context.Context, pool *pgxpool.Pool, maxRetries int, fn func(tx pgx.Tx) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}

		err := runOnce(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}
		lastErr = err
	}

	return apperror.Wrap(apperror.KindConflict, "concurrent writes exceeded retry budget", lastErr)
}

func runOnce(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return apperror.Unavailable("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// IsRetryable reports whether err is a transient transaction conflict worth
// re-running (Postgres serialization failure or deadlock).
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}

// IsUniqueViolation reports whether err is a unique-constraint violation,
// used by stores to turn duplicate bed ids into Conflict errors.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505"
}
