package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// maxTxAttempts bounds how often a transaction aborted by a serialization
// failure or deadlock is replayed.
const maxTxAttempts = 3

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx so repositories can run
// the same queries inside or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// WithTx executes fn within a ReadCommitted transaction. Stock counters are
// updated with relative increments whose guards re-evaluate against the
// latest committed row, so concurrent documents on one product serialize on
// the row lock instead of failing. A transaction still aborted with 40001 or
// 40P01 is replayed from the start; fn must therefore be safe to run again.
func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	return retryTx(ctx, maxTxAttempts, func() error {
		return runTx(ctx, pool, fn)
	})
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("platform/db: begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("platform/db: commit tx: %w", MapError(err))
	}

	return nil
}

// retryTx runs attempt until it succeeds, fails with a non-transient error,
// or the attempts are used up. Exhausted retries surface as a conflict.
func retryTx(ctx context.Context, attempts int, attempt func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = attempt()
		if err == nil || !Transient(err) {
			return err
		}
		if ctx.Err() != nil {
			break
		}
	}
	return MapError(err)
}

// Transient reports whether err is a serialization failure or deadlock that
// a fresh transaction may not hit again.
func Transient(err error) bool {
	if errors.Is(err, shared.ErrConcurrentUpdate) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeSerializationFailure || pgErr.Code == codeDeadlockDetected
	}
	return false
}
