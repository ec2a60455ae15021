package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func TestRetryTxReplaysSerializationFailure(t *testing.T) {
	calls := 0
	err := retryTx(context.Background(), maxTxAttempts, func() error {
		calls++
		if calls == 1 {
			return fmt.Errorf("adjust stock: %w", &pgconn.PgError{Code: "40001", Message: "could not serialize access"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestRetryTxReplaysMappedDeadlock(t *testing.T) {
	calls := 0
	err := retryTx(context.Background(), maxTxAttempts, func() error {
		calls++
		if calls < 3 {
			return MapError(&pgconn.PgError{Code: "40P01", Message: "deadlock detected"})
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryTxExhaustedIsConflict(t *testing.T) {
	calls := 0
	err := retryTx(context.Background(), maxTxAttempts, func() error {
		calls++
		return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
	})
	require.Equal(t, maxTxAttempts, calls)
	require.ErrorIs(t, err, shared.ErrConcurrentUpdate)
	require.Equal(t, shared.KindConflict, shared.ErrorKind(err))
}

func TestRetryTxDoesNotReplayDomainErrors(t *testing.T) {
	calls := 0
	want := fmt.Errorf("%w: product p1", shared.ErrNotFound)
	err := retryTx(context.Background(), maxTxAttempts, func() error {
		calls++
		return want
	})
	require.Same(t, want, err)
	require.Equal(t, 1, calls)
}

func TestRetryTxStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retryTx(ctx, maxTxAttempts, func() error {
		calls++
		cancel()
		return &pgconn.PgError{Code: "40001"}
	})
	require.Equal(t, 1, calls)
	require.ErrorIs(t, err, shared.ErrConcurrentUpdate)
}

func TestTransient(t *testing.T) {
	require.True(t, Transient(&pgconn.PgError{Code: "40001"}))
	require.True(t, Transient(&pgconn.PgError{Code: "40P01"}))
	require.True(t, Transient(fmt.Errorf("wrap: %w", shared.ErrConcurrentUpdate)))
	require.False(t, Transient(&pgconn.PgError{Code: "23505"}))
	require.False(t, Transient(errors.New("conn reset")))
}
