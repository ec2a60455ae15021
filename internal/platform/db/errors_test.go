package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func TestMapError(t *testing.T) {
	require.NoError(t, MapError(nil))
	require.ErrorIs(t, MapError(pgx.ErrNoRows), shared.ErrNotFound)
	require.ErrorIs(t, MapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), shared.ErrNotFound)

	dup := MapError(&pgconn.PgError{Code: "23505", ConstraintName: "products_store_sku_key"})
	require.ErrorIs(t, dup, shared.ErrDuplicate)
	require.Contains(t, dup.Error(), "products_store_sku_key")

	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "23503", Message: "fk"}), shared.ErrReferenced)
	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "23514"}), shared.ErrValidation)
	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}), shared.ErrValidation)

	serial := MapError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	require.ErrorIs(t, serial, shared.ErrConcurrentUpdate)
	require.Equal(t, shared.KindConflict, shared.ErrorKind(serial))
	require.ErrorIs(t, MapError(&pgconn.PgError{Code: "40P01"}), shared.ErrConcurrentUpdate)

	other := errors.New("conn reset")
	require.Same(t, other, MapError(other))
}
