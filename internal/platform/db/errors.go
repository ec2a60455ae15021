package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tillpoint/tillpoint/internal/shared"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeInvalidText          = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// MapError translates driver errors into the shared error kinds. Errors that
// carry no domain meaning are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return shared.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%w: %s", shared.ErrDuplicate, constraintLabel(pgErr))
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", shared.ErrReferenced, constraintLabel(pgErr))
		case codeCheckViolation:
			return fmt.Errorf("%w: %s", shared.ErrValidation, constraintLabel(pgErr))
		case codeInvalidText:
			return fmt.Errorf("%w: %s", shared.ErrValidation, pgErr.Message)
		case codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %s", shared.ErrConcurrentUpdate, pgErr.Message)
		}
	}
	return err
}

func constraintLabel(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return pgErr.Message
}
