package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness violation.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrReferenced indicates a delete blocked by dependent documents.
	ErrReferenced = errors.New("resource is still referenced")
	// ErrUnauthorized indicates a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the actor lacks a permission or store access.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConcurrentUpdate indicates a transaction lost a race after retries.
	ErrConcurrentUpdate = errors.New("concurrent update, please retry")
)

// Error kinds reported to bridge clients.
const (
	KindValidation   = "VALIDATION"
	KindReferenced   = "REFERENCED"
	KindNotFound     = "NOT_FOUND"
	KindDuplicate    = "DUPLICATE"
	KindUnauthorized = "UNAUTHORIZED"
	KindForbidden    = "FORBIDDEN"
	KindConflict     = "CONFLICT"
	KindInternal     = "INTERNAL"
)

// ErrorKind classifies err into one of the Kind constants.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrReferenced):
		return KindReferenced
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindDuplicate
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrIdempotencyConflict), errors.Is(err, ErrConcurrentUpdate):
		return KindConflict
	default:
		return KindInternal
	}
}

// UserSafeMessage returns err's message for known kinds and a generic text otherwise.
func UserSafeMessage(err error) string {
	if err == nil {
		return ""
	}
	if ErrorKind(err) == KindInternal {
		return "An unexpected error occurred. Please try again."
	}
	return err.Error()
}
