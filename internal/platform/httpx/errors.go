package httpx

import (
	"net/http"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// StatusFor maps an error kind to the HTTP status used outside the bridge.
func StatusFor(err error) int {
	switch shared.ErrorKind(err) {
	case shared.KindNotFound:
		return http.StatusNotFound
	case shared.KindDuplicate, shared.KindConflict, shared.KindReferenced:
		return http.StatusConflict
	case shared.KindValidation:
		return http.StatusBadRequest
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as problem details.
func RespondError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	Problem(w, status, http.StatusText(status), shared.UserSafeMessage(err))
}
