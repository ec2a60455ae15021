package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		shared.ErrNotFound:                           http.StatusNotFound,
		fmt.Errorf("%w: sku", shared.ErrDuplicate):   http.StatusConflict,
		fmt.Errorf("wrap: %w", shared.ErrReferenced): http.StatusConflict,
		shared.ErrValidation:                         http.StatusBadRequest,
		shared.ErrForbidden:                          http.StatusForbidden,
		shared.ErrInvalidCredentials:                 http.StatusUnauthorized,
		errors.New("boom"):                           http.StatusInternalServerError,
	}
	for err, want := range cases {
		require.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
	require.NotContains(t, rr.Body.String(), "connection refused")
}
