package bridge

import (
	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func init() {
	// The UI reads amounts as numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Envelope is the response shape of every operation.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK wraps a successful result.
func OK(data any) Envelope {
	return Envelope{Success: true, Data: data}
}

// Fail wraps err with its kind. Internal errors carry a generic message.
func Fail(err error) Envelope {
	return Envelope{Success: false, Error: shared.UserSafeMessage(err), Code: shared.ErrorKind(err)}
}
