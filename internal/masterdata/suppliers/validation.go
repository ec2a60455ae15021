package suppliers

import (
	"fmt"
	"strings"

	"github.com/tillpoint/tillpoint/internal/shared"
)

func normalize(in Input) (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ContactPerson = strings.TrimSpace(in.ContactPerson)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Address = strings.TrimSpace(in.Address)
	if in.StoreID == "" {
		return in, fmt.Errorf("%w: storeId is required", shared.ErrValidation)
	}
	if in.Name == "" {
		return in, fmt.Errorf("%w: supplier name is required", shared.ErrValidation)
	}
	if in.Email != "" && !strings.Contains(in.Email, "@") {
		return in, fmt.Errorf("%w: supplier email is invalid", shared.ErrValidation)
	}
	return in, nil
}
