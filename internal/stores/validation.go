package stores

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/shared"
)

var maxTaxRate = decimal.NewFromInt(100)

func normalize(in Input) (Input, error) {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if in.Code == "" {
		return in, fmt.Errorf("%w: store code is required", shared.ErrValidation)
	}
	if in.Name == "" {
		return in, fmt.Errorf("%w: store name is required", shared.ErrValidation)
	}
	if in.Currency == "" {
		in.Currency = defaultCurrency
	}
	if len(in.Currency) != 3 {
		return in, fmt.Errorf("%w: currency must be a 3-letter code", shared.ErrValidation)
	}
	if in.TaxRate.IsNegative() || in.TaxRate.GreaterThan(maxTaxRate) {
		return in, fmt.Errorf("%w: taxRate must be between 0 and 100", shared.ErrValidation)
	}
	return in, nil
}
