package shared

import "github.com/shopspring/decimal"

// MoneyTolerance is the largest difference accepted between a caller-supplied
// aggregate and the value recomputed from line items.
var MoneyTolerance = decimal.New(1, -2)

// PaymentStatus tracks settlement of a sale or purchase order.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
)

// PaymentStatusFor derives the status from the paid and total amounts.
func PaymentStatusFor(paid, total decimal.Decimal) PaymentStatus {
	switch {
	case paid.GreaterThanOrEqual(total):
		return PaymentPaid
	case paid.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// AmountsAgree reports whether supplied matches computed within MoneyTolerance.
func AmountsAgree(supplied, computed decimal.Decimal) bool {
	return supplied.Sub(computed).Abs().LessThanOrEqual(MoneyTolerance)
}

// RoundMoney rounds to minor units.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
