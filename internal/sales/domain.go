package sales

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// Item is one sold line, embedded in the sale document. ProductName and
// CostPrice are snapshots taken at checkout.
type Item struct {
	ProductID      string          `json:"productId"`
	ProductName    string          `json:"productName"`
	SKU            string          `json:"sku,omitempty"`
	Quantity       int             `json:"quantity"`
	SellingPrice   decimal.Decimal `json:"sellingPrice"`
	CostPrice      decimal.Decimal `json:"costPrice"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	ProfitAmount   decimal.Decimal `json:"profitAmount"`
}

// Payment is an entry of a sale's payment history.
type Payment struct {
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Date       time.Time       `json:"date"`
	RecordedBy string          `json:"recordedBy,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// Sale is a completed point-of-sale transaction.
type Sale struct {
	ID             string               `json:"id"`
	StoreID        string               `json:"storeId"`
	InvoiceNumber  string               `json:"invoiceNumber"`
	CashierID      string               `json:"cashierId,omitempty"`
	CustomerName   string               `json:"customerName,omitempty"`
	CustomerPhone  string               `json:"customerPhone,omitempty"`
	Items          []Item               `json:"items"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	TaxAmount      decimal.Decimal      `json:"taxAmount"`
	TotalAmount    decimal.Decimal      `json:"totalAmount"`
	PaidAmount     decimal.Decimal      `json:"paidAmount"`
	ChangeAmount   decimal.Decimal      `json:"changeAmount"`
	PaymentStatus  shared.PaymentStatus `json:"paymentStatus"`
	PaymentMethod  string               `json:"paymentMethod"`
	ProfitAmount   decimal.Decimal      `json:"profitAmount"`
	PaymentHistory []Payment            `json:"paymentHistory"`
	Notes          string               `json:"notes,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// LineInput is a cart line. Prices left null are taken from the product.
type LineInput struct {
	ProductID      string              `json:"productId" validate:"required"`
	ProductName    string              `json:"productName"`
	Quantity       int                 `json:"quantity" validate:"gt=0"`
	SellingPrice   decimal.NullDecimal `json:"sellingPrice"`
	CostPrice      decimal.NullDecimal `json:"costPrice"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
}

// CheckoutInput is the cart submitted by the register.
type CheckoutInput struct {
	StoreID        string              `json:"storeId" validate:"required"`
	CashierID      string              `json:"cashierId"`
	Lines          []LineInput         `json:"items" validate:"required,min=1,dive"`
	CustomerName   string              `json:"customerName"`
	CustomerPhone  string              `json:"customerPhone"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	TaxAmount      decimal.Decimal     `json:"taxAmount"`
	PaymentMethod  string              `json:"paymentMethod" validate:"omitempty,oneof=CASH CARD TRANSFER EWALLET CREDIT"`
	PaidAmount     decimal.NullDecimal `json:"paidAmount"`
	Subtotal       decimal.NullDecimal `json:"subtotal"`
	TotalAmount    decimal.NullDecimal `json:"totalAmount"`
	IdempotencyKey string              `json:"idempotencyKey"`
	InvoiceNumber  string              `json:"invoiceNumber"`
	Notes          string              `json:"notes"`
}

// PaymentInput adds a payment to an existing sale.
type PaymentInput struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method" validate:"omitempty,oneof=CASH CARD TRANSFER EWALLET CREDIT"`
	Note   string          `json:"note"`
}

// ProductSnapshot is the product data checkout needs.
type ProductSnapshot struct {
	ID           string
	Name         string
	SKU          string
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
	IsActive     bool
}

// ListFilters narrows sale listings.
type ListFilters struct {
	StoreID       string
	CashierID     string
	PaymentStatus shared.PaymentStatus
	Search        string
	From          time.Time
	To            time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortDir       string
}

const defaultPaymentMethod = "CASH"

var (
	// ErrNotFound indicates a missing sale.
	ErrNotFound = shared.ErrNotFound
	// ErrOverpayment indicates a payment beyond the outstanding amount.
	ErrOverpayment = fmt.Errorf("%w: payment exceeds outstanding amount", shared.ErrValidation)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrValidation, fmt.Sprintf(format, args...))
}
