package procurement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// Status tracks the purchase order lifecycle. It is advisory: stock is
// mutated on create, update and delete regardless of status.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusReceived  Status = "RECEIVED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusDraft:     {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusReceived, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Item is one line of a purchase order, embedded in the order document.
type Item struct {
	ProductID        string          `json:"productId"`
	ProductName      string          `json:"productName"`
	Quantity         int             `json:"quantity"`
	UnitCost         decimal.Decimal `json:"unitCost"`
	SellingPrice     decimal.Decimal `json:"sellingPrice"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	ReceivedQuantity int             `json:"receivedQuantity"`
}

// PurchaseOrder is a store-scoped purchase from a supplier.
type PurchaseOrder struct {
	ID             string               `json:"id"`
	StoreID        string               `json:"storeId"`
	SupplierID     string               `json:"supplierId"`
	SupplierName   string               `json:"supplierName,omitempty"`
	PONumber       string               `json:"poNumber"`
	PurchaseDate   time.Time            `json:"purchaseDate"`
	Status         Status               `json:"status"`
	Items          []Item               `json:"items"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	DiscountAmount decimal.Decimal      `json:"discountAmount"`
	TaxAmount      decimal.Decimal      `json:"taxAmount"`
	ShippingCost   decimal.Decimal      `json:"shippingCost"`
	TotalAmount    decimal.Decimal      `json:"totalAmount"`
	PaidAmount     decimal.Decimal      `json:"paidAmount"`
	PaymentStatus  shared.PaymentStatus `json:"paymentStatus"`
	Notes          string               `json:"notes"`
	CreatedBy      string               `json:"createdBy,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
	UpdatedAt      time.Time            `json:"updatedAt"`
}

// ItemInput is a requested order line. TotalCost is optional; when present
// it must match quantity*unitCost-discount.
type ItemInput struct {
	ProductID      string              `json:"productId" validate:"required"`
	ProductName    string              `json:"productName"`
	Quantity       int                 `json:"quantity" validate:"gt=0"`
	UnitCost       decimal.Decimal     `json:"unitCost"`
	SellingPrice   decimal.Decimal     `json:"sellingPrice"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
	TotalCost      decimal.NullDecimal `json:"totalCost"`
}

// OrderInput carries the writable fields of a purchase order. On update,
// nil Items keep the stored lines and null amounts keep stored values.
type OrderInput struct {
	StoreID        string              `json:"storeId" validate:"required"`
	SupplierID     string              `json:"supplierId"`
	PONumber       string              `json:"poNumber"`
	PurchaseDate   time.Time           `json:"purchaseDate"`
	Status         Status              `json:"status" validate:"omitempty,oneof=DRAFT CONFIRMED RECEIVED CANCELLED"`
	Items          []ItemInput         `json:"items" validate:"omitempty,dive"`
	Subtotal       decimal.NullDecimal `json:"subtotal"`
	DiscountAmount decimal.NullDecimal `json:"discountAmount"`
	TaxAmount      decimal.NullDecimal `json:"taxAmount"`
	ShippingCost   decimal.NullDecimal `json:"shippingCost"`
	TotalAmount    decimal.NullDecimal `json:"totalAmount"`
	PaidAmount     decimal.NullDecimal `json:"paidAmount"`
	Notes          *string             `json:"notes"`
}

// ListFilters narrows purchase order listings.
type ListFilters struct {
	StoreID       string
	Status        Status
	SupplierID    string
	PaymentStatus shared.PaymentStatus
	Search        string
	From          time.Time
	To            time.Time
	Page          int
	PageSize      int
	SortBy        string
	SortDir       string
}

var (
	// ErrValidation indicates malformed purchase order input.
	ErrValidation = shared.ErrValidation
	// ErrInvalidState indicates a disallowed status transition.
	ErrInvalidState = fmt.Errorf("%w: invalid status transition", shared.ErrValidation)
	// ErrOverpayment indicates a payment larger than the outstanding amount.
	ErrOverpayment = fmt.Errorf("%w: payment exceeds outstanding amount", shared.ErrValidation)
	// ErrNotFound indicates a missing purchase order.
	ErrNotFound = shared.ErrNotFound
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
