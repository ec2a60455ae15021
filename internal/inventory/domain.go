package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tillpoint/tillpoint/internal/shared"
)

// RefType names the document that caused a stock movement.
type RefType string

const (
	RefPurchaseOrder       RefType = "PURCHASE_ORDER"
	RefPurchaseOrderUpdate RefType = "PURCHASE_ORDER_UPDATE"
	RefPurchaseOrderDelete RefType = "PURCHASE_ORDER_DELETE"
	RefSale                RefType = "SALE"
	RefSaleDelete          RefType = "SALE_DELETE"
	RefOpening             RefType = "OPENING"
	RefAdjustment          RefType = "ADJUSTMENT"
)

// Movement is one row of the stock ledger.
type Movement struct {
	ID         string    `json:"id"`
	StoreID    string    `json:"storeId"`
	ProductID  string    `json:"productId"`
	Delta      int       `json:"delta"`
	LevelAfter int       `json:"levelAfter"`
	RefType    RefType   `json:"refType"`
	RefID      string    `json:"refId"`
	Note       string    `json:"note,omitempty"`
	CreatedBy  string    `json:"createdBy,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Adjustment requests an atomic change of a product's stock level.
type Adjustment struct {
	StoreID   string
	ProductID string
	Delta     int
	RefType   RefType
	RefID     string
	Note      string
	CreatedBy string
	// AllowNegative skips the stock_level + delta >= 0 guard.
	AllowNegative bool
}

// PriceUpdate sets a product's purchase price and, when positive, its
// selling price.
type PriceUpdate struct {
	StoreID      string
	ProductID    string
	BuyingPrice  decimal.Decimal
	SellingPrice decimal.Decimal
}

// AdjustInput is a manual stock correction.
type AdjustInput struct {
	StoreID   string `json:"storeId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	Delta     int    `json:"delta"`
	Note      string `json:"note" validate:"required"`
}

// MovementFilter narrows movement listings.
type MovementFilter struct {
	StoreID   string
	ProductID string
	RefType   RefType
	Page      int
	PageSize  int
}

// ErrInsufficientStock is returned when a guarded decrement would take stock below zero.
var ErrInsufficientStock = fmt.Errorf("%w: insufficient stock", shared.ErrValidation)

// ErrInvalidQuantity indicates a zero movement.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ShortfallError details an ErrInsufficientStock failure.
type ShortfallError struct {
	ProductID string
	Available int
	Requested int
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("%s: product %s has %d in stock, %d requested", ErrInsufficientStock.Error(), e.ProductID, e.Available, e.Requested)
}

// Unwrap exposes ErrInsufficientStock.
func (e *ShortfallError) Unwrap() error {
	return ErrInsufficientStock
}
