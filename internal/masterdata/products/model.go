package products

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item of a store. StockLevel only changes through
// the stock ledger.
type Product struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"storeId"`
	SKU           string          `json:"sku"`
	Barcode       *string         `json:"barcode"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId"`
	CategoryName  string          `json:"categoryName,omitempty"`
	BrandID       *string         `json:"brandId"`
	BrandName     string          `json:"brandName,omitempty"`
	BuyingPrice   decimal.Decimal `json:"buyingPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockLevel    int             `json:"stockLevel"`
	MinStockLevel int             `json:"minStockLevel"`
	Unit          string          `json:"unit"`
	Images        []string        `json:"images"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Input is the create payload. StockLevel becomes the opening stock.
type Input struct {
	StoreID       string          `json:"storeId" validate:"required"`
	SKU           string          `json:"sku" validate:"required,max=64"`
	Barcode       *string         `json:"barcode"`
	Name          string          `json:"name" validate:"required,max=200"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"categoryId" validate:"required"`
	BrandID       *string         `json:"brandId"`
	BuyingPrice   decimal.Decimal `json:"buyingPrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	StockLevel    int             `json:"stockLevel" validate:"gte=0"`
	MinStockLevel int             `json:"minStockLevel" validate:"gte=0"`
	Unit          string          `json:"unit"`
	Images        []string        `json:"images" validate:"omitempty,dive,uri"`
	IsActive      *bool           `json:"isActive"`
}

// Patch is the update payload. Nil fields keep their stored value; an empty
// barcode or brandId clears it and an empty images list removes all images.
// Stock is left to the ledger.
type Patch struct {
	StoreID       string              `json:"storeId" validate:"required"`
	SKU           *string             `json:"sku" validate:"omitempty,max=64"`
	Barcode       *string             `json:"barcode"`
	Name          *string             `json:"name" validate:"omitempty,max=200"`
	Description   *string             `json:"description"`
	CategoryID    *string             `json:"categoryId"`
	BrandID       *string             `json:"brandId"`
	BuyingPrice   decimal.NullDecimal `json:"buyingPrice"`
	SellingPrice  decimal.NullDecimal `json:"sellingPrice"`
	MinStockLevel *int                `json:"minStockLevel" validate:"omitempty,gte=0"`
	Unit          *string             `json:"unit"`
	Images        []string            `json:"images" validate:"omitempty,dive,uri"`
	IsActive      *bool               `json:"isActive"`
}

// ListFilters narrows product listings.
type ListFilters struct {
	StoreID    string
	Search     string
	CategoryID string
	BrandID    string
	IsActive   *bool
	LowStock   bool
	Page       int
	PageSize   int
	SortBy     string
	SortDir    string
}

// References counts documents that keep a product from being deleted.
type References struct {
	PurchaseOrders int
	Sales          int
}

const defaultUnit = "pcs"
