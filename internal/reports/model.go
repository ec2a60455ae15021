package reports

import (
	"time"

	"github.com/shopspring/decimal"
)

// SummaryFilter selects sales in [From, To).
type SummaryFilter struct {
	StoreID string    `json:"storeId" validate:"required"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
}

// TopFilter selects the best sellers of a window.
type TopFilter struct {
	StoreID string    `json:"storeId" validate:"required"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Limit   int       `json:"limit" validate:"gte=0,lte=100"`
}

// SalesSummary aggregates the sales of a window.
type SalesSummary struct {
	From          time.Time       `json:"from"`
	To            time.Time       `json:"to"`
	Count         int             `json:"count"`
	Revenue       decimal.Decimal `json:"revenue"`
	Profit        decimal.Decimal `json:"profit"`
	Discount      decimal.Decimal `json:"discount"`
	Tax           decimal.Decimal `json:"tax"`
	Paid          decimal.Decimal `json:"paid"`
	AverageTicket decimal.Decimal `json:"averageTicket"`
}

// ProductSales is a product's share of a window's sales.
type ProductSales struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Profit      decimal.Decimal `json:"profit"`
}

// LowStockItem is an active product at or below its minimum level.
type LowStockItem struct {
	ProductID     string `json:"productId"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	StockLevel    int    `json:"stockLevel"`
	MinStockLevel int    `json:"minStockLevel"`
}

// Dashboard is the landing view of a store.
type Dashboard struct {
	Today         SalesSummary   `json:"today"`
	Month         SalesSummary   `json:"month"`
	TopProducts   []ProductSales `json:"topProducts"`
	LowStock      []LowStockItem `json:"lowStock"`
	LowStockCount int            `json:"lowStockCount"`
	GeneratedAt   time.Time      `json:"generatedAt"`
}
