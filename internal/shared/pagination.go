package shared

import "math"

const (
	// DefaultPage is the first page number.
	DefaultPage = 1
	// DefaultPageSize applies when the caller does not supply one.
	DefaultPageSize = 20
	// MaxPageSize caps a single page.
	MaxPageSize = 200
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, pageSize, total int) Pagination {
	page, pageSize = NormalizePage(page, pageSize, DefaultPageSize)
	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: totalPages}
}

// NormalizePage applies the 1-based page default and clamps pageSize.
func NormalizePage(page, pageSize, fallbackSize int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = fallbackSize
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// Offset returns the row offset for a normalised page.
func Offset(page, pageSize int) int {
	if page <= 1 {
		return 0
	}
	return (page - 1) * pageSize
}

// Page is the list envelope returned to bridge clients.
type Page[T any] struct {
	Data []T `json:"data"`
	Pagination
}

// NewPage wraps items with pagination metadata. A nil slice is returned as empty.
func NewPage[T any](items []T, page, pageSize, total int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Pagination: NewPagination(page, pageSize, total)}
}

// ListFilters represents standard list filters shared by store-scoped collections.
type ListFilters struct {
	StoreID  string
	Page     int
	PageSize int
	Search   string
	SortBy   string
	SortDir  string
	IsActive *bool
}
