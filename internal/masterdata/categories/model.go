package categories

import "time"

// Category groups products of a store. Categories form a tree through ParentID.
type Category struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"storeId"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	ParentID     *string   `json:"parentId"`
	ParentName   string    `json:"parentName,omitempty"`
	IsActive     bool      `json:"isActive"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the create payload. An empty slug is derived from the name.
type Input struct {
	StoreID     string  `json:"storeId" validate:"required"`
	Name        string  `json:"name" validate:"required,max=120"`
	Slug        string  `json:"slug"`
	Description string  `json:"description"`
	ParentID    *string `json:"parentId"`
	IsActive    *bool   `json:"isActive"`
}

// Patch is the update payload. Nil fields keep their stored value; an empty
// parentId moves the category to the root.
type Patch struct {
	StoreID     string  `json:"storeId" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
	IsActive    *bool   `json:"isActive"`
}

// ListFilters narrows category listings.
type ListFilters struct {
	StoreID  string
	Search   string
	ParentID *string
	RootOnly bool
	IsActive *bool
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// References counts documents that keep a category from being deleted.
type References struct {
	Children int
	Products int
}
