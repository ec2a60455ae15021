package brands

import "time"

// Brand is a product brand of a store.
type Brand struct {
	ID           string    `json:"id"`
	StoreID      string    `json:"storeId"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Logo         string    `json:"logo"`
	IsActive     bool      `json:"isActive"`
	ProductCount int       `json:"productCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Input is the create payload. Logo is a URI string.
type Input struct {
	StoreID     string `json:"storeId" validate:"required"`
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Logo        string `json:"logo" validate:"omitempty,uri"`
	IsActive    *bool  `json:"isActive"`
}

// Patch is the update payload. Nil fields keep their stored value; an empty
// logo removes it.
type Patch struct {
	StoreID     string  `json:"storeId" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=120"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Logo        *string `json:"logo"`
	IsActive    *bool   `json:"isActive"`
}
