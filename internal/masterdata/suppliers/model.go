package suppliers

import (
	"time"
)

// Supplier is a vendor purchase orders are raised against.
type Supplier struct {
	ID             string    `json:"id"`
	StoreID        string    `json:"storeId"`
	Name           string    `json:"name"`
	ContactPerson  string    `json:"contactPerson"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	IsActive       bool      `json:"isActive"`
	PurchaseOrders int       `json:"purchaseOrderCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Input is the create payload.
type Input struct {
	StoreID       string `json:"storeId" validate:"required"`
	Name          string `json:"name" validate:"required,max=200"`
	ContactPerson string `json:"contactPerson"`
	Phone         string `json:"phone"`
	Email         string `json:"email" validate:"omitempty,email"`
	Address       string `json:"address"`
	IsActive      *bool  `json:"isActive"`
}

// Patch is the update payload. Nil fields keep their stored value.
type Patch struct {
	StoreID       string  `json:"storeId" validate:"required"`
	Name          *string `json:"name" validate:"omitempty,max=200"`
	ContactPerson *string `json:"contactPerson"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	IsActive      *bool   `json:"isActive"`
}
