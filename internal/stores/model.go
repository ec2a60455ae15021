// Package stores manages the retail locations every tenant document belongs to.
package stores

import (
	"time"

	"github.com/shopspring/decimal"
)

// Store is a retail location.
type Store struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
	Currency  string          `json:"currency"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Input is the create/update payload.
type Input struct {
	Code     string          `json:"code" validate:"required,max=32"`
	Name     string          `json:"name" validate:"required,max=120"`
	Address  string          `json:"address"`
	Phone    string          `json:"phone"`
	Email    string          `json:"email" validate:"omitempty,email"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
	TaxRate  decimal.Decimal `json:"taxRate"`
	IsActive *bool           `json:"isActive"`
}

// References counts documents that keep a store from being deleted.
type References struct {
	Products int
	Sales    int
}

const defaultCurrency = "USD"
