package users

import "time"

// User is a user document as returned to the UI. It never carries the
// password hash.
type User struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	RoleID      string     `json:"roleId"`
	RoleName    string     `json:"roleName"`
	IsActive    bool       `json:"isActive"`
	StoreIDs    []string   `json:"storeIds"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateInput is the users.create payload.
type CreateInput struct {
	Username string   `json:"username" validate:"required,min=3,max=64"`
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"fullName"`
	Password string   `json:"password" validate:"required,min=8"`
	RoleID   string   `json:"roleId" validate:"required"`
	IsActive *bool    `json:"isActive"`
	StoreIDs []string `json:"storeIds"`
}

// UpdateInput is the users.update payload. An empty password keeps the
// current one.
type UpdateInput struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"fullName"`
	Password string `json:"password" validate:"omitempty,min=8"`
	RoleID   string `json:"roleId" validate:"required"`
	IsActive *bool  `json:"isActive"`
}

// ListFilters narrows user listings.
type ListFilters struct {
	Search   string
	RoleID   string
	StoreID  string
	IsActive *bool
	Page     int
	PageSize int
}
