package roles

import "time"

// Role groups permissions assigned to users.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Permissions []string  `json:"permissions"`
	SuperAdmin  bool      `json:"superAdmin"`
	UserCount   int       `json:"userCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Input is the create/update payload.
type Input struct {
	Name        string   `json:"name" validate:"required,max=64"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
	SuperAdmin  bool     `json:"superAdmin"`
}
