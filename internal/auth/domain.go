package auth

import "time"

// Account is the credential view of a user, joined with its role.
type Account struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	RoleID       string
	RoleName     string
	Permissions  []string
	SuperAdmin   bool
}

// Profile is the user document returned to the desktop UI after login.
type Profile struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"fullName"`
	RoleID      string     `json:"roleId"`
	RoleName    string     `json:"roleName"`
	Permissions []string   `json:"permissions"`
	SuperAdmin  bool       `json:"superAdmin"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// StoreRef identifies a store the user may open.
type StoreRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// LoginResult is the payload of auth.login.
type LoginResult struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      Profile    `json:"user"`
	Stores    []StoreRef `json:"stores"`
}

func (a *Account) profile() Profile {
	perms := a.Permissions
	if perms == nil {
		perms = []string{}
	}
	return Profile{
		ID:          a.ID,
		Username:    a.Username,
		Email:       a.Email,
		FullName:    a.FullName,
		RoleID:      a.RoleID,
		RoleName:    a.RoleName,
		Permissions: perms,
		SuperAdmin:  a.SuperAdmin,
	}
}
