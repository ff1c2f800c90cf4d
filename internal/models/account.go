package models

import "time"

// Role is the access level of an account.
type Role string

const (
	RoleWorker     Role = "worker"
	RoleAdmin      Role = "admin"
	RoleMaintainer Role = "maintainer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleWorker, RoleAdmin, RoleMaintainer:
		return true
	}
	return false
}

// ParseRole converts a stored or requested role string into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

type Account struct {
	ID           string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the subset of an account handed to callers after a successful login.
type Identity struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Identity returns the public identity claims of the account.
func (a *Account) Identity() *Identity {
	return &Identity{
		AccountID: a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Role:      a.Role,
	}
}
