package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the identity claims embedded in the authToken cookie.
type TokenClaims struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	jwt.RegisteredClaims
}
