package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the access token claims issued by the auth service.
type Claims struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}
