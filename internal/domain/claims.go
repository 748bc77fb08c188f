package domain

import "github.com/golang-jwt/jwt/v5"

// TrainsyncClaims is the JWT payload issued by the external auth collaborator.
// Only the user identity matters to this service.
type TrainsyncClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
