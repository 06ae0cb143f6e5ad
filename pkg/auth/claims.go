package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID       uuid.UUID
	Email        string
	IsAdmin      bool
	IsSuperAdmin bool
	JTI          string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID       uuid.UUID `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	IsAdmin      bool      `json:"is_admin,omitempty"`
	IsSuperAdmin bool      `json:"is_superadmin,omitempty"`
	jwt.RegisteredClaims
}
