package auth

import (
	"context"
	"time"
)

// JWTService defines operations for managing JWT authentication tokens.
// Tokens are issued to API clients after a successful key exchange and
// presented as bearer tokens on subsequent requests.
type JWTService interface {
	// GenerateToken creates a signed JWT access token for the given client.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context, clientID string) (string, error)

	// ValidateToken validates the provided token string and extracts the
	// claims. Returns an error if validation fails (expired, invalid
	// signature, wrong type).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the claims carried by issued tokens.
type Claims struct {
	// ClientID identifies the API client the token was issued for.
	ClientID string `json:"cid,omitempty"`

	// TokenType indicates the purpose of the token; only "access" is issued.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
