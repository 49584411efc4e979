package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService issues and validates the access and refresh tokens used to
// authenticate API requests. Access tokens are short-lived and presented on
// every request; refresh tokens live longer and are only good for obtaining
// a new token pair. The two kinds are not interchangeable: each carries a
// type claim that validation enforces.
type JWTService interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks the signature, expiry, and token type of an
	// access token and returns its claims. Returns ErrExpiredToken,
	// ErrInvalidToken, or ErrWrongTokenType on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken creates a signed refresh token for the given user.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken checks a refresh token the same way ValidateToken
	// checks an access token, with the refresh-flavored errors
	// (ErrExpiredRefreshToken, ErrInvalidRefreshToken) on failure.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded payload of a token issued by this service.
type Claims struct {
	// UserID identifies the user the token was issued for.
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" or "refresh". Validation rejects a token
	// presented in the wrong context.
	TokenType string `json:"type,omitempty"`

	// Standard registered JWT claims
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
