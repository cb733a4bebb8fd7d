package jobboard

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents structured JWT claims after validation
type AuthClaims interface {
	Subject() string
	UserID() string
	Role() string
	Kind() TokenKind
	HasRole(role string) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete implementation of AuthClaims
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string `json:"uid,omitempty"`
	UserRole  string `json:"role,omitempty"`
	TokenKind string `json:"kind,omitempty"`
}

// Verify interface compliance
var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Role returns the platform role embedded in the token. Refresh tokens
// carry no role; callers must reload the user before authorizing.
func (c *JWTClaims) Role() string {
	return c.UserRole
}

// Kind returns the token class
func (c *JWTClaims) Kind() TokenKind {
	return TokenKind(c.TokenKind)
}

// HasRole checks if the token carries a specific role
func (c *JWTClaims) HasRole(role string) bool {
	return c.UserRole == role
}

// Expires returns the expiration time
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
