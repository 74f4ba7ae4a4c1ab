package domain

import (
	"errors"
	"time"
)

// TokenKind distinguishes short-lived access tokens from long-lived refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "ACCESS"
	TokenRefresh TokenKind = "REFRESH"
)

// Valid reports whether k is ACCESS or REFRESH.
func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// ErrTokenInvalid covers every reason a token fails verification: malformed,
// wrong algorithm, bad signature, expired or missing claims.
var ErrTokenInvalid = errors.New("token invalid")

// TokenClaims is the verified content of a token.
type TokenClaims struct {
	PrincipalID string
	Kind        TokenKind
	IssuedAt    time.Time
	ExpiresAt   time.Time
}

// IssuedToken is a signed token together with its expiry.
type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// TokenPair is what login and rotation hand back to the client.
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
