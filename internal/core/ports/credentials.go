package ports

import (
	"context"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// TokenIssuer mints signed tokens for a principal.
type TokenIssuer interface {
	Issue(principalID string, kind domain.TokenKind) (domain.IssuedToken, error)
	IssuePair(principalID string) (domain.TokenPair, error)
}

// TokenVerifier checks a token. Every failure is domain.ErrTokenInvalid.
type TokenVerifier interface {
	Verify(token string) (domain.TokenClaims, error)
}

// CredentialResolver turns a raw cookie pair into an authenticated identity.
// Authentication failures are returned as *domain.AuthError.
type CredentialResolver interface {
	Resolve(ctx context.Context, creds domain.Unresolved) (*domain.Resolved, error)
}
