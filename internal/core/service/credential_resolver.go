package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
	"github.com/farmtrack/farmtrack-api/internal/core/ports"
)

// CredentialResolver authenticates a cookie pair against the token codec and
// the principal store. The enabled flag is read from the store on every call.
type CredentialResolver struct {
	tokens ports.TokenVerifier
	store  ports.PrincipalStore
}

func NewCredentialResolver(tokens ports.TokenVerifier, store ports.PrincipalStore) *CredentialResolver {
	return &CredentialResolver{tokens: tokens, store: store}
}

// Resolve returns the authenticated identity or a *domain.AuthError. The access
// token always wins when it verifies; the refresh token is only consulted when
// the access token is absent or invalid.
func (r *CredentialResolver) Resolve(ctx context.Context, creds domain.Unresolved) (*domain.Resolved, error) {
	claims, ok := r.candidate(creds)
	if !ok {
		return nil, domain.ErrTokensExpired
	}

	principal, err := r.store.FindByID(ctx, claims.PrincipalID)
	if err != nil {
		// Unknown principals look exactly like dead tokens to the caller.
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			return nil, domain.ErrTokensExpired
		}
		return nil, fmt.Errorf("resolve credentials: %w", err)
	}

	if !principal.Enabled {
		return nil, domain.ErrAccountBlocked
	}

	return &domain.Resolved{
		Principal: principal,
		Kind:      claims.Kind,
		Role:      principal.Role,
	}, nil
}

func (r *CredentialResolver) candidate(creds domain.Unresolved) (domain.TokenClaims, bool) {
	if creds.Access != "" {
		if claims, err := r.tokens.Verify(creds.Access); err == nil && claims.Kind == domain.TokenAccess {
			return claims, true
		}
	}
	if creds.Refresh != "" {
		if claims, err := r.tokens.Verify(creds.Refresh); err == nil && claims.Kind == domain.TokenRefresh {
			return claims, true
		}
	}
	return domain.TokenClaims{}, false
}
