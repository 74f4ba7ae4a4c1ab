package middleware

import (
	"context"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

type contextKey string

const (
	identityKey contextKey = "auth_identity"
	failureKey  contextKey = "auth_failure"
)

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, identity *domain.Resolved) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFrom retrieves the identity installed by the request gate.
func IdentityFrom(ctx context.Context) (*domain.Resolved, bool) {
	identity, ok := ctx.Value(identityKey).(*domain.Resolved)
	return identity, ok && identity != nil
}

func withFailure(ctx context.Context, failure *domain.AuthError) context.Context {
	return context.WithValue(ctx, failureKey, failure)
}

func failureFrom(ctx context.Context) *domain.AuthError {
	failure, _ := ctx.Value(failureKey).(*domain.AuthError)
	return failure
}
