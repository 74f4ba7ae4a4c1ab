package ports

import (
	"context"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// PrincipalStore defines the persistence the authentication core depends on.
// Lookups return domain.ErrPrincipalNotFound when nothing matches.
type PrincipalStore interface {
	FindByID(ctx context.Context, id string) (*domain.Principal, error)
	FindByEmail(ctx context.Context, email string) (*domain.Principal, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (*domain.Principal, error)
	Create(ctx context.Context, principal *domain.Principal) (*domain.Principal, error)
}
