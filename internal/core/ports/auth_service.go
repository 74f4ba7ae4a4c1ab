package ports

import (
	"context"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// RegisterInput carries the fields an admin supplies for a new account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.Principal, domain.TokenPair, error)
	Register(ctx context.Context, in RegisterInput, actor string) (*domain.Principal, error)
	Block(ctx context.Context, email, actor string) (*domain.Principal, error)
	Unblock(ctx context.Context, email, actor string) (*domain.Principal, error)
}
