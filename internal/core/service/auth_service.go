package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
	"github.com/farmtrack/farmtrack-api/internal/core/ports"
)

// LoginThrottle abstracts the failed-login counter (Redis).
type LoginThrottle interface {
	Allowed(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// AuthDependencies groups the collaborators of AuthService.
type AuthDependencies struct {
	Store      ports.PrincipalStore
	Tokens     ports.TokenIssuer
	Throttle   LoginThrottle
	Audit      ports.AuditSink
	BcryptCost int
	Log        zerolog.Logger
}

// AuthService implements password login, registration and account blocking.
type AuthService struct {
	store      ports.PrincipalStore
	tokens     ports.TokenIssuer
	throttle   LoginThrottle
	audit      ports.AuditSink
	bcryptCost int
	log        zerolog.Logger
	now        func() time.Time
}

func NewAuthService(deps AuthDependencies) *AuthService {
	cost := deps.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:      deps.Store,
		tokens:     deps.Tokens,
		throttle:   deps.Throttle,
		audit:      deps.Audit,
		bcryptCost: cost,
		log:        deps.Log,
		now:        time.Now,
	}
}

// Login checks the password and issues a fresh token pair. An unknown email and
// a wrong password both yield BAD_CREDENTIALS.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Principal, domain.TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.TokenPair{}, domain.ErrBadCredentials
	}

	if !s.loginAllowed(ctx, email) {
		return nil, domain.TokenPair{}, domain.ErrTooManyAttempts
	}

	principal, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			s.loginFailed(ctx, email, "", "unknown_email")
			return nil, domain.TokenPair{}, domain.ErrBadCredentials
		}
		return nil, domain.TokenPair{}, fmt.Errorf("login: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(principal.PasswordHash), []byte(password)) != nil {
		s.loginFailed(ctx, email, principal.ID, "bad_password")
		return nil, domain.TokenPair{}, domain.ErrBadCredentials
	}

	if !principal.Enabled {
		s.record(domain.EventLoginFailed, principal, "", "account_blocked")
		return nil, domain.TokenPair{}, domain.ErrAccountBlocked
	}

	pair, err := s.tokens.IssuePair(principal.ID)
	if err != nil {
		return nil, domain.TokenPair{}, fmt.Errorf("login: %w", err)
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to reset login throttle")
		}
	}

	s.record(domain.EventLoginSucceeded, principal, "", "")
	s.log.Info().Str("principal_id", principal.ID).Msg("login succeeded")

	return principal, pair, nil
}

// Register creates a new enabled principal with a bcrypt password hash.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput, actor string) (*domain.Principal, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || !in.Role.Valid() {
		return nil, domain.ErrInvalidPrincipal
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.store.Create(ctx, &domain.Principal{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		Role:         in.Role,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.record(domain.EventRegistered, created, actor, "")
	return created, nil
}

// Block disables the principal with the given email. Its tokens stop resolving
// on the very next request.
func (s *AuthService) Block(ctx context.Context, email, actor string) (*domain.Principal, error) {
	return s.setEnabled(ctx, email, actor, false)
}

// Unblock re-enables the principal with the given email.
func (s *AuthService) Unblock(ctx context.Context, email, actor string) (*domain.Principal, error) {
	return s.setEnabled(ctx, email, actor, true)
}

// EnsureAdmin creates the bootstrap administrator when no account with email exists.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	_, err := s.store.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrPrincipalNotFound) {
		return fmt.Errorf("ensure admin: %w", err)
	}

	_, err = s.Register(ctx, ports.RegisterInput{
		Email:    email,
		Password: password,
		Name:     "admin",
		Role:     domain.RoleAdmin,
	}, "system")
	if err != nil && !errors.Is(err, domain.ErrPrincipalExists) {
		return fmt.Errorf("ensure admin: %w", err)
	}
	s.log.Info().Str("email", email).Msg("bootstrap admin ensured")
	return nil
}

func (s *AuthService) setEnabled(ctx context.Context, email, actor string, enabled bool) (*domain.Principal, error) {
	principal, err := s.store.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	updated, err := s.store.SetEnabled(ctx, principal.ID, enabled)
	if err != nil {
		return nil, err
	}

	event := domain.EventBlocked
	if enabled {
		event = domain.EventUnblocked
	}
	s.record(event, updated, actor, "")
	s.log.Info().
		Str("principal_id", updated.ID).
		Bool("enabled", enabled).
		Str("actor", actor).
		Msg("principal enabled flag changed")

	return updated, nil
}

// loginAllowed fails open: a throttle outage must not lock everybody out.
func (s *AuthService) loginAllowed(ctx context.Context, email string) bool {
	if s.throttle == nil {
		return true
	}
	ok, err := s.throttle.Allowed(ctx, email)
	if err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("login throttle check failed, allowing")
		return true
	}
	return ok
}

func (s *AuthService) loginFailed(ctx context.Context, email, principalID, reason string) {
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Str("email", email).Msg("failed to record login failure")
		}
	}
	s.record(domain.EventLoginFailed, &domain.Principal{ID: principalID, Email: email}, "", reason)
}

func (s *AuthService) record(typ domain.AuthEventType, p *domain.Principal, actor, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(domain.AuthEvent{
		Type:        typ,
		PrincipalID: p.ID,
		Email:       p.Email,
		Actor:       actor,
		Reason:      reason,
		OccurredAt:  s.now().UTC(),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
