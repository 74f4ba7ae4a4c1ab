package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

const (
	DefaultAccessTTL  = 600 * time.Second
	DefaultRefreshTTL = 604800 * time.Second

	// MinSecretLength is the HS256 key size floor.
	MinSecretLength = 32
)

// TokenConfig configures a TokenCodec. Now is only overridden in tests.
type TokenConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// TokenCodec issues and verifies HS256 tokens. It holds no mutable state and is
// safe for concurrent use.
type TokenCodec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type tokenClaims struct {
	Kind domain.TokenKind `json:"token_type"`
	jwt.RegisteredClaims
}

func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("token codec: secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &TokenCodec{
		secret:     secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// TTL returns the lifetime of tokens of the given kind.
func (c *TokenCodec) TTL(kind domain.TokenKind) time.Duration {
	if kind == domain.TokenAccess {
		return c.accessTTL
	}
	return c.refreshTTL
}

// Issue signs a new token of kind for principalID.
func (c *TokenCodec) Issue(principalID string, kind domain.TokenKind) (domain.IssuedToken, error) {
	if principalID == "" {
		return domain.IssuedToken{}, errors.New("issue token: empty principal id")
	}
	if !kind.Valid() {
		return domain.IssuedToken{}, fmt.Errorf("issue token: unknown kind %q", kind)
	}

	now := c.now()
	expiresAt := now.Add(c.TTL(kind))
	claims := tokenClaims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principalID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return domain.IssuedToken{}, fmt.Errorf("signing %s token: %w", kind, err)
	}
	return domain.IssuedToken{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// IssuePair signs a fresh access and refresh token for principalID.
func (c *TokenCodec) IssuePair(principalID string) (domain.TokenPair, error) {
	access, err := c.Issue(principalID, domain.TokenAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := c.Issue(principalID, domain.TokenRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{Access: access, Refresh: refresh}, nil
}

// Verify checks signature, algorithm and expiry and returns the claims. Every
// failure, whatever its cause, is reported as domain.ErrTokenInvalid.
func (c *TokenCodec) Verify(token string) (domain.TokenClaims, error) {
	if token == "" {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	var claims tokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil || !parsed.Valid {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Kind.Valid() {
		return domain.TokenClaims{}, domain.ErrTokenInvalid
	}

	out := domain.TokenClaims{
		PrincipalID: claims.Subject,
		Kind:        claims.Kind,
		ExpiresAt:   claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
