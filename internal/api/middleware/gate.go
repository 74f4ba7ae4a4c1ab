package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmtrack/farmtrack-api/internal/api/metrics"
	"github.com/farmtrack/farmtrack-api/internal/core/domain"
	"github.com/farmtrack/farmtrack-api/internal/core/ports"
)

// DefaultLoginPath is exempt from credential resolution.
const DefaultLoginPath = "/auth/login"

// GateState is the outcome of the request gate for one request.
type GateState string

const (
	StateBypassed          GateState = "bypassed"
	StateAccessValid       GateState = "access_valid"
	StateRenewedViaRefresh GateState = "renewed_via_refresh"
	StateRejected          GateState = "rejected"
)

// GateConfig configures the request gate.
type GateConfig struct {
	LoginPath string
	Cookies   CookieConfig
}

// RequestGate resolves the cookie token pair of every request, silently rotates
// tokens when only the refresh token is still valid, and installs the identity
// in the request context. It never rejects a request itself; that is left to
// the authorization matcher further down the chain.
type RequestGate struct {
	resolver ports.CredentialResolver
	tokens   ports.TokenIssuer
	audit    ports.AuditSink
	cfg      GateConfig
	log      zerolog.Logger
}

func NewRequestGate(resolver ports.CredentialResolver, tokens ports.TokenIssuer, audit ports.AuditSink, cfg GateConfig, log zerolog.Logger) *RequestGate {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	return &RequestGate{
		resolver: resolver,
		tokens:   tokens,
		audit:    audit,
		cfg:      cfg,
		log:      log,
	}
}

// Handle is the echo middleware.
func (g *RequestGate) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, err := g.admit(c)
		if err != nil {
			return err
		}
		g.log.Debug().
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Str("state", string(state)).
			Msg("request gate")
		return next(c)
	}
}

func (g *RequestGate) admit(c echo.Context) (GateState, error) {
	req := c.Request()
	if strings.HasSuffix(req.URL.Path, g.cfg.LoginPath) {
		metrics.ResolutionsTotal.WithLabelValues(string(StateBypassed)).Inc()
		return StateBypassed, nil
	}

	identity, err := g.resolver.Resolve(req.Context(), readCredentials(c))
	if err != nil {
		var authErr *domain.AuthError
		if !errors.As(err, &authErr) {
			metrics.ResolutionsTotal.WithLabelValues("error").Inc()
			return StateRejected, fmt.Errorf("request gate: %w", err)
		}
		metrics.ResolutionsTotal.WithLabelValues(string(authErr.Code)).Inc()
		c.SetRequest(req.WithContext(withFailure(req.Context(), authErr)))
		return StateRejected, nil
	}

	c.SetRequest(req.WithContext(WithIdentity(req.Context(), identity)))

	if identity.Kind != domain.TokenRefresh {
		metrics.ResolutionsTotal.WithLabelValues("access").Inc()
		return StateAccessValid, nil
	}

	metrics.ResolutionsTotal.WithLabelValues("refresh").Inc()
	return StateRenewedViaRefresh, g.rotate(c, identity)
}

// rotate replaces both cookies with a freshly issued pair. It runs before the
// downstream handler, whatever that handler later does.
func (g *RequestGate) rotate(c echo.Context, identity *domain.Resolved) error {
	pair, err := g.tokens.IssuePair(identity.Principal.ID)
	if err != nil {
		return fmt.Errorf("rotate tokens: %w", err)
	}
	g.cfg.Cookies.WriteTokenPair(c, pair)
	metrics.RotationsTotal.Inc()

	if g.audit != nil {
		g.audit.Record(domain.AuthEvent{
			Type:        domain.EventTokensRotated,
			PrincipalID: identity.Principal.ID,
			Email:       identity.Principal.Email,
			OccurredAt:  time.Now().UTC(),
		})
	}
	return nil
}
