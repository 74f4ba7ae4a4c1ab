package middleware

import (
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmtrack/farmtrack-api/internal/api/metrics"
	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// Rule grants access to requests matching Method and Pattern. Pattern segments
// match literally, "*" matches exactly one segment and a trailing "**" matches
// any remainder. An empty Method matches every method.
type Rule struct {
	Method  string
	Pattern string
	Public  bool
	Roles   []domain.Role
}

type compiledRule struct {
	Rule
	segments []string
}

// RouteTable is an ordered, immutable list of rules. The first matching rule
// wins; requests matching no rule are denied.
type RouteTable struct {
	rules []compiledRule
	log   zerolog.Logger
}

// UnauthenticatedError means a protected route was hit without a resolved
// identity. Cause tells why resolution failed.
type UnauthenticatedError struct {
	Cause *domain.AuthError
}

func (e *UnauthenticatedError) Error() string {
	return "unauthenticated: " + e.Cause.Error()
}

func (e *UnauthenticatedError) Unwrap() error {
	return e.Cause
}

// DefaultRules is the route table of the API: public endpoints first, then
// admin-only, then user-or-admin.
func DefaultRules() []Rule {
	anyone := []domain.Role{domain.RoleUser, domain.RoleAdmin}
	admin := []domain.Role{domain.RoleAdmin}

	return []Rule{
		{Pattern: DefaultLoginPath, Public: true},
		{Method: http.MethodGet, Pattern: "/health", Public: true},
		{Method: http.MethodGet, Pattern: "/health/ready", Public: true},
		{Method: http.MethodGet, Pattern: "/metrics", Public: true},
		{Method: http.MethodGet, Pattern: "/swagger/**", Public: true},

		{Method: http.MethodPost, Pattern: "/auth/register", Roles: admin},
		{Method: http.MethodPost, Pattern: "/auth/block/*", Roles: admin},
		{Method: http.MethodPost, Pattern: "/auth/unblock/*", Roles: admin},

		{Method: http.MethodGet, Pattern: "/auth/me", Roles: anyone},
		{Pattern: "/api/**", Roles: anyone},
	}
}

func NewRouteTable(log zerolog.Logger, rules ...Rule) (*RouteTable, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("rule %d: pattern %q must start with /", i, r.Pattern)
		}
		segs := splitPath(r.Pattern)
		for j, s := range segs {
			if s == "**" && j != len(segs)-1 {
				return nil, fmt.Errorf("rule %d: ** only allowed as last segment in %q", i, r.Pattern)
			}
		}
		if !r.Public && len(r.Roles) == 0 {
			return nil, fmt.Errorf("rule %d: %q is neither public nor grants any role", i, r.Pattern)
		}
		r.Roles = append([]domain.Role(nil), r.Roles...)
		compiled = append(compiled, compiledRule{Rule: r, segments: segs})
	}
	return &RouteTable{rules: compiled, log: log}, nil
}

// Match returns the first rule matching the request.
func (t *RouteTable) Match(method, requestPath string) (Rule, bool) {
	segs := splitPath(path.Clean("/" + requestPath))
	for _, r := range t.rules {
		if r.Method != "" && !strings.EqualFold(r.Method, method) {
			continue
		}
		if matchSegments(r.segments, segs) {
			return r.Rule, true
		}
	}
	return Rule{}, false
}

// Decide returns nil when the request may proceed, an *UnauthenticatedError when
// a protected route is hit without identity, or NOT_ENOUGH_RIGHTS.
func (t *RouteTable) Decide(method, requestPath string, identity *domain.Resolved, failure *domain.AuthError) error {
	rule, ok := t.Match(method, requestPath)
	if ok && rule.Public {
		return nil
	}
	if identity == nil {
		if failure == nil {
			failure = domain.ErrTokensExpired
		}
		return &UnauthenticatedError{Cause: failure}
	}
	if !ok || !identity.HasRole(rule.Roles...) {
		return domain.ErrNotEnoughRights
	}
	return nil
}

// Authorize is the echo middleware; it must run after the request gate.
func (t *RouteTable) Authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		identity, _ := IdentityFrom(req.Context())

		if err := t.Decide(req.Method, routingPath(req), identity, failureFrom(req.Context())); err != nil {
			code := domain.CodeNotEnoughRights
			if unauth, ok := err.(*UnauthenticatedError); ok {
				code = unauth.Cause.Code
			}
			metrics.DenialsTotal.WithLabelValues(string(code)).Inc()
			t.log.Debug().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("code", string(code)).
				Msg("request denied")
			return err
		}
		return next(c)
	}
}

// routingPath is the path echo routes on: the raw path when the request has
// escaped characters, so "%2F" inside a segment does not split it.
func routingPath(req *http.Request) string {
	if req.URL.RawPath != "" {
		return req.URL.RawPath
	}
	return req.URL.Path
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func matchSegments(pattern, segs []string) bool {
	for i, p := range pattern {
		if p == "**" {
			return true
		}
		if i >= len(segs) {
			return false
		}
		if p != "*" && p != segs[i] {
			return false
		}
	}
	return len(pattern) == len(segs)
}
