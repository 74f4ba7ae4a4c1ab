package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
	"github.com/farmtrack/farmtrack-api/internal/core/service"
)

const testSecret = "0123456789abcdef0123456789abcdef-test-secret"

type memStore struct {
	principals map[string]*domain.Principal
}

func (s *memStore) FindByID(_ context.Context, id string) (*domain.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *memStore) FindByEmail(_ context.Context, email string) (*domain.Principal, error) {
	for _, p := range s.principals {
		if p.Email == email {
			clone := *p
			return &clone, nil
		}
	}
	return nil, domain.ErrPrincipalNotFound
}

func (s *memStore) SetEnabled(_ context.Context, id string, enabled bool) (*domain.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	p.Enabled = enabled
	clone := *p
	return &clone, nil
}

func (s *memStore) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	s.principals[p.ID] = p
	return p, nil
}

type recordingAudit struct {
	events []domain.AuthEvent
}

func (a *recordingAudit) Record(e domain.AuthEvent) {
	a.events = append(a.events, e)
}

type errResolver struct {
	err error
}

func (r errResolver) Resolve(context.Context, domain.Unresolved) (*domain.Resolved, error) {
	return nil, r.err
}

type gateFixture struct {
	store    *memStore
	issuedAt time.Time
	pair     domain.TokenPair
	codec    *service.TokenCodec
	audit    *recordingAudit
	gate     *RequestGate
}

func codecAt(t *testing.T, now time.Time) *service.TokenCodec {
	t.Helper()
	codec, err := service.NewTokenCodec(service.TokenConfig{
		Secret: []byte(testSecret),
		Now:    func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	return codec
}

// newGateFixture logs principal p1 in at issuedAt and builds a gate whose clock reads
// issuedAt+elapsed.
func newGateFixture(t *testing.T, elapsed time.Duration) *gateFixture {
	t.Helper()
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := &memStore{principals: map[string]*domain.Principal{
		"p1": {ID: "p1", Email: "p1@example.com", Role: domain.RoleUser, Enabled: true},
	}}

	pair, err := codecAt(t, issuedAt).IssuePair("p1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec := codecAt(t, issuedAt.Add(elapsed))
	audit := &recordingAudit{}
	gate := NewRequestGate(service.NewCredentialResolver(codec, store), codec, audit, GateConfig{}, zerolog.Nop())

	return &gateFixture{store: store, issuedAt: issuedAt, pair: pair, codec: codec, audit: audit, gate: gate}
}

func requestWithCookies(path string, pair domain.TokenPair) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if pair.Access.Value != "" {
		req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: pair.Access.Value})
	}
	if pair.Refresh.Value != "" {
		req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: pair.Refresh.Value})
	}
	return req
}

// runGate executes the gate and returns the identity seen downstream.
func runGate(t *testing.T, gate *RequestGate, req *http.Request) (*httptest.ResponseRecorder, *domain.Resolved, *domain.AuthError, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var (
		seen    *domain.Resolved
		failure *domain.AuthError
		called  bool
	)
	err := gate.Handle(func(c echo.Context) error {
		called = true
		seen, _ = IdentityFrom(c.Request().Context())
		failure = failureFrom(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})(c)
	if err == nil && !called {
		t.Fatalf("gate must always hand the request on")
	}
	return rec, seen, failure, err
}

func TestRequestGate_AccessValid(t *testing.T) {
	f := newGateFixture(t, time.Minute)

	rec, id, _, err := runGate(t, f.gate, requestWithCookies("/auth/me", f.pair))
	if err != nil {
		t.Fatalf("gate error: %v", err)
	}
	if id == nil || id.Kind != domain.TokenAccess || id.Principal.ID != "p1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if got := rec.Header().Values("Set-Cookie"); len(got) != 0 {
		t.Fatalf("access-valid requests must not touch cookies, got %v", got)
	}
	if len(f.audit.events) != 0 {
		t.Fatalf("no audit events expected")
	}
}

func TestRequestGate_RenewedViaRefresh(t *testing.T) {
	f := newGateFixture(t, 11*time.Minute)

	rec, id, _, err := runGate(t, f.gate, requestWithCookies("/auth/me", f.pair))
	if err != nil {
		t.Fatalf("gate error: %v", err)
	}

	// The current request is authorized with the refresh-derived identity.
	if id == nil || id.Kind != domain.TokenRefresh || id.Principal.ID != "p1" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 4 {
		t.Fatalf("expected 4 cookie mutations, got %d", len(cookies))
	}
	wantNames := []string{AccessCookieName, RefreshCookieName, AccessCookieName, RefreshCookieName}
	for i, ck := range cookies {
		if ck.Name != wantNames[i] {
			t.Fatalf("cookie %d: want %s got %s", i, wantNames[i], ck.Name)
		}
		if ck.Path != "/" {
			t.Fatalf("cookie %d: want path / got %q", i, ck.Path)
		}
	}
	if cookies[0].Value != "" || cookies[1].Value != "" {
		t.Fatalf("first two cookies must clear the old tokens")
	}

	newAccess, newRefresh := cookies[2].Value, cookies[3].Value
	if newAccess == f.pair.Access.Value || newRefresh == f.pair.Refresh.Value || newAccess == newRefresh {
		t.Fatalf("rotated tokens must be brand new and distinct")
	}
	if claims, err := f.codec.Verify(newAccess); err != nil || claims.Kind != domain.TokenAccess || claims.PrincipalID != "p1" {
		t.Fatalf("new access token invalid: %+v %v", claims, err)
	}
	if claims, err := f.codec.Verify(newRefresh); err != nil || claims.Kind != domain.TokenRefresh || claims.PrincipalID != "p1" {
		t.Fatalf("new refresh token invalid: %+v %v", claims, err)
	}

	if len(f.audit.events) != 1 || f.audit.events[0].Type != domain.EventTokensRotated {
		t.Fatalf("expected one rotation audit event, got %+v", f.audit.events)
	}
}

func TestRequestGate_RotationHappensEvenWhenHandlerFails(t *testing.T) {
	f := newGateFixture(t, 11*time.Minute)
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(requestWithCookies("/auth/me", f.pair), rec)

	err := f.gate.Handle(func(echo.Context) error {
		return errors.New("downstream failed")
	})(c)
	if err == nil {
		t.Fatalf("expected downstream error to propagate")
	}
	if len(rec.Result().Cookies()) != 4 {
		t.Fatalf("rotation must not depend on the downstream outcome")
	}
}

func TestRequestGate_Rejected(t *testing.T) {
	f := newGateFixture(t, 8*24*time.Hour)

	cases := map[string]*http.Request{
		"no cookies": httptest.NewRequest(http.MethodGet, "/auth/me", nil),
		"expired":    requestWithCookies("/auth/me", f.pair),
		"garbage": requestWithCookies("/auth/me", domain.TokenPair{
			Access:  domain.IssuedToken{Value: "junk"},
			Refresh: domain.IssuedToken{Value: "junk"},
		}),
	}
	for name, req := range cases {
		rec, id, failure, err := runGate(t, f.gate, req)
		if err != nil {
			t.Fatalf("%s: gate must not fail the request itself: %v", name, err)
		}
		if id != nil {
			t.Fatalf("%s: no identity expected", name)
		}
		if failure == nil || failure.Code != domain.CodeTokensExpired {
			t.Fatalf("%s: expected TOKENS_EXPIRED failure, got %+v", name, failure)
		}
		if len(rec.Header().Values("Set-Cookie")) != 0 {
			t.Fatalf("%s: rejected requests must not touch cookies", name)
		}
	}
}

func TestRequestGate_BlockedAccount(t *testing.T) {
	f := newGateFixture(t, time.Minute)
	f.store.principals["p1"].Enabled = false

	_, id, failure, err := runGate(t, f.gate, requestWithCookies("/auth/me", f.pair))
	if err != nil {
		t.Fatalf("gate error: %v", err)
	}
	if id != nil {
		t.Fatalf("blocked principal must not get an identity")
	}
	if failure == nil || failure.Code != domain.CodeAccountBlocked {
		t.Fatalf("expected ACCOUNT_BLOCKED, got %+v", failure)
	}
}

func TestRequestGate_LoginBypassed(t *testing.T) {
	f := newGateFixture(t, time.Minute)
	gate := NewRequestGate(errResolver{err: errors.New("must not be called")}, f.codec, nil, GateConfig{}, zerolog.Nop())

	req := requestWithCookies("/auth/login", f.pair)
	_, id, failure, err := runGate(t, gate, req)
	if err != nil {
		t.Fatalf("login must bypass resolution: %v", err)
	}
	if id != nil || failure != nil {
		t.Fatalf("bypassed requests carry neither identity nor failure")
	}
}

func TestRequestGate_InfrastructureError(t *testing.T) {
	f := newGateFixture(t, time.Minute)
	storeErr := errors.New("mongo down")
	gate := NewRequestGate(errResolver{err: storeErr}, f.codec, nil, GateConfig{}, zerolog.Nop())

	_, _, _, err := runGate(t, gate, requestWithCookies("/auth/me", f.pair))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to surface, got %v", err)
	}
}

func TestRequestGate_NoLeakBetweenRequests(t *testing.T) {
	f := newGateFixture(t, time.Minute)

	if _, id, _, _ := runGate(t, f.gate, requestWithCookies("/auth/me", f.pair)); id == nil {
		t.Fatalf("first request should be authenticated")
	}
	if _, id, _, _ := runGate(t, f.gate, httptest.NewRequest(http.MethodGet, "/auth/me", nil)); id != nil {
		t.Fatalf("identity leaked into an unrelated request")
	}
}
