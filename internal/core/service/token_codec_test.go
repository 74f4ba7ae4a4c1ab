package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewTokenCodec_ShortSecret(t *testing.T) {
	if _, err := NewTokenCodec(TokenConfig{Secret: []byte("short")}); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestTokenCodec_IssueVerify(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := newTestCodec(t, fixedClock(now))

	for _, kind := range []domain.TokenKind{domain.TokenAccess, domain.TokenRefresh} {
		issued, err := codec.Issue("p1", kind)
		if err != nil {
			t.Fatalf("issue %s: %v", kind, err)
		}
		claims, err := codec.Verify(issued.Value)
		if err != nil {
			t.Fatalf("verify %s: %v", kind, err)
		}
		if claims.PrincipalID != "p1" || claims.Kind != kind {
			t.Fatalf("unexpected claims: %+v", claims)
		}
		if !claims.IssuedAt.Equal(now) {
			t.Fatalf("issued at: want %v got %v", now, claims.IssuedAt)
		}
		if want := now.Add(codec.TTL(kind)); !claims.ExpiresAt.Equal(want) || !issued.ExpiresAt.Equal(want) {
			t.Fatalf("expires at: want %v got %v / %v", want, claims.ExpiresAt, issued.ExpiresAt)
		}
	}
}

func TestTokenCodec_DefaultLifetimes(t *testing.T) {
	codec := newTestCodec(t, nil)

	if codec.TTL(domain.TokenAccess) != 600*time.Second {
		t.Fatalf("access ttl: %v", codec.TTL(domain.TokenAccess))
	}
	if codec.TTL(domain.TokenRefresh) != 604800*time.Second {
		t.Fatalf("refresh ttl: %v", codec.TTL(domain.TokenRefresh))
	}
}

func TestTokenCodec_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := newTestCodec(t, fixedClock(issuedAt))
	pair, err := issuer.IssuePair("p1")
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}

	justBefore := newTestCodec(t, fixedClock(issuedAt.Add(599*time.Second)))
	if _, err := justBefore.Verify(pair.Access.Value); err != nil {
		t.Fatalf("access token should still be valid: %v", err)
	}

	after := newTestCodec(t, fixedClock(issuedAt.Add(601*time.Second)))
	if _, err := after.Verify(pair.Access.Value); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected expired access token to be invalid, got %v", err)
	}
	if _, err := after.Verify(pair.Refresh.Value); err != nil {
		t.Fatalf("refresh token should outlive access token: %v", err)
	}

	weekLater := newTestCodec(t, fixedClock(issuedAt.Add(604801*time.Second)))
	if _, err := weekLater.Verify(pair.Refresh.Value); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected expired refresh token to be invalid, got %v", err)
	}
}

func TestTokenCodec_DistinctTokens(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	codec := newTestCodec(t, func() time.Time { return clock })

	first, err := codec.Issue("p1", domain.TokenAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	clock = start.Add(5 * time.Second)
	second, err := codec.Issue("p1", domain.TokenAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	sameInstant, err := codec.Issue("p1", domain.TokenAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if first.Value == second.Value || second.Value == sameInstant.Value {
		t.Fatalf("expected distinct token strings")
	}
	for _, tok := range []string{first.Value, second.Value, sameInstant.Value} {
		if _, err := codec.Verify(tok); err != nil {
			t.Fatalf("token should verify independently: %v", err)
		}
	}
}

func TestTokenCodec_VerifyRejects(t *testing.T) {
	codec := newTestCodec(t, nil)
	valid, err := codec.Issue("p1", domain.TokenAccess)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	otherKey, err := NewTokenCodec(TokenConfig{Secret: []byte(strings.Repeat("z", 40))})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	foreign, _ := otherKey.Issue("p1", domain.TokenAccess)

	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":        "p1",
		"token_type": "ACCESS",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub":        "p1",
		"token_type": "ACCESS",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "p1",
		"token_type": "ACCESS",
	}).SignedString([]byte(testSecret))

	badKind, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":        "p1",
		"token_type": "SESSION",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "ACCESS",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))

	suffix := "xx"
	if strings.HasSuffix(valid.Value, suffix) {
		suffix = "yy"
	}
	tampered := valid.Value[:len(valid.Value)-2] + suffix

	inputs := map[string]string{
		"empty":      "",
		"garbage":    "not-a-token",
		"dots":       "..",
		"foreign":    foreign.Value,
		"none alg":   noneAlg,
		"hs512":      hs512,
		"no exp":     noExp,
		"bad kind":   badKind,
		"no subject": noSubject,
		"tampered":   tampered,
	}
	for name, in := range inputs {
		if _, err := codec.Verify(in); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}

func TestTokenCodec_IssueRejectsBadInput(t *testing.T) {
	codec := newTestCodec(t, nil)

	if _, err := codec.Issue("", domain.TokenAccess); err == nil {
		t.Fatalf("expected error for empty principal id")
	}
	if _, err := codec.Issue("p1", "SESSION"); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}
