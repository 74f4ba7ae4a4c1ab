package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// CookieConfig controls the attributes of the token cookies.
type CookieConfig struct {
	Path   string
	Secure bool
}

// WriteTokenPair clears both token cookies and then sets them to the new pair,
// producing four Set-Cookie headers in that order.
func (cfg CookieConfig) WriteTokenPair(c echo.Context, pair domain.TokenPair) {
	c.SetCookie(cfg.cleared(AccessCookieName))
	c.SetCookie(cfg.cleared(RefreshCookieName))
	c.SetCookie(cfg.cookie(AccessCookieName, pair.Access))
	c.SetCookie(cfg.cookie(RefreshCookieName, pair.Refresh))
}

func (cfg CookieConfig) path() string {
	if cfg.Path == "" {
		return "/"
	}
	return cfg.Path
}

func (cfg CookieConfig) cleared(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     cfg.path(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (cfg CookieConfig) cookie(name string, token domain.IssuedToken) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    token.Value,
		Path:     cfg.path(),
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func readCredentials(c echo.Context) domain.Unresolved {
	var creds domain.Unresolved
	if ck, err := c.Cookie(AccessCookieName); err == nil {
		creds.Access = ck.Value
	}
	if ck, err := c.Cookie(RefreshCookieName); err == nil {
		creds.Refresh = ck.Value
	}
	return creds
}
