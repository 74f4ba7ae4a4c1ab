package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/farmtrack/farmtrack-api/internal/api/middleware"
	"github.com/farmtrack/farmtrack-api/internal/core/domain"
)

// ErrorPayload is the canonical error envelope for all API errors.
type ErrorPayload struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Renders 401 for protected routes reached without a resolved identity.
//   - Maps authentication/authorization failures and known domain errors to
//     deterministic HTTP codes.
//   - Logs unexpected errors internally without leaking details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, tag, msg := resolveError(err, log, c)
		_ = c.JSON(code, ErrorPayload{
			StatusCode: code,
			Error:      tag,
			Message:    msg,
			Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, string) {
	// Mid-session failures are authentication failures, whatever their code.
	var unauth *middleware.UnauthenticatedError
	if errors.As(err, &unauth) {
		return http.StatusUnauthorized, string(unauth.Cause.Code), unauth.Cause.Message
	}

	var authErr *domain.AuthError
	if errors.As(err, &authErr) {
		return authStatus(authErr.Code), string(authErr.Code), authErr.Message
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, httpTag(he.Code), fmt.Sprintf("%v", he.Message)
	}

	switch {
	case errors.Is(err, domain.ErrPrincipalNotFound):
		return http.StatusNotFound, "PRINCIPAL_NOT_FOUND", "user not found"
	case errors.Is(err, domain.ErrPrincipalExists):
		return http.StatusConflict, "PRINCIPAL_EXISTS", "user already exists"
	case errors.Is(err, domain.ErrInvalidPrincipal):
		return http.StatusBadRequest, "VALIDATION_FAILED", err.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Request().URL.Path).
		Msg("unhandled error")

	return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
}

// authStatus is the status of an auth failure raised directly by a use case
// (login, admin flows). Blocked accounts answer 403 at login.
func authStatus(code domain.AuthCode) int {
	switch code {
	case domain.CodeTokensExpired:
		return http.StatusUnauthorized
	case domain.CodeTooManyAttempts:
		return http.StatusTooManyRequests
	default:
		return http.StatusForbidden
	}
}

func httpTag(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	default:
		return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
	}
}
