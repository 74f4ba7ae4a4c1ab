package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/farmtrack/farmtrack-api/internal/api/metrics"
	"github.com/farmtrack/farmtrack-api/internal/api/middleware"
	"github.com/farmtrack/farmtrack-api/internal/core/domain"
	"github.com/farmtrack/farmtrack-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookies     middleware.CookieConfig
}

func NewAuthHandler(authService ports.AuthService, cookies middleware.CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,max=50"`
	Name     string `json:"name"     validate:"required,max=50"`
	Role     string `json:"role"     validate:"required,role"`
}

// successResponse is the envelope of every successful auth response.
type successResponse struct {
	StatusCode int    `json:"status_code"`
	Subject    string `json:"subject"`
	Data       any    `json:"data,omitempty"`
}

type identityResponse struct {
	Principal *domain.Principal `json:"principal"`
	Role      domain.Role       `json:"role"`
	TokenKind domain.TokenKind  `json:"token_kind"`
}

// Login authenticates with email and password and sets the token cookies.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  successResponse
// @Failure      400   {object}  api.ErrorPayload
// @Failure      403   {object}  api.ErrorPayload
// @Failure      429   {object}  api.ErrorPayload
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	principal, pair, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		var authErr *domain.AuthError
		if errors.As(err, &authErr) {
			metrics.LoginsTotal.WithLabelValues(string(authErr.Code)).Inc()
		}
		return err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	h.cookies.WriteTokenPair(c, pair)
	return c.JSON(http.StatusOK, successResponse{
		StatusCode: http.StatusOK,
		Subject:    "Authorization succeed",
		Data:       principal,
	})
}

// Register creates a new account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  successResponse
// @Failure      401   {object}  api.ErrorPayload
// @Failure      403   {object}  api.ErrorPayload
// @Failure      409   {object}  api.ErrorPayload
// @Failure      422   {object}  api.ErrorPayload
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	principal, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
	}, actor(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, successResponse{
		StatusCode: http.StatusCreated,
		Subject:    "Registration succeed",
		Data:       principal,
	})
}

// Block disables an account; its tokens stop working on the next request.
//
// @Summary      Block a user
// @Tags         auth
// @Produce      json
// @Param        email  path      string  true  "Email of the user to block"
// @Success      200    {object}  successResponse
// @Failure      403    {object}  api.ErrorPayload
// @Failure      404    {object}  api.ErrorPayload
// @Router       /auth/block/{email} [post]
func (h *AuthHandler) Block(c echo.Context) error {
	principal, err := h.authService.Block(c.Request().Context(), c.Param("email"), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{
		StatusCode: http.StatusOK,
		Subject:    "User has been successfully blocked",
		Data:       principal,
	})
}

// Unblock re-enables an account.
//
// @Summary      Unblock a user
// @Tags         auth
// @Produce      json
// @Param        email  path      string  true  "Email of the user to unblock"
// @Success      200    {object}  successResponse
// @Failure      403    {object}  api.ErrorPayload
// @Failure      404    {object}  api.ErrorPayload
// @Router       /auth/unblock/{email} [post]
func (h *AuthHandler) Unblock(c echo.Context) error {
	principal, err := h.authService.Unblock(c.Request().Context(), c.Param("email"), actor(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{
		StatusCode: http.StatusOK,
		Subject:    "User has been successfully unblocked",
		Data:       principal,
	})
}

// Me returns the identity the request was authenticated as.
//
// @Summary      Current identity
// @Tags         auth
// @Produce      json
// @Success      200  {object}  successResponse
// @Failure      401  {object}  api.ErrorPayload
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	identity, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return &middleware.UnauthenticatedError{Cause: domain.ErrTokensExpired}
	}
	return c.JSON(http.StatusOK, successResponse{
		StatusCode: http.StatusOK,
		Subject:    "Current user",
		Data: identityResponse{
			Principal: identity.Principal,
			Role:      identity.Role,
			TokenKind: identity.Kind,
		},
	})
}

// actor is the email of the authenticated caller, used for the audit trail.
func actor(c echo.Context) string {
	if identity, ok := middleware.IdentityFrom(c.Request().Context()); ok {
		return identity.Principal.Email
	}
	return ""
}
