package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/farmtrack/farmtrack-api/docs"
	"github.com/farmtrack/farmtrack-api/internal/api/handler"
	"github.com/farmtrack/farmtrack-api/internal/api/middleware"
	"github.com/farmtrack/farmtrack-api/internal/core/ports"
)

// RouterDeps groups everything NewRouter wires together.
type RouterDeps struct {
	Auth     ports.AuthService
	Resolver ports.CredentialResolver
	Tokens   ports.TokenIssuer
	Audit    ports.AuditSink
	Cookies  middleware.CookieConfig
	// Rules defaults to middleware.DefaultRules when nil.
	Rules  []middleware.Rule
	Health map[string]handler.Pinger
	Log    zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps RouterDeps) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	rules := deps.Rules
	if rules == nil {
		rules = middleware.DefaultRules()
	}
	table, err := middleware.NewRouteTable(deps.Log, rules...)
	if err != nil {
		return nil, fmt.Errorf("route table: %w", err)
	}
	gate := middleware.NewRequestGate(deps.Resolver, deps.Tokens, deps.Audit, middleware.GateConfig{
		LoginPath: middleware.DefaultLoginPath,
		Cookies:   deps.Cookies,
	}, deps.Log)

	// Each router gets its own registry for HTTP metrics; auth metrics live in
	// the default registry and are gathered alongside.
	reg := prometheus.NewRegistry()
	promMiddleware, err := echoprometheus.MiddlewareConfig{
		Subsystem:  "http",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(promMiddleware)
	e.Use(gate.Handle, table.Authorize)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Cookies)
	e.POST(middleware.DefaultLoginPath, authHandler.Login)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/block/:email", authHandler.Block)
	e.POST("/auth/unblock/:email", authHandler.Unblock)
	e.GET("/auth/me", authHandler.Me)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler(deps.Health)
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)

	// --- Observability & docs ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{reg, prometheus.DefaultGatherer},
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Status >= http.StatusInternalServerError {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
