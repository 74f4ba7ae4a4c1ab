// @title        farmtrack API
// @version      1.0
// @description  Cookie-based dual-token authentication gate of the farmtrack API.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/farmtrack/farmtrack-api/internal/api"
	"github.com/farmtrack/farmtrack-api/internal/api/handler"
	"github.com/farmtrack/farmtrack-api/internal/api/middleware"
	"github.com/farmtrack/farmtrack-api/internal/core/service"
	"github.com/farmtrack/farmtrack-api/internal/infrastructure/db/mongo"
	"github.com/farmtrack/farmtrack-api/internal/infrastructure/db/redis"
	"github.com/farmtrack/farmtrack-api/internal/infrastructure/queue"
	"github.com/farmtrack/farmtrack-api/internal/pkg/config"
	"github.com/farmtrack/farmtrack-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "farmtrack-api",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mongodb")
	}
	defer func() {
		_ = mongoClient.Disconnect(context.Background())
	}()

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()

	principals := mongo.NewPrincipalRepository(db)
	auditRepo := mongo.NewAuditRepository(db)
	if err := principals.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create principal indexes")
	}
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to create audit indexes")
	}

	codec, err := service.NewTokenCodec(service.TokenConfig{
		Secret:     []byte(cfg.JWTSecret),
		AccessTTL:  cfg.Auth.AccessTTL,
		RefreshTTL: cfg.Auth.RefreshTTL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build token codec")
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, auditRepo, logger.Component("audit"))
	dispatcher.Start(workerCtx)

	authService := service.NewAuthService(service.AuthDependencies{
		Store:      principals,
		Tokens:     codec,
		Throttle:   redis.NewLoginThrottle(rdb, cfg.Login.MaxFailures, cfg.Login.FailureWindow),
		Audit:      dispatcher,
		BcryptCost: cfg.Auth.BcryptCost,
		Log:        logger.Component("auth"),
	})
	if err := authService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin")
	}

	e, err := api.NewRouter(api.RouterDeps{
		Auth:     authService,
		Resolver: service.NewCredentialResolver(codec, principals),
		Tokens:   codec,
		Audit:    dispatcher,
		Cookies:  middleware.CookieConfig{Path: "/", Secure: cfg.Auth.CookieSecure},
		Health: map[string]handler.Pinger{
			"mongodb": handler.MongoPinger(db),
			"redis":   handler.RedisPinger(rdb),
		},
		Log: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(log)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("shutdown complete")
}

func waitForShutdown(log zerolog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")
}
