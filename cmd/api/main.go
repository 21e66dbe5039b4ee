package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/oncall-roster/internal/api/http"
	"github.com/spec-kit/oncall-roster/internal/api/http/handlers"
	"github.com/spec-kit/oncall-roster/internal/auth"
	"github.com/spec-kit/oncall-roster/internal/cache"
	"github.com/spec-kit/oncall-roster/internal/config"
	"github.com/spec-kit/oncall-roster/internal/events"
	"github.com/spec-kit/oncall-roster/internal/observability"
	"github.com/spec-kit/oncall-roster/internal/remote"
	"github.com/spec-kit/oncall-roster/internal/service"
	"github.com/spec-kit/oncall-roster/internal/syncer"
	"github.com/spec-kit/oncall-roster/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	redisStore := cache.NewRedisStore(cfg.Redis, logger)
	defer redisStore.Close()

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartSyncMonitor(dispatcher, logger, metrics)

	remoteClient := remote.NewHTTPClient(cfg.Remote)
	engine := syncer.New(remoteClient, redisStore, dispatcher, metrics, logger)
	defer engine.Close()

	rosterService := service.NewRosterService(engine, logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	gate, err := auth.NewGate(cfg.Auth.AdminPassword, cfg.Auth.BcryptCost, tokens)
	if err != nil {
		logger.Fatal("failed to init admin gate", zap.Error(err))
	}

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, redisStore),
		Auth:   handlers.NewAuthHandler(gate),
		Roster: handlers.NewRosterHandler(rosterService),
		Admin:  handlers.NewAdminHandler(rosterService),
		Gate:   gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
