package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/oncall-roster/internal/config"
	"github.com/spec-kit/oncall-roster/internal/observability"
	"github.com/spec-kit/oncall-roster/internal/persistence"
	"github.com/spec-kit/oncall-roster/internal/storehost"
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

	store, cleanup, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to init document store", zap.Error(err))
	}
	defer cleanup()

	host := storehost.NewHost(store, logger)

	app := fiber.New()
	host.RegisterRoutes(app)

	go func() {
		if err := app.Listen(cfg.Store.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildStore(cfg *config.Config, logger *zap.Logger) (storehost.DocumentStore, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendPostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				pg.Close()
				return nil, nil, err
			}
		}
		return storehost.NewPostgresStore(pg.PoolHandle()), pg.Close, nil
	default:
		store, err := storehost.NewFileStore(cfg.Store.DataDir, cfg.Store.FileName)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
