package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticketing-api/internal/api/http"
	"github.com/spec-kit/ticketing-api/internal/api/http/handlers"
	"github.com/spec-kit/ticketing-api/internal/config"
	"github.com/spec-kit/ticketing-api/internal/events"
	"github.com/spec-kit/ticketing-api/internal/observability"
	"github.com/spec-kit/ticketing-api/internal/persistence"
	"github.com/spec-kit/ticketing-api/internal/repository"
	"github.com/spec-kit/ticketing-api/internal/service"
	"github.com/spec-kit/ticketing-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	deps := map[string]handlers.Pinger{"postgres": pg}

	var store session.Store
	switch cfg.Session.Backend {
	case "memory":
		logger.Warn("using in-process session store; sessions are lost on restart")
		store = session.NewMemoryStore()
	default:
		redis := persistence.NewRedis(cfg.Redis, logger)
		defer redis.Close()
		store = session.NewRedisStore(redis.Client)
		deps["redis"] = redis
	}

	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	pool := pg.PoolHandle()
	app := httptransport.NewServer(httptransport.ServerDeps{
		Config:       cfg,
		Logger:       logger,
		Metrics:      observability.NewMetrics(),
		Users:        repository.NewUserRepository(pool),
		Tickets:      repository.NewTicketRepository(pool),
		SessionStore: store,
		Dispatcher:   dispatcher,
		Dependencies: deps,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
