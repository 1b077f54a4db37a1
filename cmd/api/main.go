package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/case-service/internal/api/http"
	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/config"
	"github.com/spec-kit/case-service/internal/events"
	"github.com/spec-kit/case-service/internal/observability"
	"github.com/spec-kit/case-service/internal/persistence"
	"github.com/spec-kit/case-service/internal/repository"
	"github.com/spec-kit/case-service/internal/service"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	caseRepo := repository.NewCaseRepository(pg.PoolHandle())
	if !cfg.Redis.CacheDisabled {
		caseRepo = repository.NewCachedCaseRepository(caseRepo, redis.Client, cfg.Redis.CacheTTL(), logger)
	}

	dispatcher := events.NewInMemoryDispatcher()
	registerAuditSubscribers(dispatcher, logger)

	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:   caseRepo,
		Dispatcher: dispatcher,
	})

	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics)
	casesHandler := handlers.NewCasesHandler(caseService)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: healthHandler,
		Cases:  casesHandler,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func registerAuditSubscribers(dispatcher events.Dispatcher, logger *zap.Logger) {
	dispatcher.Subscribe(events.EventCaseCreated, func(_ context.Context, event events.Event) error {
		logger.Info("case created", zap.String("case_id", event.CaseID))
		return nil
	})
	dispatcher.Subscribe(events.EventCaseStatusChanged, func(_ context.Context, event events.Event) error {
		payload, ok := event.Payload.(events.CaseStatusChangedPayload)
		if !ok {
			return nil
		}
		logger.Info("case status changed",
			zap.String("case_id", event.CaseID),
			zap.String("old_status", string(payload.OldStatus)),
			zap.String("new_status", string(payload.NewStatus)),
		)
		return nil
	})
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
