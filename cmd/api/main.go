package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/civic-desk/complaint-service/internal/api/http"
	"github.com/civic-desk/complaint-service/internal/api/http/handlers"
	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/classifier"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/events"
	"github.com/civic-desk/complaint-service/internal/observability"
	"github.com/civic-desk/complaint-service/internal/persistence"
	"github.com/civic-desk/complaint-service/internal/repository"
	"github.com/civic-desk/complaint-service/internal/service"
	"github.com/civic-desk/complaint-service/internal/worker"
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	userRepo, ticketRepo := buildRepositories(pg)
	statsCache := repository.NewRedisStatsCache(redis.Handle(), cfg.Redis.StatsTTL())

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, cfg.Notification), logger)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, tokens, userRepo).WithStatsCache(statsCache)
	intakeService := service.NewIntakeService(service.IntakeDependencies{
		Classifier: classifier.New(cfg.Classifier, logger),
		TicketRepo: ticketRepo,
		StatsCache: statsCache,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Intake,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		UserRepo:   userRepo,
		StatsCache: statsCache,
		Dispatcher: dispatcher,
		Logger:     logger,
	})

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Chat:           handlers.NewChatHandler(intakeService, ticketService, logger),
		Dashboard:      handlers.NewDashboardHandler(authService, ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, userRepo),
		Gatherer:       registry,
	})

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(sigCtx)
	group.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		return app.Shutdown()
	})

	if err := group.Wait(); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}

// buildRepositories falls back to in-memory stores when no database is configured.
func buildRepositories(pg *persistence.Postgres) (repository.UserRepository, repository.TicketRepository) {
	if !pg.Enabled() {
		return repository.NewInMemoryUserRepository(), repository.NewInMemoryTicketRepository()
	}
	pool := pg.PoolHandle()
	return repository.NewUserRepository(pool), repository.NewTicketRepository(pool)
}
