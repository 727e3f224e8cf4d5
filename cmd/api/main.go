package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/engagement-marketplace/internal/api/http"
	"github.com/spec-kit/engagement-marketplace/internal/api/http/handlers"
	"github.com/spec-kit/engagement-marketplace/internal/auth"
	"github.com/spec-kit/engagement-marketplace/internal/clock"
	"github.com/spec-kit/engagement-marketplace/internal/config"
	"github.com/spec-kit/engagement-marketplace/internal/events"
	"github.com/spec-kit/engagement-marketplace/internal/idgen"
	"github.com/spec-kit/engagement-marketplace/internal/lock"
	"github.com/spec-kit/engagement-marketplace/internal/marketplace"
	"github.com/spec-kit/engagement-marketplace/internal/observability"
	"github.com/spec-kit/engagement-marketplace/internal/persistence"
	"github.com/spec-kit/engagement-marketplace/internal/repository"
	"github.com/spec-kit/engagement-marketplace/internal/service"
)

const shutdownTimeout = 10 * time.Second

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

	dependencies := map[string]handlers.Pinger{}

	var store repository.Store
	switch cfg.Marketplace.StoreBackend {
	case config.StorePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
		dependencies["postgres"] = pg
	default:
		logger.Warn("using in-memory store; state is lost on restart")
		store = repository.NewMemoryStore()
	}

	ids := idgen.NewUUID()
	var locker lock.Locker
	switch cfg.Marketplace.LockBackend {
	case config.LockRedis:
		redis, err := persistence.NewRedis(ctx, cfg.Redis, true, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redis.Close()
		locker = lock.NewRedisLocker(redis.Client, cfg.Marketplace.LockTTL(), ids)
		dependencies["redis"] = redis
	default:
		locker = lock.NewKeyedMutex()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger, cfg.Notification).RegisterHandlers()

	market := marketplace.New(marketplace.Dependencies{
		Store:       store,
		Locker:      locker,
		IDs:         ids,
		Clock:       clock.System(),
		Dispatcher:  dispatcher,
		Logger:      logger,
		Metrics:     metrics,
		LockTimeout: cfg.Marketplace.LockTimeout(),
	})
	if cfg.Marketplace.SeedDefaultTasks {
		if _, err := market.SeedCatalog(ctx); err != nil {
			logger.Fatal("failed to seed task catalog", zap.Error(err))
		}
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		Store:  store,
		IDs:    ids,
		Logger: logger,
	})
	if cfg.Auth.AdminEmail != "" {
		if _, _, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store)

	app := httptransport.NewApp(cfg.App.Name, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.AllowedOrigins(),
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies),
		Auth:           handlers.NewAuthHandler(authService),
		Account:        handlers.NewAccountHandler(market),
		Tasks:          handlers.NewTasksHandler(market, cfg.Marketplace.LeaderboardSize),
		Admin:          handlers.NewAdminHandler(market),
		Campaigns:      handlers.NewCampaignsHandler(market),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", string(cfg.Marketplace.StoreBackend)),
			zap.String("lock", string(cfg.Marketplace.LockBackend)))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
