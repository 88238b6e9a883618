package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/vnoc/incident-tracker/internal/api/http"
	"github.com/vnoc/incident-tracker/internal/api/http/handlers"
	"github.com/vnoc/incident-tracker/internal/auth"
	"github.com/vnoc/incident-tracker/internal/config"
	"github.com/vnoc/incident-tracker/internal/events"
	"github.com/vnoc/incident-tracker/internal/observability"
	"github.com/vnoc/incident-tracker/internal/persistence"
	"github.com/vnoc/incident-tracker/internal/repository"
	"github.com/vnoc/incident-tracker/internal/service"
	"github.com/vnoc/incident-tracker/internal/worker"
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

	metrics := observability.NewMetrics()

	var (
		store      *repository.Store
		postgresUp handlers.Pinger
	)
	if cfg.Storage.UseMockData {
		seed, err := repository.LoadSeedFile(cfg.Storage.SeedFile)
		if err != nil {
			logger.Fatal("failed to load seed data", zap.String("path", cfg.Storage.SeedFile), zap.Error(err))
		}
		store = repository.NewMemoryStore(seed).Store()
		logger.Info("serving tickets from memory", zap.Int("tickets", len(seed)))
	} else {
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.PoolHandle())
		postgresUp = pg
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	dispatcher := events.NewInMemoryDispatcher(logger)
	var relay *events.RedisRelay
	if redis.Enabled() {
		relay = events.NewRedisRelay(redis.Client, cfg.Redis.EventsChannel)
	}

	deps := service.Dependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	}
	ticketService := service.NewTicketService(deps)
	dashboardService := service.NewDashboardService(deps)
	notificationService := service.NewNotificationService(deps, cfg.Notification)
	worker.StartNotificationWorker(dispatcher, notificationService, relay)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL())
	authMiddleware := auth.NewAuthMiddleware(tokens, cfg.Auth, logger)
	if cfg.Auth.SkipAuth {
		logger.Warn("SKIP_AUTH enabled; requests run as mock operator", zap.String("username", cfg.Auth.MockUsername))
	}

	app := httptransport.NewServer(httptransport.ServerOptions{
		AppName:        cfg.App.Name,
		MaxUploadBytes: cfg.Upload.MaxBytes,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, postgresUp, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Attachments:    handlers.NewAttachmentsHandler(ticketService, cfg.Upload, logger),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		Users:          handlers.NewUsersHandler(),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		UploadDir:      cfg.Upload.Dir,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
