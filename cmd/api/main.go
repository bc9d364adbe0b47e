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

	httptransport "github.com/spec-kit/learning-platform/internal/api/http"
	"github.com/spec-kit/learning-platform/internal/api/http/handlers"
	"github.com/spec-kit/learning-platform/internal/auth"
	"github.com/spec-kit/learning-platform/internal/cache"
	"github.com/spec-kit/learning-platform/internal/config"
	"github.com/spec-kit/learning-platform/internal/events"
	"github.com/spec-kit/learning-platform/internal/notify"
	"github.com/spec-kit/learning-platform/internal/observability"
	"github.com/spec-kit/learning-platform/internal/persistence"
	"github.com/spec-kit/learning-platform/internal/repository"
	"github.com/spec-kit/learning-platform/internal/repository/memory"
	"github.com/spec-kit/learning-platform/internal/service"
	"github.com/spec-kit/learning-platform/internal/validator"
	"github.com/spec-kit/learning-platform/internal/worker"
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

	var store repository.Store
	if cfg.Postgres.DSN != "" {
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
	} else {
		logger.Warn("POSTGRES_DSN not provided; using in-memory store")
		store = memory.NewStore()
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	courseCache := cache.NewHelper(redis.Handle(), cache.CoursePrefix, cfg.Cache.CourseTTL())

	wmLogger := observability.NewWatermillLogger(logger)
	bus, err := events.NewBus(cfg.Events, wmLogger)
	if err != nil {
		logger.Fatal("failed to init event bus", zap.Error(err))
	}
	logger.Info("event bus ready", zap.String("kind", bus.Kind), zap.String("topic", cfg.Events.Topic))

	workflowDeps := service.WorkflowDependencies{
		Store:      store,
		Cache:      courseCache,
		Dispatcher: events.NewDispatcher(bus.Publisher, cfg.Events.Topic),
		Metrics:    metrics,
		Logger:     logger,
	}

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: store.Users(),
		Logger:   logger,
	})
	userService := service.NewUserService(cfg.Auth, service.UserDependencies{Store: store, Logger: logger})
	courseService := service.NewCourseService(service.CourseDependencies{
		Store:  store,
		Cache:  courseCache,
		Logger: logger,
	})
	enrollmentService := service.NewEnrollmentService(workflowDeps)
	ratingService := service.NewRatingService(workflowDeps)
	analyticsService := service.NewAnalyticsService(store, nil)
	reconcileService := service.NewReconcileService(store, logger)

	notifyDeps := service.NotificationDependencies{Logger: logger}
	if cfg.Notification.SendGridAPIKey != "" {
		notifyDeps.Mailer = notify.NewSendGridMailer(cfg.Notification.SendGridAPIKey, cfg.App.Name, cfg.Notification.EmailFrom)
	}
	if cfg.Notification.WebhookURL != "" {
		notifyDeps.Webhook = notify.NewWebhook(cfg.Notification.WebhookURL, cfg.Notification.WebhookTimeout())
	}
	notificationService := service.NewNotificationService(notifyDeps)

	notificationWorker, err := worker.NewNotificationWorker(bus.Subscriber, cfg.Events.Topic, notificationService, logger, wmLogger)
	if err != nil {
		logger.Fatal("failed to init notification worker", zap.Error(err))
	}
	go func() {
		if err := notificationWorker.Run(ctx); err != nil {
			logger.Error("notification worker stopped", zap.Error(err))
		}
	}()

	var scheduler *worker.ReconcileScheduler
	if cfg.Reconcile.Cron != "" {
		scheduler, err = worker.NewReconcileScheduler(cfg.Reconcile.Cron, reconcileService, logger)
		if err != nil {
			logger.Fatal("failed to init reconcile scheduler", zap.Error(err))
		}
		scheduler.Start()
	}

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Users())
	v := validator.New()

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, cfg.HTTP, logger, metrics)

	var redisPinger handlers.Pinger
	if redis != nil {
		redisPinger = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		HTTP:           cfg.HTTP,
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, store, redisPinger),
		Auth:           handlers.NewAuthHandler(authService, v),
		Courses:        handlers.NewCoursesHandler(courseService, enrollmentService, ratingService, v),
		Users:          handlers.NewUsersHandler(userService, v),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
		Logger:         logger,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
	if err := notificationWorker.Close(); err != nil {
		logger.Warn("notification worker close", zap.Error(err))
	}
	if err := bus.Close(); err != nil {
		logger.Warn("event bus close", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
