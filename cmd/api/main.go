package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/grievance-service/internal/api/http"
	"github.com/spec-kit/grievance-service/internal/api/http/handlers"
	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/delivery"
	"github.com/spec-kit/grievance-service/internal/events"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/persistence"
	"github.com/spec-kit/grievance-service/internal/repository"
	"github.com/spec-kit/grievance-service/internal/scheduler"
	"github.com/spec-kit/grievance-service/internal/service"
	"github.com/spec-kit/grievance-service/internal/sla"
	"github.com/spec-kit/grievance-service/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	calculator := sla.NewCalculator()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	officerRepo := repository.NewOfficerRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	levelRepo := repository.NewLevelRepository(pool)
	regionRepo := repository.NewRegionRepository(pool)
	grievanceRepo := repository.NewGrievanceRepository(pool)
	noteRepo := repository.NewNoteRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	templateRepo := repository.NewTemplateRepository(pool)
	notificationLogRepo := repository.NewNotificationLogRepository(pool)

	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, officerRepo, resetRepo, tokenManager, cfg.Auth, logger)
	authMiddleware := auth.NewAuthMiddleware(tokenManager, userRepo, officerRepo)

	grievanceService := service.NewGrievanceService(service.GrievanceDependencies{
		GrievanceRepo: grievanceRepo,
		RegionRepo:    regionRepo,
		LevelRepo:     levelRepo,
		ProjectRepo:   projectRepo,
		NoteRepo:      noteRepo,
		ActivityRepo:  activityRepo,
		Calculator:    calculator,
		Dispatcher:    dispatcher,
	})
	escalationService := service.NewEscalationService(service.EscalationDependencies{
		GrievanceRepo:  grievanceRepo,
		RegionRepo:     regionRepo,
		LevelRepo:      levelRepo,
		EscalationRepo: escalationRepo,
		ActivityRepo:   activityRepo,
		Calculator:     calculator,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	monitorService := service.NewMonitorService(service.MonitorDependencies{
		GrievanceRepo: grievanceRepo,
		RegionRepo:    regionRepo,
		LevelRepo:     levelRepo,
		Escalator:     escalationService,
		Calculator:    calculator,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Locker:        redis,
		Logger:        logger,
		BatchSize:     cfg.Monitor.BatchSize,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		TemplateRepo:  templateRepo,
		LogRepo:       notificationLogRepo,
		UserRepo:      userRepo,
		RegionRepo:    regionRepo,
		GrievanceRepo: grievanceRepo,
		Sender:        delivery.NewLogSender(logger),
		Metrics:       metrics,
		Logger:        logger,
	})
	regionService := service.NewRegionService(regionRepo, levelRepo, projectRepo)
	statsService := service.NewStatsService(grievanceRepo, regionRepo)

	notificationWorker := worker.NewNotificationWorker(notificationService, dispatcher, logger)
	notificationWorker.Start()

	sched := scheduler.New(monitorService, cfg.Monitor, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:             handlers.NewUsersHandler(authService),
		Officers:          handlers.NewOfficersHandler(authService),
		Grievances:        handlers.NewGrievancesHandler(grievanceService),
		OfficerGrievances: handlers.NewOfficerGrievancesHandler(grievanceService, escalationService, notificationService),
		Admin:             handlers.NewAdminHandler(regionService, statsService, monitorService, projectRepo, templateRepo),
		Public:            handlers.NewPublicHandler(statsService),
		AuthMiddleware:    authMiddleware,
		Metrics:           metrics,
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
