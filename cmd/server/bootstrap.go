package main

import (
	"context"
	"fmt"

	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/handlers"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/internal/utils"
	"github.com/runclub/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	db             *gorm.DB
	taskQueue      services.TaskQueue
	worker         *services.Worker
	scheduler      *services.Scheduler
	sessionService *services.SessionService
	writeLimiter   *middleware.RateLimiter

	authHandler    *handlers.AuthHandler
	runHandler     *handlers.RunHandler
	userHandler    *handlers.UserHandler
	healthHandler  *handlers.HealthHandler
	metricsHandler *handlers.MetricsHandler
	logHandler     *handlers.SystemLogHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) (*appServices, error) {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if err := models.InitDB(&cfg.Database); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db := models.GetDB()

	if err := models.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	services.InitSystemLogger(db)

	// Tally tasks go through Redis when available, in-process otherwise.
	tally := services.NewTallyService(db)
	taskQueue := services.NewTaskQueue(&cfg.Redis)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(tally.Process)
	}

	var worker *services.Worker
	if taskQueue.IsAsync() {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(tally.Process)
			if err := worker.Start(); err != nil {
				return nil, fmt.Errorf("start worker: %w", err)
			}
		}
	}

	var scheduler *services.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = services.NewScheduler(db, cfg.Scheduler, tally, taskQueue)
		if err := scheduler.Start(); err != nil {
			return nil, fmt.Errorf("start scheduler: %w", err)
		}
	}

	return &appServices{
		db:             db,
		taskQueue:      taskQueue,
		worker:         worker,
		scheduler:      scheduler,
		sessionService: services.NewSessionService(db),
		writeLimiter:   middleware.NewRateLimiter(5, 20),
		authHandler:    handlers.NewAuthHandler(db, cfg),
		runHandler:     handlers.NewRunHandler(db, cfg),
		userHandler:    handlers.NewUserHandler(db, cfg),
		healthHandler:  handlers.NewHealthHandler(db, taskQueue),
		metricsHandler: handlers.NewMetricsHandler(db, taskQueue),
		logHandler:     handlers.NewSystemLogHandler(db),
	}, nil
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown(ctx context.Context) {
	if s.scheduler != nil {
		s.scheduler.Stop(ctx)
		logger.Info().Msg("Scheduler stopped")
	}
	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		if err := s.taskQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task queue")
		}
	}
	if s.writeLimiter != nil {
		s.writeLimiter.Stop()
	}
	services.InitSystemLogger(nil)
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close database")
		}
	}
}
