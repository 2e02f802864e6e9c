package main

import (
	"flashsale-backend/internal/config"
	"flashsale-backend/internal/infrastructure/queue"
	"flashsale-backend/pkg/logger"
)

// asynqScheduler wraps queue.Scheduler with logging around shutdown
type asynqScheduler struct {
	*queue.Scheduler
}

// setupScheduler creates the scheduler, registers the periodic jobs and
// starts dispatching in the background.
func setupScheduler(cfg *config.Config) *asynqScheduler {
	scheduler := queue.NewScheduler(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)

	if err := scheduler.RegisterCheckoutJobs(); err != nil {
		logger.Fatal("failed to register scheduled jobs", err)
	}

	go func() {
		logger.Info("scheduler starting", nil)
		if err := scheduler.Start(); err != nil {
			logger.Fatal("scheduler failed", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

// Shutdown stops dispatching new periodic tasks.
func (s *asynqScheduler) Shutdown() {
	logger.Info("scheduler shutting down", nil)
	s.Scheduler.Shutdown()
}
