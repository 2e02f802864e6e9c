package main

import (
	"context"

	"github.com/hibiken/asynq"

	"flashsale-backend/internal/config"
	"flashsale-backend/internal/shared"
	"flashsale-backend/pkg/logger"
)

// asynqServer wraps asynq.Server with logging around shutdown
type asynqServer struct {
	*asynq.Server
}

// setupAsynqServer creates and configures the Asynq server and starts it
// in the background. Release tasks keep stock accurate during a sale, so
// the critical queue gets most of the worker slots.
func setupAsynqServer(cfg *config.Config, handlers *HandlerRegistry) *asynqServer {
	mux := asynq.NewServeMux()
	handlers.RegisterHandlers(mux)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Host,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				shared.QueueCritical: 6,
				shared.QueueDefault:  3,
				shared.QueueLow:      1,
			},
			Concurrency: cfg.Worker.Concurrency,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.ErrorWithFields("task failed", err, map[string]interface{}{
					"type": task.Type(),
				})
			}),
		},
	)

	go func() {
		logger.Info("worker starting", map[string]interface{}{
			"concurrency": cfg.Worker.Concurrency,
		})
		if err := srv.Run(mux); err != nil {
			logger.Fatal("worker failed", err)
		}
	}()

	return &asynqServer{Server: srv}
}

// Shutdown waits for in-flight tasks to finish.
func (s *asynqServer) Shutdown() {
	logger.Info("worker draining tasks", nil)
	s.Server.Shutdown()
}
