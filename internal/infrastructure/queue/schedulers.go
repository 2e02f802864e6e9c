package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/shared"
	"flashsale-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddr, redisPassword string, redisDB int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr, Password: redisPassword, DB: redisDB},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

// RegisterCheckoutJobs registers every periodic task the checkout core
// needs.
func (s *Scheduler) RegisterCheckoutJobs() error {
	return s.registerExpireHoldsSweep()
}

// registerExpireHoldsSweep schedules the minutely sweep that finds holds
// past their TTL and fans out release tasks for them. The sweep itself is
// cheap; a missed run is covered by the next one, so a single retry is
// enough.
func (s *Scheduler) registerExpireHoldsSweep() error {
	payload, err := json.Marshal(model.ExpireHoldsSweepPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypeExpireHoldsSweep, payload)

	_, err = s.scheduler.Register(
		"* * * * *", // every minute
		task,
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(time.Minute),
	)

	if err != nil {
		logger.Error("failed to register ExpireHoldsSweep job", err)
		return err
	}

	logger.Info("registered ExpireHoldsSweep: every minute", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
