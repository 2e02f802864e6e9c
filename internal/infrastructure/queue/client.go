package queue

import (
	"github.com/hibiken/asynq"
)

// NewClient builds the asynq client used to enqueue background tasks.
// Callers own Close.
func NewClient(redisAddr, redisPassword string, redisDB int) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})
}
