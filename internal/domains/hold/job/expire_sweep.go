package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/domains/hold/service"
	"flashsale-backend/internal/shared"
	"flashsale-backend/internal/shared/utils"
	"flashsale-backend/pkg/logger"
)

// TaskEnqueuer is the slice of the queue client the sweeper uses.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

const sweepBatchSize = 500

// ExpireHoldsSweepHandler enumerates holds whose TTL elapsed while still
// fresh and fans each out as a uniquely-keyed release task, so a hold
// spotted by overlapping sweeps gets released exactly once.
type ExpireHoldsSweepHandler struct {
	holdService service.ServiceInterface
	queue       TaskEnqueuer
}

func NewExpireHoldsSweepHandler(holdService service.ServiceInterface, queue TaskEnqueuer) *ExpireHoldsSweepHandler {
	return &ExpireHoldsSweepHandler{
		holdService: holdService,
		queue:       queue,
	}
}

func (h *ExpireHoldsSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var scanned, enqueued, duplicates, failed int
	var cursor int64

	for {
		holds, err := h.holdService.ListExpired(ctx, cursor, sweepBatchSize)
		if err != nil {
			return fmt.Errorf("list expired holds: %w", err)
		}
		if len(holds) == 0 {
			break
		}

		for _, hold := range holds {
			scanned++
			cursor = hold.ID

			task, err := utils.MarshalTask(shared.TypeReleaseHold, model.ReleaseHoldPayload{HoldID: hold.ID})
			if err != nil {
				return fmt.Errorf("marshal release task: %w", err)
			}

			_, err = h.queue.EnqueueContext(ctx, task,
				asynq.TaskID(shared.ReleaseHoldTaskID(hold.ID)),
				asynq.Queue(shared.QueueDefault),
				asynq.MaxRetry(3),
				asynq.Timeout(30*time.Second),
			)
			switch {
			case err == nil:
				enqueued++
			case errors.Is(err, asynq.ErrTaskIDConflict):
				// An earlier sweep already scheduled this hold.
				duplicates++
			default:
				logger.Warn("Failed to enqueue release task", map[string]interface{}{
					"hold_id": hold.ID,
					"error":   err.Error(),
				})
				failed++
			}
		}

		if len(holds) < sweepBatchSize {
			break
		}
	}

	if scanned > 0 {
		logger.Info("Completed expire holds sweep", map[string]interface{}{
			"scanned":    scanned,
			"enqueued":   enqueued,
			"duplicates": duplicates,
			"failed":     failed,
		})
	}

	if failed > 0 {
		// Retrying the sweep is safe: task ids collapse re-dispatches.
		return fmt.Errorf("expire sweep: %d of %d release tasks failed to enqueue", failed, scanned)
	}
	return nil
}
