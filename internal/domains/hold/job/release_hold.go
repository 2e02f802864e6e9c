package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/domains/hold/service"
	"flashsale-backend/internal/shared/utils"
	"flashsale-backend/pkg/logger"
)

// ================================================
// RELEASE HOLD JOB HANDLER
// ================================================

type ReleaseHoldHandler struct {
	holdService service.ServiceInterface
}

func NewReleaseHoldHandler(holdService service.ServiceInterface) *ReleaseHoldHandler {
	return &ReleaseHoldHandler{holdService: holdService}
}

func (h *ReleaseHoldHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.ReleaseHoldPayload
	if err := utils.UnmarshalTask(t, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	released, err := h.holdService.ReleaseHold(ctx, payload.HoldID)
	if err != nil {
		// Contention and deadlocks are transient; returning the error
		// lets the queue retry the task.
		return fmt.Errorf("release hold %d: %w", payload.HoldID, err)
	}

	if released {
		logger.Info("Released hold", map[string]interface{}{
			"hold_id": payload.HoldID,
		})
	} else {
		logger.Debug("Hold already settled, nothing to release", map[string]interface{}{
			"hold_id": payload.HoldID,
		})
	}

	return nil
}
