package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	holdModel "flashsale-backend/internal/domains/hold/model"
	holdService "flashsale-backend/internal/domains/hold/service"
	orderRepo "flashsale-backend/internal/domains/order/repository"
	orderService "flashsale-backend/internal/domains/order/service"
	"flashsale-backend/internal/domains/webhook/model"
	"flashsale-backend/internal/domains/webhook/repository"
	"flashsale-backend/internal/shared"
	"flashsale-backend/internal/shared/utils"
	"flashsale-backend/pkg/database"
	"flashsale-backend/pkg/logger"
)

// TaskEnqueuer is the slice of the queue client settlement uses to hand
// off hold releases it could not finish synchronously.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type WebhookService struct {
	db     database.TxBeginner
	logs   repository.RepositoryInterface
	orders orderRepo.RepositoryInterface
	settle orderService.ServiceInterface
	holds  holdService.ServiceInterface
	queue  TaskEnqueuer
}

// NewService creates a new webhook settlement service
func NewService(
	db database.TxBeginner,
	logs repository.RepositoryInterface,
	orders orderRepo.RepositoryInterface,
	settle orderService.ServiceInterface,
	holds holdService.ServiceInterface,
	queue TaskEnqueuer,
) ServiceInterface {
	return &WebhookService{
		db:     db,
		logs:   logs,
		orders: orders,
		settle: settle,
		holds:  holds,
		queue:  queue,
	}
}

// Handle implements ServiceInterface.Handle
func (s *WebhookService) Handle(ctx context.Context, req model.WebhookRequest, payload json.RawMessage) (*model.Result, error) {
	status := model.PaymentStatus(req.PaymentStatus)
	if !status.IsValid() {
		return nil, model.NewInvalidPaymentStatusError(req.PaymentStatus)
	}

	// The hold behind a cancelled order is released after commit, in its
	// own transaction, so the release sees the cancelled status.
	var cancelledHoldID int64

	result, err := database.WithTransactionResult(ctx, s.db, func(tx pgx.Tx) (*model.Result, error) {
		_, err := s.logs.GetByKey(ctx, tx, req.IdempotencyKey)
		if err == nil {
			return &model.Result{Status: model.ResultAlreadyProcessed, OrderID: req.OrderID}, nil
		}
		if !errors.Is(err, model.ErrLogNotFound) {
			return nil, err
		}

		exists, err := s.orders.Exists(ctx, tx, req.OrderID)
		if err != nil {
			return nil, err
		}

		log := &model.WebhookLog{
			IdempotencyKey: req.IdempotencyKey,
			Payload:        payload,
		}

		if !exists {
			log.Status = model.StatusPendingOrder
			if err := s.logs.Insert(ctx, tx, log); err != nil {
				return nil, err
			}
			return &model.Result{Status: model.ResultPendingOrder, OrderID: req.OrderID}, nil
		}

		now := time.Now().UTC()
		log.Status = model.StatusProcessed
		log.ProcessedAt = &now
		if err := s.logs.Insert(ctx, tx, log); err != nil {
			return nil, err
		}

		outcome, holdID, err := s.applyOutcome(ctx, tx, req.OrderID, status)
		if err != nil {
			return nil, err
		}
		cancelledHoldID = holdID
		return &model.Result{Status: outcome, OrderID: req.OrderID}, nil
	})
	if err != nil {
		// A concurrent delivery with the same key won the insert race;
		// its transaction carries the effect.
		if model.IsDuplicateKeyError(err) {
			return &model.Result{Status: model.ResultAlreadyProcessed, OrderID: req.OrderID}, nil
		}
		return nil, err
	}

	if cancelledHoldID != 0 {
		s.releaseCancelledHold(ctx, req.OrderID, cancelledHoldID)
	}
	return result, nil
}

// applyOutcome settles the order inside the caller's transaction and
// reports the hold to release when the order was cancelled.
func (s *WebhookService) applyOutcome(ctx context.Context, tx pgx.Tx, orderID int64, status model.PaymentStatus) (model.ResultStatus, int64, error) {
	switch status {
	case model.PaymentStatusSuccess:
		if _, err := s.settle.MarkPaidTx(ctx, tx, orderID); err != nil {
			return "", 0, err
		}
		return model.ResultSuccess, 0, nil
	case model.PaymentStatusFailed:
		order, err := s.settle.CancelTx(ctx, tx, orderID)
		if err != nil {
			return "", 0, err
		}
		return model.ResultFailed, order.HoldID, nil
	default:
		return "", 0, model.NewInvalidPaymentStatusError(string(status))
	}
}

// releaseCancelledHold returns the hold's stock in its own transaction.
// The expiry sweeper only watches fresh holds and a re-delivered webhook
// collapses to already_processed, so a failed release here goes to the
// release queue; nothing else would come back for it.
func (s *WebhookService) releaseCancelledHold(ctx context.Context, orderID, holdID int64) {
	released, err := s.holds.ReleaseHold(ctx, holdID)
	if err != nil {
		logger.ErrorWithFields("hold release after cancel failed", err, map[string]interface{}{
			"order_id": orderID,
			"hold_id":  holdID,
		})
		s.enqueueRelease(ctx, orderID, holdID)
		return
	}
	if !released {
		logger.Info("hold already settled when cancel tried to release it", map[string]interface{}{
			"order_id": orderID,
			"hold_id":  holdID,
		})
	}
}

// enqueueRelease schedules a queued retry for a hold the synchronous
// release left unreturned.
func (s *WebhookService) enqueueRelease(ctx context.Context, orderID, holdID int64) {
	task, err := utils.MarshalTask(shared.TypeReleaseHold, holdModel.ReleaseHoldPayload{HoldID: holdID})
	if err != nil {
		logger.ErrorWithFields("failed to marshal release retry", err, map[string]interface{}{
			"order_id": orderID,
			"hold_id":  holdID,
		})
		return
	}

	_, err = s.queue.EnqueueContext(ctx, task,
		asynq.TaskID(shared.ReleaseHoldTaskID(holdID)),
		asynq.Queue(shared.QueueDefault),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
	switch {
	case err == nil:
		logger.Info("queued release retry for cancelled order's hold", map[string]interface{}{
			"order_id": orderID,
			"hold_id":  holdID,
		})
	case errors.Is(err, asynq.ErrTaskIDConflict):
		// A sweep or an earlier delivery already scheduled this hold.
	default:
		logger.ErrorWithFields("failed to enqueue release retry", err, map[string]interface{}{
			"order_id": orderID,
			"hold_id":  holdID,
		})
	}
}

// ReconcilePending implements ServiceInterface.ReconcilePending
func (s *WebhookService) ReconcilePending(ctx context.Context, orderID int64) (int, error) {
	logs, err := s.logs.ListPendingOrder(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for i := range logs {
		log := &logs[i]

		var req model.WebhookRequest
		if err := json.Unmarshal(log.Payload, &req); err != nil {
			logger.ErrorWithFields("pending webhook payload is unparseable", err, map[string]interface{}{
				"log_id": log.ID,
			})
			continue
		}
		if req.OrderID != orderID {
			continue
		}

		if err := s.replayPending(ctx, log.ID, req); err != nil {
			logger.ErrorWithFields("pending webhook replay failed", err, map[string]interface{}{
				"log_id":   log.ID,
				"order_id": orderID,
			})
			continue
		}
		applied++
	}
	return applied, nil
}

// replayPending applies one parked delivery in its own transaction,
// flipping its log row to processed. The row stays pending on any error.
func (s *WebhookService) replayPending(ctx context.Context, logID int64, req model.WebhookRequest) error {
	var cancelledHoldID int64

	err := database.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		exists, err := s.orders.Exists(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("order %d still missing", req.OrderID)
		}

		_, holdID, err := s.applyOutcome(ctx, tx, req.OrderID, model.PaymentStatus(req.PaymentStatus))
		if err != nil {
			return err
		}
		cancelledHoldID = holdID

		return s.logs.MarkProcessed(ctx, tx, logID)
	})
	if err != nil {
		return err
	}

	if cancelledHoldID != 0 {
		s.releaseCancelledHold(ctx, req.OrderID, cancelledHoldID)
	}
	return nil
}
