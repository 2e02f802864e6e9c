package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	holdModel "flashsale-backend/internal/domains/hold/model"
	orderModel "flashsale-backend/internal/domains/order/model"
	"flashsale-backend/internal/domains/webhook/model"
	"flashsale-backend/internal/shared"
)

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rollbacks++
	return nil
}

type fakeDB struct {
	tx     *fakeTx
	begins int
}

func (db *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	db.begins++
	return db.tx, nil
}

// MockWebhookRepository is a mock implementation of the webhook log repository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) GetByKey(ctx context.Context, tx pgx.Tx, key string) (*model.WebhookLog, error) {
	args := m.Called(ctx, tx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WebhookLog), args.Error(1)
}

func (m *MockWebhookRepository) Insert(ctx context.Context, tx pgx.Tx, log *model.WebhookLog) error {
	args := m.Called(ctx, tx, log)
	return args.Error(0)
}

func (m *MockWebhookRepository) ListPendingOrder(ctx context.Context) ([]model.WebhookLog, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WebhookLog), args.Error(1)
}

func (m *MockWebhookRepository) MarkProcessed(ctx context.Context, tx pgx.Tx, id int64) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockOrderRepository is a mock implementation of the order repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Insert(ctx context.Context, tx pgx.Tx, order *orderModel.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetForSettlement(ctx context.Context, tx pgx.Tx, id int64) (*orderModel.OrderWithHold, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.OrderWithHold), args.Error(1)
}

func (m *MockOrderRepository) Exists(ctx context.Context, tx pgx.Tx, id int64) (bool, error) {
	args := m.Called(ctx, tx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id int64, from, to orderModel.OrderStatus) error {
	args := m.Called(ctx, tx, id, from, to)
	return args.Error(0)
}

// MockOrderService is a mock implementation of the order settlement service
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateFromHold(ctx context.Context, holdID int64) (*orderModel.Order, error) {
	args := m.Called(ctx, holdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) MarkPaidTx(ctx context.Context, tx pgx.Tx, orderID int64) (*orderModel.Order, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

func (m *MockOrderService) CancelTx(ctx context.Context, tx pgx.Tx, orderID int64) (*orderModel.Order, error) {
	args := m.Called(ctx, tx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orderModel.Order), args.Error(1)
}

// MockHoldService is a mock implementation of the hold manager
type MockHoldService struct {
	mock.Mock
}

func (m *MockHoldService) CreateHold(ctx context.Context, productID, qty int64) (*holdModel.Hold, error) {
	args := m.Called(ctx, productID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*holdModel.Hold), args.Error(1)
}

func (m *MockHoldService) ReleaseHold(ctx context.Context, holdID int64) (bool, error) {
	args := m.Called(ctx, holdID)
	return args.Bool(0), args.Error(1)
}

func (m *MockHoldService) ListExpired(ctx context.Context, afterID int64, limit int) ([]holdModel.Hold, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]holdModel.Hold), args.Error(1)
}

// MockEnqueuer is a mock implementation of the settlement's queue client slice
type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

// releaseTaskForHold matches a release task carrying the given hold id.
func releaseTaskForHold(holdID int64) interface{} {
	return mock.MatchedBy(func(task *asynq.Task) bool {
		if task.Type() != shared.TypeReleaseHold {
			return false
		}
		var p holdModel.ReleaseHoldPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			return false
		}
		return p.HoldID == holdID
	})
}

// withTaskID matches enqueue options carrying the given dedup task id.
func withTaskID(id string) interface{} {
	return mock.MatchedBy(func(opts []asynq.Option) bool {
		for _, opt := range opts {
			if opt.Type() == asynq.TaskIDOpt && opt.Value() == id {
				return true
			}
		}
		return false
	})
}

type webhookServiceFixture struct {
	svc    ServiceInterface
	db     *fakeDB
	logs   *MockWebhookRepository
	orders *MockOrderRepository
	settle *MockOrderService
	holds  *MockHoldService
	queue  *MockEnqueuer
}

func newWebhookServiceFixture() *webhookServiceFixture {
	f := &webhookServiceFixture{
		db:     &fakeDB{tx: &fakeTx{}},
		logs:   new(MockWebhookRepository),
		orders: new(MockOrderRepository),
		settle: new(MockOrderService),
		holds:  new(MockHoldService),
		queue:  new(MockEnqueuer),
	}
	f.svc = NewService(f.db, f.logs, f.orders, f.settle, f.holds, f.queue)
	return f
}

func webhookReq(status string) (model.WebhookRequest, json.RawMessage) {
	req := model.WebhookRequest{OrderID: 500, PaymentStatus: status, IdempotencyKey: "pay_abc123"}
	payload, _ := json.Marshal(req)
	return req, payload
}

func TestHandle_RejectsUnknownPaymentStatus(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("refunded")

	result, err := f.svc.Handle(context.Background(), req, payload)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, model.ErrInvalidPaymentStatus)
	// Rejected before anything is written.
	assert.Equal(t, 0, f.db.begins)
}

func TestHandle_DuplicateKeyShortCircuits(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("success")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").
		Return(&model.WebhookLog{ID: 1, IdempotencyKey: "pay_abc123", Status: model.StatusProcessed}, nil)

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultAlreadyProcessed, result.Status)
	assert.Equal(t, int64(500), result.OrderID)
	f.logs.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
	f.settle.AssertNotCalled(t, "MarkPaidTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_SuccessSettlesOrder(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("success")

	var captured *model.WebhookLog
	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.AnythingOfType("*model.WebhookLog")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*model.WebhookLog)
		}).
		Return(nil)
	f.settle.On("MarkPaidTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusPaid}, nil)

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultSuccess, result.Status)
	assert.Equal(t, int64(500), result.OrderID)
	assert.Equal(t, 1, f.db.tx.commits)

	require.NotNil(t, captured)
	assert.Equal(t, model.StatusProcessed, captured.Status)
	assert.NotNil(t, captured.ProcessedAt)
	assert.JSONEq(t, string(payload), string(captured.Payload))

	// Payment success never touches the hold.
	f.holds.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything)
}

func TestHandle_FailureCancelsOrderAndReleasesHoldAfterCommit(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("failed")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.settle.On("CancelTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusCancelled}, nil)
	f.holds.On("ReleaseHold", mock.Anything, int64(9)).
		Run(func(args mock.Arguments) {
			// The release must only see the world after the settlement
			// transaction committed.
			assert.Equal(t, 1, f.db.tx.commits)
		}).
		Return(true, nil)

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultFailed, result.Status)
	f.holds.AssertExpectations(t)
}

func TestHandle_ParksDeliveryWhenOrderMissing(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("success")

	var captured *model.WebhookLog
	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(false, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.AnythingOfType("*model.WebhookLog")).
		Run(func(args mock.Arguments) {
			captured = args.Get(2).(*model.WebhookLog)
		}).
		Return(nil)

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultPendingOrder, result.Status)

	require.NotNil(t, captured)
	assert.Equal(t, model.StatusPendingOrder, captured.Status)
	assert.Nil(t, captured.ProcessedAt)

	f.settle.AssertNotCalled(t, "MarkPaidTx", mock.Anything, mock.Anything, mock.Anything)
	f.settle.AssertNotCalled(t, "CancelTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_InsertRaceCollapsesToAlreadyProcessed(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("success")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: key=%q", model.ErrDuplicateKey, "pay_abc123"))

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultAlreadyProcessed, result.Status)
	// The losing transaction rolled back; the winner carries the effect.
	assert.Equal(t, 1, f.db.tx.rollbacks)
	f.settle.AssertNotCalled(t, "MarkPaidTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_SettlementErrorRollsBack(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("success")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.settle.On("MarkPaidTx", mock.Anything, mock.Anything, int64(500)).
		Return(nil, orderModel.NewInvalidTransitionError(500, orderModel.OrderStatusCancelled, orderModel.OrderStatusPaid))

	result, err := f.svc.Handle(context.Background(), req, payload)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, orderModel.ErrInvalidTransition)
	assert.Equal(t, 0, f.db.tx.commits)
	assert.Equal(t, 1, f.db.tx.rollbacks)
	f.holds.AssertNotCalled(t, "ReleaseHold", mock.Anything, mock.Anything)
}

func TestHandle_HoldReleaseProblemsNeverFailTheDelivery(t *testing.T) {
	outcomes := map[string]struct {
		released    bool
		err         error
		retryQueued bool
	}{
		"release errors":         {false, errors.New("redis down"), true},
		"hold already released":  {false, nil, false},
		"release works normally": {true, nil, false},
	}

	for name, outcome := range outcomes {
		t.Run(name, func(t *testing.T) {
			f := newWebhookServiceFixture()
			req, payload := webhookReq("failed")

			f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
			f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
			f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
			f.settle.On("CancelTx", mock.Anything, mock.Anything, int64(500)).
				Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusCancelled}, nil)
			f.holds.On("ReleaseHold", mock.Anything, int64(9)).Return(outcome.released, outcome.err)
			f.queue.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
				Return(&asynq.TaskInfo{}, nil)

			result, err := f.svc.Handle(context.Background(), req, payload)

			require.NoError(t, err)
			assert.Equal(t, model.ResultFailed, result.Status)

			if outcome.retryQueued {
				f.queue.AssertCalled(t, "EnqueueContext", mock.Anything, releaseTaskForHold(9), mock.Anything)
			} else {
				f.queue.AssertNotCalled(t, "EnqueueContext", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestHandle_FailedReleaseHandsHoldToReleaseQueue(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("failed")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.settle.On("CancelTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusCancelled}, nil)
	f.holds.On("ReleaseHold", mock.Anything, int64(9)).Return(false, errors.New("lock not acquired within wait budget"))

	// The retry shares the sweeper's task id, so whichever side schedules
	// first wins and the other collapses.
	f.queue.On("EnqueueContext", mock.Anything, releaseTaskForHold(9), withTaskID(shared.ReleaseHoldTaskID(9))).
		Return(&asynq.TaskInfo{}, nil).Once()

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultFailed, result.Status)
	f.queue.AssertExpectations(t)
}

func TestHandle_ReleaseRetryAlreadyScheduledIsFine(t *testing.T) {
	f := newWebhookServiceFixture()
	req, payload := webhookReq("failed")

	f.logs.On("GetByKey", mock.Anything, mock.Anything, "pay_abc123").Return(nil, model.ErrLogNotFound)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.logs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.settle.On("CancelTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusCancelled}, nil)
	f.holds.On("ReleaseHold", mock.Anything, int64(9)).Return(false, errors.New("redis down"))
	f.queue.On("EnqueueContext", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, asynq.ErrTaskIDConflict)

	result, err := f.svc.Handle(context.Background(), req, payload)

	require.NoError(t, err)
	assert.Equal(t, model.ResultFailed, result.Status)
}

func pendingLog(id int64, orderID int64, status string) model.WebhookLog {
	payload, _ := json.Marshal(model.WebhookRequest{
		OrderID:        orderID,
		PaymentStatus:  status,
		IdempotencyKey: fmt.Sprintf("key_%d", id),
	})
	return model.WebhookLog{
		ID:             id,
		IdempotencyKey: fmt.Sprintf("key_%d", id),
		Payload:        payload,
		Status:         model.StatusPendingOrder,
	}
}

func TestReconcilePending_AppliesMatchingLogs(t *testing.T) {
	f := newWebhookServiceFixture()

	unparseable := model.WebhookLog{ID: 1, Payload: json.RawMessage(`{"order_id":`), Status: model.StatusPendingOrder}
	otherOrder := pendingLog(2, 999, "success")
	match := pendingLog(3, 500, "success")

	f.logs.On("ListPendingOrder", mock.Anything).
		Return([]model.WebhookLog{unparseable, otherOrder, match}, nil)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.settle.On("MarkPaidTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, Status: orderModel.OrderStatusPaid}, nil)
	f.logs.On("MarkProcessed", mock.Anything, mock.Anything, int64(3)).Return(nil)

	applied, err := f.svc.ReconcilePending(context.Background(), 500)

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	f.logs.AssertNumberOfCalls(t, "MarkProcessed", 1)
	f.settle.AssertNumberOfCalls(t, "MarkPaidTx", 1)
}

func TestReconcilePending_OrderStillMissingLeavesRowPending(t *testing.T) {
	f := newWebhookServiceFixture()

	f.logs.On("ListPendingOrder", mock.Anything).
		Return([]model.WebhookLog{pendingLog(3, 500, "success")}, nil)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(false, nil)

	applied, err := f.svc.ReconcilePending(context.Background(), 500)

	require.NoError(t, err)
	assert.Equal(t, 0, applied)
	assert.Equal(t, 1, f.db.tx.rollbacks)
	f.logs.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcilePending_CancelReleasesHoldAfterCommit(t *testing.T) {
	f := newWebhookServiceFixture()

	f.logs.On("ListPendingOrder", mock.Anything).
		Return([]model.WebhookLog{pendingLog(3, 500, "failed")}, nil)
	f.orders.On("Exists", mock.Anything, mock.Anything, int64(500)).Return(true, nil)
	f.settle.On("CancelTx", mock.Anything, mock.Anything, int64(500)).
		Return(&orderModel.Order{ID: 500, HoldID: 9, Status: orderModel.OrderStatusCancelled}, nil)
	f.logs.On("MarkProcessed", mock.Anything, mock.Anything, int64(3)).Return(nil)
	f.holds.On("ReleaseHold", mock.Anything, int64(9)).
		Run(func(args mock.Arguments) {
			assert.Equal(t, 1, f.db.tx.commits)
		}).
		Return(true, nil)

	applied, err := f.svc.ReconcilePending(context.Background(), 500)

	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	f.holds.AssertExpectations(t)
}

func TestReconcilePending_NoPendingRows(t *testing.T) {
	f := newWebhookServiceFixture()

	f.logs.On("ListPendingOrder", mock.Anything).Return([]model.WebhookLog{}, nil)

	applied, err := f.svc.ReconcilePending(context.Background(), 500)

	assert.NoError(t, err)
	assert.Equal(t, 0, applied)
}

func TestReconcilePending_ListErrorPropagates(t *testing.T) {
	f := newWebhookServiceFixture()

	f.logs.On("ListPendingOrder", mock.Anything).Return(nil, errors.New("connection reset"))

	applied, err := f.svc.ReconcilePending(context.Background(), 500)

	assert.Error(t, err)
	assert.Equal(t, 0, applied)
}
