package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	holdModel "flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/domains/order/model"
	"flashsale-backend/internal/domains/order/service"
	"flashsale-backend/internal/shared/response"
	"flashsale-backend/pkg/logger"
)

// Reconciler applies payment webhooks that arrived before their order
// existed. The webhook settlement service satisfies this.
type Reconciler interface {
	ReconcilePending(ctx context.Context, orderID int64) (int, error)
}

type Handler struct {
	service    service.ServiceInterface
	reconciler Reconciler
}

// NewHandler creates a new order handler
func NewHandler(service service.ServiceInterface, reconciler Reconciler) *Handler {
	return &Handler{
		service:    service,
		reconciler: reconciler,
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	order, err := h.service.CreateFromHold(c.Request.Context(), req.HoldID)
	if err != nil {
		switch {
		case holdModel.IsNotFoundError(err):
			response.BadRequest(c, "HOLD_NOT_FOUND", "hold not found")
		case errors.Is(err, holdModel.ErrHoldAlreadyUsed):
			response.BadRequest(c, "HOLD_ALREADY_USED", "hold already used")
		case errors.Is(err, holdModel.ErrHoldReleased):
			response.BadRequest(c, "HOLD_RELEASED", "hold already released")
		case errors.Is(err, holdModel.ErrHoldExpired):
			response.BadRequest(c, "HOLD_EXPIRED", "hold expired")
		default:
			response.InternalServerError(c, "failed to create order")
		}
		return
	}

	// The payment webhook may have arrived before the order existed;
	// apply anything parked for this order id. The 201 reports the order
	// as created.
	if applied, rerr := h.reconciler.ReconcilePending(c.Request.Context(), order.ID); rerr != nil {
		logger.Warn("webhook reconciliation after order creation failed", map[string]interface{}{
			"order_id": order.ID,
			"error":    rerr.Error(),
		})
	} else if applied > 0 {
		logger.Info("applied parked webhooks after order creation", map[string]interface{}{
			"order_id": order.ID,
			"applied":  applied,
		})
	}

	response.Success(c, http.StatusCreated, order.ToResponse())
}
