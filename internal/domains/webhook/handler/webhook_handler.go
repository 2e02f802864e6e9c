package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	orderModel "flashsale-backend/internal/domains/order/model"
	"flashsale-backend/internal/domains/webhook/model"
	"flashsale-backend/internal/domains/webhook/service"
	"flashsale-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new webhook handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// HandleWebhook handles POST /api/v1/payments/webhook. The raw body is
// kept alongside the parsed form because parked deliveries are replayed
// from the stored payload.
func (h *Handler) HandleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		response.ValidationFailed(c, "unreadable request body")
		return
	}

	var req model.WebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.service.Handle(c.Request.Context(), req, payload)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidPaymentStatus):
			response.BadRequest(c, "INVALID_PAYMENT_STATUS", err.Error())
		case errors.Is(err, orderModel.ErrInvalidTransition):
			response.BadRequest(c, "INVALID_TRANSITION", "order already settled the other way")
		case errors.Is(err, orderModel.ErrCannotCancelPaid):
			response.BadRequest(c, "CANNOT_CANCEL_PAID", "order already paid")
		case errors.Is(err, orderModel.ErrOrderNotFound):
			// The order existed at the idempotency check but the
			// settlement lookup missed it; deliveries that never see the
			// order park as pending_order instead of landing here.
			response.BadRequest(c, "ORDER_NOT_FOUND", err.Error())
		default:
			response.InternalServerError(c, "failed to process webhook")
		}
		return
	}

	response.Success(c, http.StatusOK, result.ToResponse())
}
