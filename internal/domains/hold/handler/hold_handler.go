package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"flashsale-backend/internal/domains/hold/model"
	"flashsale-backend/internal/domains/hold/service"
	productModel "flashsale-backend/internal/domains/product/model"
	"flashsale-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new hold handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// CreateHold handles POST /api/v1/holds
func (h *Handler) CreateHold(c *gin.Context) {
	var req model.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationFailed(c, err.Error())
		return
	}

	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	hold, err := h.service.CreateHold(c.Request.Context(), req.ProductID, req.Qty)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidQty):
			response.ValidationFailed(c, err.Error())
		case productModel.IsNotFoundError(err):
			response.BadRequest(c, "PRODUCT_NOT_FOUND", "product not found")
		case errors.Is(err, model.ErrInsufficientStock):
			response.BadRequest(c, "INSUFFICIENT_STOCK", err.Error())
		case model.IsContentionError(err):
			response.BadRequest(c, "HIGH_CONTENTION", "high contention, retry later")
		default:
			response.InternalServerError(c, "failed to create hold")
		}
		return
	}

	response.Success(c, http.StatusCreated, hold.ToResponse())
}
