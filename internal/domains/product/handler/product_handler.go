package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flashsale-backend/internal/domains/product/model"
	"flashsale-backend/internal/domains/product/service"
	"flashsale-backend/internal/shared/response"
)

type Handler struct {
	service service.ServiceInterface
}

// NewHandler creates a new product handler
func NewHandler(service service.ServiceInterface) *Handler {
	return &Handler{service: service}
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.NotFound(c, "PRODUCT_NOT_FOUND", "product not found")
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		if model.IsNotFoundError(err) {
			response.NotFound(c, "PRODUCT_NOT_FOUND", "product not found")
			return
		}
		response.InternalServerError(c, "failed to get product")
		return
	}

	response.Success(c, http.StatusOK, product)
}
