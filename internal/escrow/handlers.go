package escrow

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paymandar/backend/internal/metrics"
)

// Handler provides HTTP endpoints for escrow operations.
type Handler struct {
	service *Service
}

// NewHandler creates a new escrow handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes sets up escrow routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/escrow-payments", h.ListPayments)
	r.GET("/escrow/:paymentId", h.GetPayment)
	r.POST("/escrow/:paymentId/release", h.ReleasePayment)
}

// ListPayments handles GET /api/escrow-payments
func (h *Handler) ListPayments(c *gin.Context) {
	payments, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list escrow payments",
		})
		return
	}
	if payments == nil {
		payments = []*Payment{}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"payments": payments,
	})
}

// GetPayment handles GET /api/escrow/:paymentId
func (h *Handler) GetPayment(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Payment not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load payment",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": p,
	})
}

// ReleasePayment handles POST /api/escrow/:paymentId/release
func (h *Handler) ReleasePayment(c *gin.Context) {
	p, err := h.service.Release(c.Request.Context(), c.Param("paymentId"))
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"message": "Payment not found",
			})
		case errors.Is(err, ErrInvalidStatus):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"message": "This payment cannot be released",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"message": "Failed to release payment",
			})
		}
		return
	}

	metrics.EscrowReleasedTotal.Inc()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"payment": p,
	})
}
