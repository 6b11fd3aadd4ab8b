package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/paymandar/backend/internal/contracts"
	"github.com/paymandar/backend/internal/logging"
	"github.com/paymandar/backend/internal/metrics"
	"github.com/paymandar/backend/internal/zarinpal"
)

// Handler exposes the payment flow over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a payment HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the payment endpoints on the given router group.
// The verify endpoint is the gateway's browser callback, so it answers
// with HTML, not JSON.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/contracts/:linkToken/payment", h.initiate)
	r.GET("/payment-verify", h.verify)
}

func (h *Handler) initiate(c *gin.Context) {
	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	init, err := h.svc.Initiate(c.Request.Context(), c.Param("linkToken"), req)
	if err != nil {
		h.writeInitiateError(c, err)
		return
	}

	metrics.PaymentsInitiatedTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"authority": init.Authority,
		"payUrl":    init.PayURL,
	})
}

func (h *Handler) writeInitiateError(c *gin.Context, err error) {
	var gwErr *zarinpal.GatewayError
	switch {
	case errors.Is(err, contracts.ErrContractNotFound):
		metrics.PaymentsInitiatedTotal.WithLabelValues("not_found").Inc()
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "contract not found"})
	case errors.Is(err, ErrNoPaymentRequired):
		metrics.PaymentsInitiatedTotal.WithLabelValues("no_payment").Inc()
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "contract has no payment term"})
	case errors.As(err, &gwErr):
		metrics.PaymentsInitiatedTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": gwErr.Error()})
	case errors.Is(err, zarinpal.ErrUnavailable):
		metrics.PaymentsInitiatedTotal.WithLabelValues("unavailable").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "payment gateway unavailable"})
	default:
		metrics.PaymentsInitiatedTotal.WithLabelValues("error").Inc()
		logging.FromContext(c.Request.Context()).Error("payment initiation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to initiate payment"})
	}
}

func (h *Handler) verify(c *gin.Context) {
	authority := c.Query("Authority")
	status := c.Query("Status")
	contractID := c.Query("contractId")

	v, err := h.svc.Verify(c.Request.Context(), authority, status, contractID)
	if err != nil {
		metrics.PaymentVerificationsTotal.WithLabelValues("unavailable").Inc()
		logging.FromContext(c.Request.Context()).Error("payment verification failed",
			"authority", authority, "error", err)
		c.Data(http.StatusBadGateway, "text/html; charset=utf-8", []byte(unavailablePage()))
		return
	}

	metrics.PaymentVerificationsTotal.WithLabelValues(string(v.Outcome)).Inc()

	switch v.Outcome {
	case OutcomeSuccess:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(successPage(v.RefID)))
	case OutcomeAlreadyVerified:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(alreadyVerifiedPage(v.RefID)))
	case OutcomeCancelled:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(cancelledPage()))
	case OutcomeAmountNotFound:
		c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(amountNotFoundPage()))
	default:
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(failedPage()))
	}
}
