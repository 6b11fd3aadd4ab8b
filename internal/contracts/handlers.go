package contracts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paymandar/backend/internal/logging"
	"github.com/paymandar/backend/internal/metrics"
)

// Handler exposes contract operations over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler creates a contract HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the contract endpoints on the given router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/contracts", h.create)
	r.GET("/contracts", h.list)
	r.GET("/contracts/:linkToken", h.get)
	r.POST("/contracts/:linkToken/sign", h.sign)
	r.PUT("/contracts/:linkToken/text", h.updateText)
	r.GET("/contracts/:linkToken/versions", h.listVersions)
}

func (h *Handler) create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	contract, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}
		logging.FromContext(c.Request.Context()).Error("contract create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to create contract"})
		return
	}

	metrics.ContractsCreatedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{"success": true, "contract": contract})
}

func (h *Handler) list(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	contracts, err := h.svc.List(c.Request.Context(), c.Query("status"), limit)
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("contract list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to list contracts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "contracts": contracts})
}

func (h *Handler) get(c *gin.Context) {
	contract, err := h.svc.GetByLinkToken(c.Request.Context(), c.Param("linkToken"))
	if err != nil {
		h.writeError(c, err, "failed to load contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "contract": contract})
}

func (h *Handler) sign(c *gin.Context) {
	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	contract, err := h.svc.Sign(c.Request.Context(), c.Param("linkToken"), req)
	if err != nil {
		h.writeError(c, err, "failed to sign contract")
		return
	}

	metrics.ContractsSignedTotal.Inc()
	c.JSON(http.StatusOK, gin.H{"success": true, "contract": contract})
}

func (h *Handler) updateText(c *gin.Context) {
	var req UpdateTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	contract, err := h.svc.UpdateText(c.Request.Context(), c.Param("linkToken"), req)
	if err != nil {
		h.writeError(c, err, "failed to update contract")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "contract": contract})
}

func (h *Handler) listVersions(c *gin.Context) {
	versions, err := h.svc.ListVersions(c.Request.Context(), c.Param("linkToken"))
	if err != nil {
		h.writeError(c, err, "failed to list versions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "versions": versions})
}

func (h *Handler) writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrContractNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "contract not found"})
	case errors.Is(err, ErrInvalidStatus):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	default:
		logging.FromContext(c.Request.Context()).Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": fallback})
	}
}
