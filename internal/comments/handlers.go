package comments

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/paymandar/backend/internal/contracts"
	"github.com/paymandar/backend/internal/logging"
)

// ContractResolver maps link tokens to contracts for the comment routes.
type ContractResolver interface {
	GetByLinkToken(ctx context.Context, linkToken string) (*contracts.Contract, error)
}

// Handler exposes comment operations over HTTP.
type Handler struct {
	svc       *Service
	contracts ContractResolver
}

// NewHandler creates a comment HTTP handler.
func NewHandler(svc *Service, resolver ContractResolver) *Handler {
	return &Handler{svc: svc, contracts: resolver}
}

// RegisterRoutes mounts the comment endpoints on the given router group.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/contracts/:linkToken/comments", h.list)
	r.POST("/contracts/:linkToken/comments", h.post)
}

func (h *Handler) resolve(c *gin.Context) (*contracts.Contract, bool) {
	contract, err := h.contracts.GetByLinkToken(c.Request.Context(), c.Param("linkToken"))
	if err != nil {
		if errors.Is(err, contracts.ErrContractNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "contract not found"})
		} else {
			logging.FromContext(c.Request.Context()).Error("contract lookup failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to load contract"})
		}
		return nil, false
	}
	return contract, true
}

func (h *Handler) list(c *gin.Context) {
	contract, ok := h.resolve(c)
	if !ok {
		return
	}

	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	comments, err := h.svc.ListByContract(c.Request.Context(), contract.ID, limit)
	if err != nil {
		logging.FromContext(c.Request.Context()).Error("comment list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to list comments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

func (h *Handler) post(c *gin.Context) {
	contract, ok := h.resolve(c)
	if !ok {
		return
	}

	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	comment, err := h.svc.Post(c.Request.Context(), contract.ID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommentEmpty), errors.Is(err, ErrCommentTooLong),
			errors.Is(err, ErrInvalidType), errors.Is(err, ErrInvalidParent),
			errors.Is(err, ErrCommentNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		default:
			logging.FromContext(c.Request.Context()).Error("comment post failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "failed to post comment"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}
