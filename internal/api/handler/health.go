package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
)

// DependencyProber is a pass/fail probe for one external dependency.
type DependencyProber interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles liveness and dependency status endpoints.
type HealthHandler struct {
	store DependencyProber
	llm   DependencyProber
}

// NewHealthHandler creates a new health handler.
// Parameters:
//   - store: job store probe.
//   - llm: generative backend credential probe.
// Returns:
//   - *HealthHandler: initialized handler.
func NewHealthHandler(store, llm DependencyProber) *HealthHandler {
	return &HealthHandler{store: store, llm: llm}
}

// Health returns the liveness status of the service
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Status handles GET /status, probing each external dependency. The backend
// field is ok by construction when this handler responds.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *HealthHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	databaseStatus := "ok"
	if err := h.store.Ping(ctx); err != nil {
		databaseStatus = "error"
		logger.FromContext(ctx).WithError(err).Error("Database connection check failed")
	}

	llmStatus := "ok"
	if err := h.llm.Ping(ctx); err != nil {
		llmStatus = "error"
		logger.FromContext(ctx).WithError(err).Error("LLM credential check failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"backend":  "ok",
		"database": databaseStatus,
		"llm":      llmStatus,
	})
}
