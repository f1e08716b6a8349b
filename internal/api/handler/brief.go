package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/domain"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/logger"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/repository"
	"github.com/PrathamTiwari-max/Research-Brief-Generator/internal/service"
)

// maxSubmittedURLs bounds one submission's batch size.
const maxSubmittedURLs = 10

// BriefHandler handles research brief submission and polling endpoints.
type BriefHandler struct {
	repo     *repository.BriefRepository
	pipeline *service.PipelineService
}

// NewBriefHandler creates a new brief handler.
// Parameters:
//   - repo: brief repository for record access.
//   - pipeline: pipeline service triggered per submission.
// Returns:
//   - *BriefHandler: initialized handler.
func NewBriefHandler(repo *repository.BriefRepository, pipeline *service.PipelineService) *BriefHandler {
	return &BriefHandler{
		repo:     repo,
		pipeline: pipeline,
	}
}

// SubmitRequest is the submission payload.
type SubmitRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// ValidateURLs checks the submission boundary contract: 1-10 entries, each a
// syntactically valid absolute http(s) URL. Entries are trimmed.
// Parameters:
//   - urls: raw submitted URLs.
// Returns:
//   - []string: trimmed URLs in submission order.
//   - error: non-nil describing the first violation.
func ValidateURLs(urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one URL is required")
	}
	if len(urls) > maxSubmittedURLs {
		return nil, fmt.Errorf("at most %d URLs are allowed, got %d", maxSubmittedURLs, len(urls))
	}

	cleaned := make([]string, 0, len(urls))
	for _, raw := range urls {
		trimmed := strings.TrimSpace(raw)
		parsed, err := url.Parse(trimmed)
		if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return nil, fmt.Errorf("invalid URL format: %s", raw)
		}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned, nil
}

// Submit handles POST /api/v1/briefs. It persists the job record, kicks off
// the detached pipeline run, and returns the processing record immediately;
// callers poll GetBrief for the outcome.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *BriefHandler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	urls, err := ValidateURLs(req.URLs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	brief := &domain.Brief{
		ID:            uuid.New().String(),
		SubmittedURLs: domain.StringArray(urls),
		Status:        domain.BriefStatusProcessing,
	}
	if err := h.repo.Create(c.Request.Context(), brief); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create brief: " + err.Error(),
		})
		return
	}

	logger.CtxInfo(c.Request.Context(), "Created brief %s with %d URLs", brief.ID, len(urls))

	// Fire and forget; the run owns its own context and store handle
	go h.pipeline.Run(brief.ID, urls)

	c.JSON(http.StatusAccepted, brief)
}

// GetBrief handles GET /api/v1/briefs/:id for polling.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *BriefHandler) GetBrief(c *gin.Context) {
	id := c.Param("id")

	brief, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Brief not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load brief: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, brief)
}

// ListBriefs handles GET /api/v1/briefs, returning the most recent records.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *BriefHandler) ListBriefs(c *gin.Context) {
	limit := 5
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 50 {
			limit = parsed
		}
	}

	briefs, err := h.repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list briefs: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"briefs": briefs,
		"total":  len(briefs),
	})
}
