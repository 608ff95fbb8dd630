package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/middleware"
	"github.com/lingoflow/backend/internal/pkg/translator"
	"github.com/lingoflow/backend/internal/service"
)

type TranslateHandler struct {
	service *service.TranslateService
}

func NewTranslateHandler(service *service.TranslateService) *TranslateHandler {
	return &TranslateHandler{service: service}
}

// Run starts a batch translation and blocks until it finishes. Per-item
// failures are part of the summary, not an error.
func (h *TranslateHandler) Run(c *gin.Context) {
	var req service.TranslateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Run(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrRowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTranslationInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoRowsToTranslate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, translator.ErrNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": "AI provider is not configured"})
		case errors.Is(err, translator.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "AI provider rate limited the run, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, summary)
}
