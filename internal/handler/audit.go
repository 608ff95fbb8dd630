package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/repository"
	"github.com/lingoflow/backend/internal/service"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// List returns audit entries, newest first, filtered by the query string.
func (h *AuditHandler) List(c *gin.Context) {
	filter := repository.AuditFilter{
		EntityType: c.Query("entity_type"),
		Limit:      100,
	}
	if v := c.Query("project_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.ProjectID = uint(id)
		}
	}
	if v := c.Query("actor_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			filter.ActorID = uint(id)
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}

	entries, err := h.service.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, entries)
}
