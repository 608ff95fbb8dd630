package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/middleware"
	"github.com/lingoflow/backend/internal/service"
)

type ApprovalHandler struct {
	service *service.ApprovalService
}

func NewApprovalHandler(service *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{service: service}
}

// PendingAll returns the caller's review queue across every project.
func (h *ApprovalHandler) PendingAll(c *gin.Context) {
	pending, err := h.service.ListPendingAll(middleware.CurrentUser(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pending)
}

// Pending returns the caller's review queue for one project.
func (h *ApprovalHandler) Pending(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	pending, err := h.service.ListPending(middleware.CurrentUser(c), uint(projectID))
	if err != nil {
		if errors.Is(err, service.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, pending)
}

type marksRequest struct {
	Marks map[string]service.CellMark `json:"marks" binding:"required,min=1"`
}

func (h *ApprovalHandler) SaveMarks(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	rowID, err := strconv.ParseUint(c.Param("rowId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
		return
	}

	var req marksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.service.SaveMarks(middleware.CurrentUser(c), uint(projectID), uint(rowID), req.Marks)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
		case errors.Is(err, service.ErrRemarkRequired), errors.Is(err, service.ErrInvalidMark):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrMarkForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRowConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, row)
}

type reassignRequest struct {
	Language  string `json:"language" binding:"required"`
	ManagerID uint   `json:"manager_id" binding:"required"`
}

func (h *ApprovalHandler) Reassign(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	rowID, err := strconv.ParseUint(c.Param("rowId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid row id"})
		return
	}

	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.service.Reassign(middleware.CurrentUser(c), uint(projectID), uint(rowID), req.Language, req.ManagerID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
		case errors.Is(err, service.ErrRowConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, row)
}

func (h *ApprovalHandler) SendForReview(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req service.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rows, err := h.service.SendForReview(middleware.CurrentUser(c), uint(projectID), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, service.ErrRowNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRowConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, rows)
}
