package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/middleware"
	"github.com/lingoflow/backend/internal/service"
)

type RowHandler struct {
	service *service.RowService
}

func NewRowHandler(service *service.RowService) *RowHandler {
	return &RowHandler{service: service}
}

type addRowsRequest struct {
	PageID *uint            `json:"page_id"`
	Rows   []service.NewRow `json:"rows" binding:"required,min=1"`
}

func (h *RowHandler) Add(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req addRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.service.AddRows(middleware.CurrentUser(c), uint(projectID), req.PageID, req.Rows)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		case errors.Is(err, service.ErrPageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		case errors.Is(err, service.ErrEmptySourceText), errors.Is(err, service.ErrDuplicateContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			// Partial chunk failures still created some rows; report both.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "created": created})
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *RowHandler) Update(c *gin.Context) {
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

	var req service.RowUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	row, err := h.service.UpdateRow(middleware.CurrentUser(c), uint(projectID), uint(rowID), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRowNotFound), errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRowConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, row)
}

type deleteRowsRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

func (h *RowHandler) Delete(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req deleteRowsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.DeleteRows(middleware.CurrentUser(c), uint(projectID), req.IDs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
