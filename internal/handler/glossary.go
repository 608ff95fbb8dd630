package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lingoflow/backend/internal/middleware"
	"github.com/lingoflow/backend/internal/service"
)

type GlossaryHandler struct {
	service *service.GlossaryService
}

func NewGlossaryHandler(service *service.GlossaryService) *GlossaryHandler {
	return &GlossaryHandler{service: service}
}

// ListTerms returns all terms, or only approved ones with ?approved=true.
// The approved view is what editors see highlighted in the grid.
func (h *GlossaryHandler) ListTerms(c *gin.Context) {
	var (
		terms interface{}
		err   error
	)
	if c.Query("approved") == "true" {
		terms, err = h.service.ApprovedTerms()
	} else {
		terms, err = h.service.ListTerms()
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, terms)
}

func (h *GlossaryHandler) CreateTerm(c *gin.Context) {
	var req service.TermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term, err := h.service.CreateTerm(middleware.CurrentUser(c), req)
	if err != nil {
		if errors.Is(err, service.ErrTermSourceRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, term)
}

func (h *GlossaryHandler) UpdateTerm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var req service.TermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	term, err := h.service.UpdateTerm(middleware.CurrentUser(c), uint(id), req)
	if err != nil {
		if errors.Is(err, service.ErrTermNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "term not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, term)
}

func (h *GlossaryHandler) DeleteTerm(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteTerm(middleware.CurrentUser(c), uint(id)); err != nil {
		if errors.Is(err, service.ErrTermNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "term not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type categoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=255"`
}

func (h *GlossaryHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.service.CreateCategory(middleware.CurrentUser(c), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (h *GlossaryHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, categories)
}

func (h *GlossaryHandler) DeleteCategory(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteCategory(middleware.CurrentUser(c), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
