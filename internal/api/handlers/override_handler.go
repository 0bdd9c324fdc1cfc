package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/service"
	"github.com/gin-gonic/gin"
)

type OverrideHandler struct {
	service *service.OverrideService
}

func NewOverrideHandler(service *service.OverrideService) *OverrideHandler {
	return &OverrideHandler{service: service}
}

func (h *OverrideHandler) List(c *gin.Context) {
	marketplace := strings.TrimSpace(c.Query("marketplace"))

	overrides, err := h.service.List(c.Request.Context(), marketplace)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list overrides", "details": err.Error()})
		return
	}
	if overrides == nil {
		overrides = []domain.Override{}
	}

	c.JSON(http.StatusOK, gin.H{"overrides": overrides})
}

type createOverrideRequest struct {
	SKU         *string `json:"sku"`
	Marketplace *string `json:"marketplace"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Type        string  `json:"type"`
	Value       float64 `json:"value"`
	Reason      string  `json:"reason"`
}

func (h *OverrideHandler) Create(c *gin.Context) {
	var req createOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start_date must be YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be YYYY-MM-DD"})
		return
	}

	override := domain.Override{
		SKU:         normalizeScope(req.SKU),
		Marketplace: normalizeScope(req.Marketplace),
		StartDate:   start,
		EndDate:     end,
		Type:        domain.OverrideType(strings.TrimSpace(req.Type)),
		Value:       req.Value,
		Reason:      strings.TrimSpace(req.Reason),
	}

	if err := h.service.Create(c.Request.Context(), &override); err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create override", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, override)
}

func (h *OverrideHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete override", "details": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// normalizeScope maps empty strings to nil so blank scope fields behave as
// wildcards rather than matching nothing.
func normalizeScope(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
