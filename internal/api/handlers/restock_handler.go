package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/service"
	"github.com/gin-gonic/gin"
)

type RestockHandler struct {
	service *service.RestockService
}

func NewRestockHandler(service *service.RestockService) *RestockHandler {
	return &RestockHandler{service: service}
}

func (h *RestockHandler) parsePlanOptions(c *gin.Context) service.PlanOptions {
	opts := service.PlanOptions{
		IncludeUnmapped: parseBool(c.Query("include_unmapped")),
	}

	if days, err := strconv.Atoi(c.DefaultQuery("horizon_days", "0")); err == nil {
		opts.HorizonDays = days
	}
	opts.LeadTimeDays = parseFloatParam(c, "lead_time_days")
	opts.ServiceLevel = parseFloatParam(c, "service_level")
	opts.CurrentStockUnits = parseFloatParam(c, "current_stock_units")

	return opts
}

func (h *RestockHandler) parseFilters(c *gin.Context) service.RecommendationFilters {
	return service.RecommendationFilters{
		SupplierID:          strings.TrimSpace(c.Query("supplier_id")),
		UrgentOnly:          parseBool(c.Query("urgent_only")),
		MissingSettingsOnly: parseBool(c.Query("missing_settings_only")),
		IncludeUnmapped:     parseBool(c.Query("include_unmapped")),
	}
}

func (h *RestockHandler) GetPlan(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	marketplace := strings.TrimSpace(c.Query("marketplace"))
	opts := h.parsePlanOptions(c)

	plan, err := h.service.Plan(c.Request.Context(), sku, marketplace, opts, parseDate(c.Query("as_of")))
	if err != nil {
		writeError(c, err, "failed to compute restock plan")
		return
	}

	c.JSON(http.StatusOK, plan)
}

func (h *RestockHandler) GetActions(c *gin.Context) {
	sku := strings.TrimSpace(c.Query("sku"))
	marketplace := strings.TrimSpace(c.Query("marketplace"))
	opts := h.parsePlanOptions(c)

	items, quality, err := h.service.RestockActions(c.Request.Context(), sku, marketplace, opts, parseDate(c.Query("as_of")))
	if err != nil {
		writeError(c, err, "failed to compute restock actions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        items,
		"data_quality": quality,
	})
}

func (h *RestockHandler) GetRecommendations(c *gin.Context) {
	marketplace := strings.TrimSpace(c.Query("marketplace"))
	filters := h.parseFilters(c)

	result, err := h.service.RecommendAll(c.Request.Context(), marketplace, filters, parseDate(c.Query("as_of")))
	if err != nil {
		writeError(c, err, "failed to compute recommendations")
		return
	}

	c.JSON(http.StatusOK, result)
}

type whatIfRequest struct {
	SKU         string             `json:"sku"`
	Marketplace string             `json:"marketplace"`
	AsOf        string             `json:"as_of"`
	Patch       domain.WhatIfPatch `json:"patch"`
}

func (h *RestockHandler) PostWhatIf(c *gin.Context) {
	var req whatIfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	rec, err := h.service.WhatIf(c.Request.Context(), strings.TrimSpace(req.SKU), strings.TrimSpace(req.Marketplace), req.Patch, parseDate(req.AsOf))
	if err != nil {
		writeError(c, err, "failed to simulate recommendation")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *RestockHandler) GetExport(c *gin.Context) {
	marketplace := strings.TrimSpace(c.Query("marketplace"))
	filters := h.parseFilters(c)
	asOf := parseDate(c.Query("as_of"))

	payload, err := h.service.ExportCSV(c.Request.Context(), marketplace, filters, asOf)
	if err != nil {
		writeError(c, err, "failed to export recommendations")
		return
	}

	filename := fmt.Sprintf("restock_%s.csv", marketplace)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

func parseFloatParam(c *gin.Context, param string) *float64 {
	value := strings.TrimSpace(c.Query(param))
	if value == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return &f
	}
	return nil
}

func writeError(c *gin.Context, err error, message string) {
	if domain.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message, "details": err.Error()})
}
