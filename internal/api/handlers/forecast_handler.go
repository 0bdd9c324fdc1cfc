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

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) GetForecast(c *gin.Context) {
	query := service.ForecastQuery{
		SKU:         strings.TrimSpace(c.Query("sku")),
		Marketplace: strings.TrimSpace(c.Query("marketplace")),
	}

	if days, err := strconv.Atoi(c.DefaultQuery("history_days", "0")); err == nil {
		query.HistoryDays = days
	}
	if days, err := strconv.Atoi(c.DefaultQuery("horizon_days", "0")); err == nil {
		query.HorizonDays = days
	}
	query.IncludeUnmapped = parseBool(c.Query("include_unmapped"))
	query.AsOf = parseDate(c.Query("as_of"))

	result, err := h.service.ComputeForecast(c.Request.Context(), query)
	if err != nil {
		if domain.IsValidation(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute forecast", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

func parseDate(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t
	}
	return time.Time{}
}
