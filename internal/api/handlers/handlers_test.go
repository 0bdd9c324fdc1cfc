package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/domain"
	"github.com/andresuchdata/restock-planner/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOverrideStore struct {
	created []domain.Override
	deleted []int64
}

func (s *stubOverrideStore) Active(_ context.Context, _, _ string, _, _ time.Time) ([]domain.Override, error) {
	return nil, nil
}

func (s *stubOverrideStore) List(_ context.Context, _ string) ([]domain.Override, error) {
	return s.created, nil
}

func (s *stubOverrideStore) Create(_ context.Context, o *domain.Override) error {
	o.ID = int64(len(s.created) + 1)
	s.created = append(s.created, *o)
	return nil
}

func (s *stubOverrideStore) Delete(_ context.Context, id int64) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func newOverrideRouter(store *stubOverrideStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	forecasts := service.NewForecastService(nil, store, nil, config.EngineConfig{})
	handler := NewOverrideHandler(service.NewOverrideService(store, forecasts))

	router := gin.New()
	router.GET("/overrides", handler.List)
	router.POST("/overrides", handler.Create)
	router.DELETE("/overrides/:id", handler.Delete)
	return router
}

func TestCreateOverride(t *testing.T) {
	store := &stubOverrideStore{}
	router := newOverrideRouter(store)

	body := `{"sku":"A","start_date":"2026-08-01","end_date":"2026-08-07","type":"multiplier","value":2,"reason":"promo"}`
	req, _ := http.NewRequest("POST", "/overrides", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, store.created, 1)
	assert.Equal(t, domain.OverrideMultiplier, store.created[0].Type)
	require.NotNil(t, store.created[0].SKU)
	assert.Equal(t, "A", *store.created[0].SKU)
	// Empty marketplace becomes a wildcard, not an empty-string match.
	assert.Nil(t, store.created[0].Marketplace)
}

func TestCreateOverrideRejectsBadDates(t *testing.T) {
	router := newOverrideRouter(&stubOverrideStore{})

	body := `{"start_date":"2026-08-07","end_date":"2026-08-01","type":"absolute","value":5}`
	req, _ := http.NewRequest("POST", "/overrides", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "end_date")
}

func TestCreateOverrideRejectsBadType(t *testing.T) {
	router := newOverrideRouter(&stubOverrideStore{})

	body := `{"start_date":"2026-08-01","end_date":"2026-08-07","type":"percent","value":5}`
	req, _ := http.NewRequest("POST", "/overrides", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteOverride(t *testing.T) {
	store := &stubOverrideStore{}
	router := newOverrideRouter(store)

	req, _ := http.NewRequest("DELETE", "/overrides/7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []int64{7}, store.deleted)
}

func TestDeleteOverrideRejectsBadID(t *testing.T) {
	router := newOverrideRouter(&stubOverrideStore{})

	req, _ := http.NewRequest("DELETE", "/overrides/zero", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetForecastRequiresMarketplace(t *testing.T) {
	gin.SetMode(gin.TestMode)

	forecasts := service.NewForecastService(nil, &stubOverrideStore{}, nil, config.EngineConfig{})
	handler := NewForecastHandler(forecasts)

	router := gin.New()
	router.GET("/forecast", handler.GetForecast)

	req, _ := http.NewRequest("GET", "/forecast?sku=A", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace")
}

func TestParseDate(t *testing.T) {
	assert.True(t, parseDate("").IsZero())
	assert.True(t, parseDate("not-a-date").IsZero())
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), parseDate("2026-08-01"))
}
