// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/mux"

	"github.com/andresuchdata/restock-planner/internal/api"
	"github.com/andresuchdata/restock-planner/internal/cache"
	"github.com/andresuchdata/restock-planner/internal/config"
	"github.com/andresuchdata/restock-planner/internal/repository/postgres"
	"github.com/andresuchdata/restock-planner/internal/service"
	"github.com/andresuchdata/restock-planner/internal/storage"
	"github.com/andresuchdata/restock-planner/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("forecast cache unavailable, running without cache")
		forecastCache = cache.NewNoopForecastCache()
	}

	var objStore storage.ObjectStorage
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("object storage unavailable, export snapshots disabled")
		} else {
			objStore = minioClient
		}
	}

	demandRepo := postgres.NewDemandRepository(db)
	supplierRepo := postgres.NewSupplierRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	overrideRepo := postgres.NewOverrideRepository(db)

	forecastService := service.NewForecastService(demandRepo, overrideRepo, forecastCache, cfg.Engine)
	restockService := service.NewRestockService(forecastService, demandRepo, supplierRepo, inventoryRepo, objStore, cfg.Engine)
	overrideService := service.NewOverrideService(overrideRepo, forecastService)

	router := api.NewRouter(&api.Services{
		ForecastService: forecastService,
		RestockService:  restockService,
		OverrideService: overrideService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	opsSrv := &http.Server{
		Addr:    ":" + cfg.Server.OpsPort,
		Handler: opsRouter(db, forecastService),
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("starting api server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start api server")
		}
	}()

	go func() {
		logger.Log.Info().Str("port", cfg.Server.OpsPort).Msg("starting ops server")
		if err := opsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("failed to start ops server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("api server forced to shutdown")
	}
	if err := opsSrv.Shutdown(ctx); err != nil {
		logger.Log.Error().Err(err).Msg("ops server forced to shutdown")
	}

	logger.Log.Info().Msg("server exiting")
}

// opsRouter serves liveness/readiness probes and cache administration on a
// separate port so they never sit behind the CORS or logging middleware.
func opsRouter(db *postgres.DB, forecasts *service.ForecastService) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if err := db.PingContext(req.Context()); err != nil {
			http.Error(w, "database not reachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	r.HandleFunc("/cache/invalidate", func(w http.ResponseWriter, req *http.Request) {
		forecasts.InvalidateCache(req.Context())
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")

	return r
}
