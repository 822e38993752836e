package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"balloon-predictor/internal/config"
	"balloon-predictor/internal/handlers"
	"balloon-predictor/internal/services"
	"balloon-predictor/pkg/logging"
	"balloon-predictor/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("predictor-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting balloon predictor API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"dataset_dir": cfg.Dataset.Directory,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("balloon_predictor")

	// Initialize services
	datasetService := services.NewDatasetService(cfg.Dataset.Directory, cfg.Dataset.RefreshInterval, logger, metricsCollector)
	predictionService := services.NewPredictionService(datasetService, logger, metricsCollector)

	// Warm the dataset cache; a missing dataset is not fatal, the
	// downloader may still be fetching the first forecast.
	if _, err := datasetService.Latest(ctx); err != nil {
		logger.Warn(ctx, "[STARTUP] No dataset available yet", logging.Fields{
			"dataset_dir": cfg.Dataset.Directory,
			"error":       err.Error(),
		})
	}

	// Initialize handlers
	predictHandler := handlers.NewPredictHandler(predictionService, datasetService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	predictHandler.RegisterRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
