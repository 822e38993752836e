package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"balloon-predictor/internal/config"
	"balloon-predictor/internal/models"
	"balloon-predictor/internal/services"
	"balloon-predictor/pkg/logging"
	"balloon-predictor/pkg/metrics"
)

func main() {
	// Parse command-line flags
	launchTimeStr := flag.String("launch-time", "", "Launch time (RFC3339, default: now)")
	lat := flag.Float64("lat", 52.2135, "Launch latitude in degrees")
	lng := flag.Float64("lng", 0.0964, "Launch longitude in degrees")
	alt := flag.Float64("alt", 0, "Launch altitude in metres")
	ascentRate := flag.Float64("ascent-rate", models.DefaultAscentRate, "Ascent rate in m/s")
	burstAlt := flag.Float64("burst-altitude", models.DefaultBurstAlt, "Burst altitude in metres")
	descentRate := flag.Float64("descent-rate", models.DefaultDescentRate, "Descent rate in m/s")
	step := flag.Float64("step", models.DefaultStepSeconds, "Integration step in seconds")
	every := flag.Int("every", models.DefaultSampleEvery, "Keep every nth trajectory point")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	launchTime := time.Now().UTC()
	if *launchTimeStr != "" {
		launchTime, err = time.Parse(time.RFC3339, *launchTimeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid launch time: %v\n", err)
			os.Exit(1)
		}
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("predictor-cli", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)

	ctx := context.Background()

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("predictor_cli")

	// Initialize services
	datasetService := services.NewDatasetService(cfg.Dataset.Directory, cfg.Dataset.RefreshInterval, logger, metricsCollector)
	predictionService := services.NewPredictionService(datasetService, logger, metricsCollector)

	result, err := predictionService.Predict(ctx, models.PredictionRequest{
		LaunchTime:      launchTime,
		LaunchLatitude:  *lat,
		LaunchLongitude: *lng,
		LaunchAltitude:  *alt,
		AscentRate:      *ascentRate,
		BurstAltitude:   *burstAlt,
		DescentRate:     *descentRate,
		StepSeconds:     *step,
		SampleEvery:     *every,
	})
	if err != nil {
		logger.Fatal(ctx, "[PREDICT_ERROR] Prediction failed", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("PREDICTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Dataset:          %s\n", result.DatasetTime.Format(time.RFC3339))
	fmt.Printf("Trajectory Points: %d\n", len(result.Trajectory))
	fmt.Printf("Duration:         %v\n", result.Duration)
	if result.Warnings.AltitudeTooHigh > 0 {
		fmt.Printf("Warnings:         altitude_too_high=%d\n", result.Warnings.AltitudeTooHigh)
	}
	if result.Landing != nil {
		fmt.Printf("Landing:          %.5f, %.5f at %s\n",
			result.Landing.Latitude, result.Landing.Longitude,
			result.Landing.Time.Format(time.RFC3339))
	}

	fmt.Println()
	fmt.Println("time,latitude,longitude,altitude")
	for _, p := range result.Trajectory {
		fmt.Printf("%s,%.6f,%.6f,%.1f\n", p.Time.Format(time.RFC3339), p.Latitude, p.Longitude, p.Altitude)
	}
}
