package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector provides application metrics collection
type Collector struct {
	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Prediction Metrics
	PredictionsTotal      *prometheus.CounterVec
	PredictionDuration    prometheus.Histogram
	PredictionSolverSteps prometheus.Histogram
	InterpolationWarnings *prometheus.CounterVec

	// Dataset Metrics
	DatasetOpensTotal  *prometheus.CounterVec
	DatasetAgeSeconds  prometheus.Gauge
	DatasetRefreshTime prometheus.Histogram
}

// NewCollector creates a new metrics collector
func NewCollector(namespace string) *Collector {
	return &Collector{
		APIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by type",
			},
			[]string{"error_type", "endpoint"},
		),

		PredictionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of trajectory predictions by outcome",
			},
			[]string{"outcome"}, // "ok", "out_of_range", "error"
		),

		PredictionDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Duration of full trajectory predictions in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		),

		PredictionSolverSteps: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_solver_steps",
				Help:      "Number of integration steps per prediction",
				Buckets:   []float64{1e3, 5e3, 1e4, 5e4, 1e5, 5e5, 1e6},
			},
		),

		InterpolationWarnings: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "interpolation_warnings_total",
				Help:      "Soft interpolation warnings accumulated across predictions",
			},
			[]string{"kind"},
		),

		DatasetOpensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dataset_opens_total",
				Help:      "Dataset open attempts by result",
			},
			[]string{"result"},
		),

		DatasetAgeSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_age_seconds",
				Help:      "Age of the currently served dataset's forecast time",
			},
		),

		DatasetRefreshTime: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dataset_refresh_duration_seconds",
				Help:      "Time spent scanning for and mapping a new dataset",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 15},
			},
		),
	}
}

// Timer provides timing functionality for operations
type Timer struct {
	start    time.Time
	observer prometheus.Observer
}

// NewTimer creates a new timer
func (c *Collector) NewTimer(histogram prometheus.Observer) *Timer {
	return &Timer{
		start:    time.Now(),
		observer: histogram,
	}
}

// ObserveDuration records the elapsed time since timer creation
func (t *Timer) ObserveDuration() time.Duration {
	duration := time.Since(t.start)
	if t.observer != nil {
		t.observer.Observe(duration.Seconds())
	}
	return duration
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(errorType, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(errorType, endpoint).Inc()
}

// RecordPrediction increments the prediction counter for an outcome
func (c *Collector) RecordPrediction(outcome string) {
	c.PredictionsTotal.WithLabelValues(outcome).Inc()
}

// RecordInterpolationWarnings adds a prediction run's warning tallies
func (c *Collector) RecordInterpolationWarnings(altitudeTooHigh uint64) {
	if altitudeTooHigh > 0 {
		c.InterpolationWarnings.WithLabelValues("altitude_too_high").Add(float64(altitudeTooHigh))
	}
}

// RecordDatasetOpen increments the dataset open counter
func (c *Collector) RecordDatasetOpen(result string) {
	c.DatasetOpensTotal.WithLabelValues(result).Inc()
}
