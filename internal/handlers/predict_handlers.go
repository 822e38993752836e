package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"balloon-predictor/internal/dataset"
	"balloon-predictor/internal/models"
	"balloon-predictor/internal/services"
	"balloon-predictor/pkg/logging"
	"balloon-predictor/pkg/metrics"
)

// PredictHandler handles trajectory prediction API endpoints
type PredictHandler struct {
	predictions *services.PredictionService
	datasets    *services.DatasetService
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(
	predictions *services.PredictionService,
	datasets *services.DatasetService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *PredictHandler {
	return &PredictHandler{
		predictions: predictions,
		datasets:    datasets,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/predict").Observe(duration.Seconds())
	}()

	var req models.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, r, "invalid JSON request body", http.StatusBadRequest)
		return
	}

	result, err := h.predictions.Predict(ctx, req)
	if err != nil {
		var (
			ve *models.ValidationError
			re *dataset.RangeError
			ne *services.NoDatasetError
		)
		switch {
		case errors.As(err, &ve):
			h.metrics.RecordAPIError("validation", "/api/predict")
			h.sendError(w, r, ve.Error(), http.StatusBadRequest)
		case errors.As(err, &re):
			// The simulated flight drifted off the dataset grid.
			h.metrics.RecordAPIError("out_of_range", "/api/predict")
			h.sendError(w, r, re.Error(), http.StatusUnprocessableEntity)
		case errors.As(err, &ne):
			h.metrics.RecordAPIError("no_dataset", "/api/predict")
			h.sendError(w, r, ne.Error(), http.StatusServiceUnavailable)
		default:
			h.logger.Error(ctx, "[API_PREDICT_ERROR] Prediction failed", logging.Fields{}, err)
			h.metrics.RecordAPIError("internal_error", "/api/predict")
			h.sendError(w, r, "prediction failed", http.StatusInternalServerError)
		}
		return
	}

	h.metrics.RecordAPIRequest("/api/predict", "POST", "200")
	h.sendJSON(w, result, http.StatusOK)
}

// GetDataset handles GET /api/dataset
func (h *PredictHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/dataset").Observe(duration.Seconds())
	}()

	info, err := h.datasets.Info(ctx)
	if err != nil {
		var ne *services.NoDatasetError
		if errors.As(err, &ne) {
			h.metrics.RecordAPIError("no_dataset", "/api/dataset")
			h.sendError(w, r, ne.Error(), http.StatusServiceUnavailable)
			return
		}

		h.logger.Error(ctx, "[API_DATASET_ERROR] Failed to load dataset info", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/dataset")
		h.sendError(w, r, "failed to load dataset info", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/dataset", "GET", "200")
	h.sendJSON(w, info, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *PredictHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *PredictHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *PredictHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all prediction API routes
func (h *PredictHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/predict", h.Predict).Methods("POST")
	router.HandleFunc("/api/dataset", h.GetDataset).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
