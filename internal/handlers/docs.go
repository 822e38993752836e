package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the prediction API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Balloon Predictor API",
			"description": "High-altitude balloon trajectory prediction over gridded wind forecast datasets",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/predict": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Predict a balloon flight",
					"description": "Runs a standard ascent/burst/descent profile through the latest wind dataset",
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":     "object",
									"required": []string{"launch_time", "launch_latitude", "launch_longitude"},
									"properties": map[string]interface{}{
										"launch_time":      map[string]string{"type": "string", "format": "date-time"},
										"launch_latitude":  map[string]string{"type": "number", "description": "degrees, -90 to 90"},
										"launch_longitude": map[string]string{"type": "number", "description": "degrees"},
										"launch_altitude":  map[string]string{"type": "number", "description": "metres above sea level"},
										"ascent_rate":      map[string]string{"type": "number", "description": "m/s, default 5"},
										"burst_altitude":   map[string]string{"type": "number", "description": "metres, default 30000"},
										"descent_rate":     map[string]string{"type": "number", "description": "m/s, default 5"},
										"step_seconds":     map[string]string{"type": "number", "description": "integration step, default 1"},
										"sample_every":     map[string]string{"type": "integer", "description": "keep every nth point, default 60"},
									},
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Predicted trajectory with warnings summary"},
						"400": map[string]interface{}{"description": "Invalid request"},
						"422": map[string]interface{}{"description": "Flight left the dataset's spatial coverage"},
						"503": map[string]interface{}{"description": "No dataset available"},
					},
				},
			},
			"/api/dataset": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Describe the current dataset",
					"description": "Returns forecast time and grid coverage of the dataset predictions run against",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Dataset metadata"},
						"503": map[string]interface{}{"description": "No dataset available"},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Health check",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service is healthy"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
