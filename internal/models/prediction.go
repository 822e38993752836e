package models

import (
	"fmt"
	"time"
)

// Flight profile defaults applied when the request leaves a field at
// its zero value.
const (
	DefaultAscentRate  = 5.0 // m/s
	DefaultDescentRate = 5.0 // m/s at sea level
	DefaultBurstAlt    = 30000.0
	DefaultStepSeconds = 1.0
	DefaultSampleEvery = 60 // keep one point per minute
	MaxFlightSeconds   = 7 * 24 * 3600.0
)

// PredictionRequest describes one standard-profile flight: linear
// ascent to burst, then linear descent to sea level, drifting with the
// wind throughout.
type PredictionRequest struct {
	LaunchTime      time.Time `json:"launch_time"`
	LaunchLatitude  float64   `json:"launch_latitude"`
	LaunchLongitude float64   `json:"launch_longitude"`
	LaunchAltitude  float64   `json:"launch_altitude"`
	AscentRate      float64   `json:"ascent_rate"`
	BurstAltitude   float64   `json:"burst_altitude"`
	DescentRate     float64   `json:"descent_rate"`
	StepSeconds     float64   `json:"step_seconds,omitempty"`
	SampleEvery     int       `json:"sample_every,omitempty"`
}

// ApplyDefaults fills unset profile parameters.
func (r *PredictionRequest) ApplyDefaults() {
	if r.AscentRate == 0 {
		r.AscentRate = DefaultAscentRate
	}
	if r.DescentRate == 0 {
		r.DescentRate = DefaultDescentRate
	}
	if r.BurstAltitude == 0 {
		r.BurstAltitude = DefaultBurstAlt
	}
	if r.StepSeconds == 0 {
		r.StepSeconds = DefaultStepSeconds
	}
	if r.SampleEvery == 0 {
		r.SampleEvery = DefaultSampleEvery
	}
}

// Validate checks the request after defaults have been applied.
func (r *PredictionRequest) Validate() error {
	switch {
	case r.LaunchTime.IsZero():
		return &ValidationError{Field: "launch_time", Message: "launch time is required"}
	case r.LaunchLatitude < -90 || r.LaunchLatitude > 90:
		return &ValidationError{Field: "launch_latitude", Message: "latitude must be in [-90, 90]"}
	case r.LaunchAltitude < 0:
		return &ValidationError{Field: "launch_altitude", Message: "launch altitude must not be negative"}
	case r.AscentRate <= 0:
		return &ValidationError{Field: "ascent_rate", Message: "ascent rate must be positive"}
	case r.DescentRate <= 0:
		return &ValidationError{Field: "descent_rate", Message: "descent rate must be positive"}
	case r.BurstAltitude <= r.LaunchAltitude:
		return &ValidationError{Field: "burst_altitude", Message: "burst altitude must exceed launch altitude"}
	case r.StepSeconds <= 0:
		return &ValidationError{Field: "step_seconds", Message: "integration step must be positive"}
	case r.SampleEvery < 1:
		return &ValidationError{Field: "sample_every", Message: "sample interval must be at least 1"}
	}
	return nil
}

// TrajectoryPoint is one sampled point of a predicted flight path.
type TrajectoryPoint struct {
	Time      time.Time `json:"time"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Altitude  float64   `json:"altitude"`
}

// WarningSummary reports soft degradations encountered during a
// prediction run.
type WarningSummary struct {
	AltitudeTooHigh uint64 `json:"altitude_too_high"`
}

// PredictionResult is a complete predicted flight.
type PredictionResult struct {
	Request     PredictionRequest `json:"request"`
	DatasetTime time.Time         `json:"dataset_time"`
	Trajectory  []TrajectoryPoint `json:"trajectory"`
	Landing     *TrajectoryPoint  `json:"landing,omitempty"`
	Warnings    WarningSummary    `json:"warnings"`
	Duration    time.Duration     `json:"-"`
}

// ValidationError reports a request field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
