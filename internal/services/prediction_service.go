package services

import (
	"context"
	"errors"

	"balloon-predictor/internal/dataset"
	"balloon-predictor/internal/flight"
	"balloon-predictor/internal/models"
	"balloon-predictor/pkg/logging"
	"balloon-predictor/pkg/metrics"
)

// PredictionService runs standard-profile trajectory predictions
// against the latest wind dataset.
type PredictionService struct {
	datasets *DatasetService
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewPredictionService creates a new prediction service
func NewPredictionService(datasets *DatasetService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *PredictionService {
	return &PredictionService{
		datasets: datasets,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Predict integrates one flight: linear ascent to burst altitude, then
// linear descent to sea level, drifting with the interpolated wind
// throughout. Each run gets its own warning counter; its tallies are
// mirrored into prometheus after the run and reported in the result.
func (s *PredictionService) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResult, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.PredictionDuration)

	ds, err := s.datasets.Latest(ctx)
	if err != nil {
		s.metrics.RecordPrediction("error")
		return nil, err
	}

	warnings := &dataset.WarningCounts{}
	interp, err := dataset.NewInterpolator(ds, warnings)
	if err != nil {
		s.metrics.RecordPrediction("error")
		return nil, err
	}

	wind := flight.WindVelocity{Source: interp, Start: ds.Time}
	guard := flight.StageTimeout{Seconds: models.MaxFlightSeconds}

	profile := flight.Profile{
		{
			Model:     flight.Combine{wind, flight.LinearAscent{Rate: req.AscentRate}},
			Terminate: flight.Any{flight.BurstAltitude{Alt: req.BurstAltitude}, guard},
		},
		{
			Model:     flight.Combine{wind, flight.LinearDescent{Rate: req.DescentRate}},
			Terminate: flight.Any{flight.LandedMSL{}, guard},
		},
	}

	var points []flight.State
	solver := flight.ForwardsEuler{Step: req.StepSeconds}
	ics := flight.NewState(req.LaunchTime, req.LaunchLatitude, req.LaunchLongitude, req.LaunchAltitude)

	err = profile.Run(ctx, solver, ics, func(st flight.State) error {
		points = append(points, st)
		return nil
	})
	if err != nil {
		var re *dataset.RangeError
		if errors.As(err, &re) {
			s.metrics.RecordPrediction("out_of_range")
			s.logger.Warn(ctx, "[PREDICT_RANGE] Flight left dataset coverage", logging.Fields{
				"axis":  re.Axis,
				"value": re.Value,
			})
		} else {
			s.metrics.RecordPrediction("error")
		}
		return nil, err
	}

	s.metrics.PredictionSolverSteps.Observe(float64(len(points)))
	s.metrics.RecordInterpolationWarnings(warnings.AltitudeTooHigh.Load())
	s.metrics.RecordPrediction("ok")

	sampled := flight.Decimate(points, req.SampleEvery)
	trajectory := make([]models.TrajectoryPoint, len(sampled))
	for i, p := range sampled {
		trajectory[i] = models.TrajectoryPoint{
			Time:      p.Now,
			Latitude:  p.Lat,
			Longitude: p.Lng,
			Altitude:  p.Alt,
		}
	}

	result := &models.PredictionResult{
		Request:     req,
		DatasetTime: ds.Time,
		Trajectory:  trajectory,
		Warnings: models.WarningSummary{
			AltitudeTooHigh: warnings.AltitudeTooHigh.Load(),
		},
		Duration: timer.ObserveDuration(),
	}
	if len(trajectory) > 0 {
		last := trajectory[len(trajectory)-1]
		result.Landing = &last
	}

	s.logger.Info(ctx, "[PREDICT_DONE] Prediction complete", logging.Fields{
		"points":            len(points),
		"sampled":           len(sampled),
		"flight_seconds":    points[len(points)-1].FlightTime,
		"altitude_too_high": warnings.AltitudeTooHigh.Load(),
		"duration_ms":       result.Duration.Milliseconds(),
	})

	return result, nil
}
