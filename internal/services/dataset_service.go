package services

import (
	"context"
	"sync"
	"time"

	"balloon-predictor/internal/dataset"
	"balloon-predictor/pkg/logging"
	"balloon-predictor/pkg/metrics"
)

// DatasetService serves the most recent wind dataset from a directory,
// caching the mapped view between directory scans.
type DatasetService struct {
	dir     string
	refresh time.Duration
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu        sync.Mutex
	current   *dataset.Dataset
	checkedAt time.Time
}

// NewDatasetService creates a new dataset service
func NewDatasetService(dir string, refresh time.Duration, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DatasetService {
	return &DatasetService{
		dir:     dir,
		refresh: refresh,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Latest returns the most recent dataset, rescanning the directory when
// the cached view is older than the refresh interval. Superseded
// mappings are deliberately not unmapped: in-flight predictions may
// still read them, and cold pages are reclaimed by the page cache.
func (s *DatasetService) Latest(ctx context.Context) (*dataset.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil && time.Since(s.checkedAt) < s.refresh {
		return s.current, nil
	}

	timer := s.metrics.NewTimer(s.metrics.DatasetRefreshTime)
	defer timer.ObserveDuration()

	entries, err := dataset.ListDir(s.dir, dataset.SuffixDataset)
	if err != nil {
		s.metrics.RecordDatasetOpen("error")
		return nil, err
	}
	if len(entries) == 0 {
		s.metrics.RecordDatasetOpen("error")
		s.logger.Warn(ctx, "[DATASET_SCAN] No datasets found", logging.Fields{
			"directory": s.dir,
		})
		return nil, &NoDatasetError{Directory: s.dir}
	}

	latest := entries[0]
	if s.current != nil && s.current.Time.Equal(latest.Time) {
		s.checkedAt = time.Now()
		return s.current, nil
	}

	ds, err := dataset.Open(latest.Time, s.dir)
	if err != nil {
		s.metrics.RecordDatasetOpen("error")
		s.logger.Error(ctx, "[DATASET_OPEN_ERROR] Failed to open dataset", logging.Fields{
			"path": latest.Path,
		}, err)
		return nil, err
	}

	s.logger.Info(ctx, "[DATASET_OPEN] Opened dataset", logging.Fields{
		"path":          ds.Path(),
		"forecast_time": ds.Time.Format(time.RFC3339),
		"levels":        ds.Header.Shape.Levels,
		"variables":     ds.Header.Shape.Variables,
	})

	s.metrics.RecordDatasetOpen("ok")
	s.metrics.DatasetAgeSeconds.Set(time.Since(ds.Time).Seconds())

	s.current = ds
	s.checkedAt = time.Now()
	return ds, nil
}

// Info describes the currently served dataset.
type Info struct {
	ForecastTime time.Time `json:"forecast_time"`
	Path         string    `json:"path"`
	HoursCovered float64   `json:"hours_covered"`
	Levels       int       `json:"levels"`
	Variables    []string  `json:"variables"`
	LatMin       float64   `json:"lat_min"`
	LatMax       float64   `json:"lat_max"`
	LngMin       float64   `json:"lng_min"`
	LngMax       float64   `json:"lng_max"`
}

// Info returns metadata about the latest dataset.
func (s *DatasetService) Info(ctx context.Context) (*Info, error) {
	ds, err := s.Latest(ctx)
	if err != nil {
		return nil, err
	}

	shape := ds.Header.Shape
	return &Info{
		ForecastTime: ds.Time,
		Path:         ds.Path(),
		HoursCovered: shape.Hour.Step * float64(shape.Hour.Count-1),
		Levels:       shape.Levels,
		Variables:    shape.Variables,
		LatMin:       shape.X.Min,
		LatMax:       shape.X.Max(),
		LngMin:       shape.Y.Min,
		LngMax:       shape.Y.Max(),
	}, nil
}

// NoDatasetError reports an empty dataset directory.
type NoDatasetError struct {
	Directory string
}

func (e *NoDatasetError) Error() string {
	return "no datasets found in " + e.Directory
}
