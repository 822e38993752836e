package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	// SuffixDataset is the filename suffix for complete wind dataset files.
	SuffixDataset = ".wind"

	// elementSize is the byte size of one float32 grid cell.
	elementSize = 4

	// timeLayout is the dataset filename timestamp, the forecast hour
	// truncated to hours: YYYYMMDDHH.
	timeLayout = "2006010215"
)

// Dataset is a read-only view over one forecast's wind grid: the parsed
// header plus the raw float32 payload. The view is immutable after
// construction and safe for unsynchronized concurrent reads.
type Dataset struct {
	Header Header
	Time   time.Time

	payload []byte
	mapped  []byte
	path    string
}

// New builds a dataset view over an in-memory payload. The payload
// length must exactly match the shape declared by the header; a
// mismatch is a caller contract violation and fails immediately.
func New(header Header, payload []byte, dsTime time.Time) (*Dataset, error) {
	if err := header.Shape.validate(); err != nil {
		return nil, err
	}

	want := header.Shape.Cells() * elementSize
	if len(payload) != want {
		return nil, fmt.Errorf("dataset: payload is %d bytes, shape declares %d", len(payload), want)
	}

	return &Dataset{
		Header:  header,
		Time:    dsTime,
		payload: payload,
	}, nil
}

// at reads one grid cell. Index validity is guaranteed by construction:
// every caller derives indices from the header shape, so the flat offset
// cannot exceed the validated payload length.
func (ds *Dataset) at(hour, level, variable, x, y int) float64 {
	s := &ds.Header.Shape
	idx := ((((hour*s.Levels+level)*len(s.Variables)+variable)*s.X.Count + x) * s.Y.Count) + y
	bits := binary.LittleEndian.Uint32(ds.payload[idx*elementSize:])
	return float64(math.Float32frombits(bits))
}

// Filename returns the path under which the dataset for forecast time
// dsTime is expected, e.g. <dir>/2014021812.wind.
func Filename(dsTime time.Time, dir, suffix string) string {
	return filepath.Join(dir, dsTime.UTC().Format(timeLayout)+suffix)
}

// Entry describes one dataset file found by ListDir.
type Entry struct {
	Time   time.Time
	Suffix string
	Name   string
	Path   string
}

// ListDir scans dir for files whose names begin with a YYYYMMDDHH
// timestamp, optionally filtered by suffix. Results are sorted most
// recent first.
func ListDir(dir string, suffixes ...string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dataset: reading %s: %w", dir, err)
	}

	var entries []Entry
	for _, f := range files {
		name := f.Name()
		if len(name) < len(timeLayout) {
			continue
		}

		dsTime, err := time.ParseInLocation(timeLayout, name[:len(timeLayout)], time.UTC)
		if err != nil {
			continue
		}

		suffix := name[len(timeLayout):]
		if len(suffixes) > 0 && !contains(suffixes, suffix) {
			continue
		}

		entries = append(entries, Entry{
			Time:   dsTime,
			Suffix: suffix,
			Name:   name,
			Path:   filepath.Join(dir, name),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Time.After(entries[j].Time)
	})

	return entries, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Open memory-maps the dataset file for forecast time dsTime in dir.
// The whole file is mapped read-only; the header is parsed and the
// payload validated against the declared shape before the view is
// returned.
func Open(dsTime time.Time, dir string) (*Dataset, error) {
	return openPath(Filename(dsTime, dir, SuffixDataset), dsTime)
}

// OpenLatest scans dir and opens the most recent dataset file.
func OpenLatest(dir string) (*Dataset, error) {
	entries, err := ListDir(dir, SuffixDataset)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("dataset: no datasets found in %s", dir)
	}
	return openPath(entries[0].Path, entries[0].Time)
}

func openPath(path string, dsTime time.Time) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	// The mapping outlives the descriptor.
	defer f.Close()

	raw, err := mapFile(f)
	if err != nil {
		return nil, fmt.Errorf("dataset: mapping %s: %w", path, err)
	}

	header, payload, err := ParseHeader(raw)
	if err != nil {
		unmapFile(raw)
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	ds, err := New(header, payload, dsTime)
	if err != nil {
		unmapFile(raw)
		return nil, fmt.Errorf("dataset: %s: %w", path, err)
	}

	ds.mapped = raw
	ds.path = path
	return ds, nil
}

// Path returns the file the dataset was mapped from, or "" for
// in-memory datasets.
func (ds *Dataset) Path() string {
	return ds.path
}

// Close releases the file mapping. It must not be called while queries
// against the view are in flight.
func (ds *Dataset) Close() error {
	if ds.mapped == nil {
		return nil
	}
	err := unmapFile(ds.mapped)
	ds.mapped = nil
	ds.payload = nil
	return err
}
