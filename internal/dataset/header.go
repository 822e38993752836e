package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Axis describes the grid coordinates along one dataset dimension:
// the coordinate of index 0, the spacing between samples, and the
// number of samples.
type Axis struct {
	Min   float64 `json:"min"`
	Step  float64 `json:"step"`
	Count int     `json:"count"`
}

// Max returns the coordinate of the last sample on the axis.
func (a Axis) Max() float64 {
	return a.Min + a.Step*float64(a.Count-1)
}

// Shape declares the logical layout of the raw payload: a row-major
// 5-axis array of float32 indexed [hour, level, variable, x, y],
// where x is the latitude grid and y the longitude grid.
type Shape struct {
	Hour      Axis     `json:"hour"`
	X         Axis     `json:"x"`
	Y         Axis     `json:"y"`
	Levels    int      `json:"levels"`
	Variables []string `json:"variables"`
}

// Header is the JSON metadata block that prefixes every dataset file.
// The block is terminated by a NUL byte; the raw float32 payload
// follows immediately after.
type Header struct {
	Shape   Shape  `json:"shape"`
	Source  string `json:"source,omitempty"`
	Element string `json:"element,omitempty"`
}

// Cells returns the number of float32 elements the shape declares.
func (s Shape) Cells() int {
	return s.Hour.Count * s.Levels * len(s.Variables) * s.X.Count * s.Y.Count
}

func (s Shape) validate() error {
	axes := []struct {
		name string
		axis Axis
	}{
		{"hour", s.Hour},
		{"x", s.X},
		{"y", s.Y},
	}
	for _, a := range axes {
		if a.axis.Count < 2 {
			return fmt.Errorf("dataset: %s axis needs at least 2 samples, got %d", a.name, a.axis.Count)
		}
		if a.axis.Step == 0 {
			return fmt.Errorf("dataset: %s axis has zero step", a.name)
		}
	}
	if s.Levels < 2 {
		return fmt.Errorf("dataset: need at least 2 levels, got %d", s.Levels)
	}
	if len(s.Variables) == 0 {
		return fmt.Errorf("dataset: no variables declared")
	}
	return nil
}

// ParseHeader splits a raw dataset file into its JSON header and the
// payload that follows the NUL terminator.
func ParseHeader(raw []byte) (Header, []byte, error) {
	var h Header

	nul := bytes.IndexByte(raw, 0)
	if nul < 0 {
		return h, nil, fmt.Errorf("dataset: no NUL terminator found in header")
	}

	if err := json.Unmarshal(raw[:nul], &h); err != nil {
		return h, nil, fmt.Errorf("dataset: invalid JSON header: %w", err)
	}

	if h.Element != "" && h.Element != "float32" {
		return h, nil, fmt.Errorf("dataset: unsupported element type %q", h.Element)
	}

	return h, raw[nul+1:], nil
}
