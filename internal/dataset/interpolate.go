package dataset

import (
	"errors"
	"fmt"
	"math"
)

// Axis names used in range errors.
const (
	axisHour = "hour"
	axisLat  = "lat"
	axisLng  = "lng"
)

// VarAbsent is the sentinel index for a variable the dataset does not
// carry. Interpolation treats an absent variable's contribution as 0.
const VarAbsent = -1

// RangeError reports a query coordinate outside the dataset's spatial
// domain. It is fatal to the individual query and propagates to the
// caller unmodified.
type RangeError struct {
	Axis  string
	Value float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("dataset: value %v out of range on %s axis", e.Value, e.Axis)
}

// Lerp1 is one side of a 1D linear interpolation: the value at grid
// index Index contributes with weight Weight. Weights normally lie in
// [0, 1] but may leave it under extrapolation.
type Lerp1 struct {
	Index  int
	Weight float64
}

// Lerp3 is one of the 8 corners of the space-time cuboid enclosing a
// query point. Weight is the product of the three per-axis weights.
type Lerp3 struct {
	Hour, X, Y int
	Weight     float64
}

// Interpolator answers wind queries against one dataset view. It is
// immutable after construction and safe for concurrent use; per-query
// state lives on the stack.
type Interpolator struct {
	ds       *Dataset
	warnings *WarningCounts

	// Variable column indices resolved from the header, VarAbsent if
	// the dataset does not carry the variable.
	height, windU, windV, windW int
}

// Variable name aliases accepted in dataset headers. Long names are
// what the downloader writes; single letters appear in hand-built
// test fixtures and older files.
var (
	aliasHeight = []string{"height", "A"}
	aliasWindU  = []string{"wind_u", "U"}
	aliasWindV  = []string{"wind_v", "V"}
	aliasWindW  = []string{"wind_w", "W"}
)

func findVariable(names []string, aliases []string) int {
	for i, n := range names {
		for _, a := range aliases {
			if n == a {
				return i
			}
		}
	}
	return VarAbsent
}

// NewInterpolator binds a dataset view and a warning counter handle
// into a query object. The warnings handle is required: soft range
// violations are reported through it rather than as errors.
func NewInterpolator(ds *Dataset, warnings *WarningCounts) (*Interpolator, error) {
	if warnings == nil {
		return nil, errors.New("dataset: interpolator requires a warning counter handle")
	}

	vars := ds.Header.Shape.Variables
	return &Interpolator{
		ds:       ds,
		warnings: warnings,
		height:   findVariable(vars, aliasHeight),
		windU:    findVariable(vars, aliasWindU),
		windV:    findVariable(vars, aliasWindV),
		windW:    findVariable(vars, aliasWindW),
	}, nil
}

// pick maps one continuous coordinate to its two bracketing grid
// indices and interpolation weights.
//
// Out-of-range behaviour is deliberately asymmetric: the hour axis
// degrades silently to two zero-weight picks at index 0 (collapsing
// the time contribution of the lattice), while the spatial axes fail
// with a RangeError. Callers depend on both behaviours.
func pick(axis Axis, value float64, name string) (Lerp1, Lerp1, error) {
	a := (value - axis.Min) / axis.Step
	b := int(math.Floor(a))

	if b < 0 || b >= axis.Count-1 {
		if name == axisHour {
			return Lerp1{}, Lerp1{}, nil
		}
		return Lerp1{}, Lerp1{}, &RangeError{Axis: name, Value: value}
	}

	l := a - float64(b)
	return Lerp1{b, 1 - l}, Lerp1{b + 1, l}, nil
}

// pick3 builds the 8 corners of the space-time cuboid enclosing
// (hour, lat, lng): the Cartesian product of the per-axis picks, each
// corner weighted by the product of its three constituent weights.
// Indices are carried through unchanged; in particular no longitude
// wraparound is applied, so callers must normalize longitudes into the
// grid's domain first.
func (ip *Interpolator) pick3(hour, lat, lng float64) (lerps [8]Lerp3, err error) {
	s := &ip.ds.Header.Shape

	h0, h1, err := pick(s.Hour, hour, axisHour)
	if err != nil {
		return lerps, err
	}
	x0, x1, err := pick(s.X, lat, axisLat)
	if err != nil {
		return lerps, err
	}
	y0, y1, err := pick(s.Y, lng, axisLng)
	if err != nil {
		return lerps, err
	}

	i := 0
	for _, h := range [2]Lerp1{h0, h1} {
		for _, x := range [2]Lerp1{x0, x1} {
			for _, y := range [2]Lerp1{y0, y1} {
				lerps[i] = Lerp3{h.Index, x.Index, y.Index, h.Weight * x.Weight * y.Weight}
				i++
			}
		}
	}

	return lerps, nil
}

// interp3 evaluates one variable at one level: the weighted sum of the
// variable over the 8 lattice corners. Absent variables contribute 0.
func (ip *Interpolator) interp3(lerps *[8]Lerp3, variable, level int) float64 {
	if variable == VarAbsent {
		return 0
	}

	r := 0.0
	for _, l := range lerps {
		r += l.Weight * ip.ds.at(l.Hour, level, variable, l.X, l.Y)
	}
	return r
}

// search locates the altitude bracket: the largest level L in
// [0, levels-2] whose interpolated altitude is at most target,
// assuming altitude increases monotonically with level. Targets
// outside the vertical coverage converge to the boundary level; the
// weight computation downstream flags those.
func (ip *Interpolator) search(lerps *[8]Lerp3, target float64) int {
	lower, upper := 0, ip.ds.Header.Shape.Levels-2

	for lower < upper {
		mid := (lower + upper + 1) / 2
		if target <= ip.interp3(lerps, ip.height, mid) {
			upper = mid - 1
		} else {
			lower = mid
		}
	}

	return lower
}

// interp4 evaluates one variable at a continuous altitude described by
// the level bracket pick: the two bracketing levels blended by the
// altitude weight.
func (ip *Interpolator) interp4(lerps *[8]Lerp3, variable int, alt Lerp1) float64 {
	lower := ip.interp3(lerps, variable, alt.Index)
	upper := ip.interp3(lerps, variable, alt.Index+1)
	return lower*alt.Weight + upper*(1-alt.Weight)
}

// Wind returns the interpolated wind velocity (u east, v north,
// w vertical, all m/s) at the query point. hour is hours since the
// dataset's forecast time.
//
// Horizontal coordinates outside the grid fail with a RangeError.
// Vertical extrapolation and degenerate altitude brackets never fail:
// they are absorbed into defined fallbacks, with out-of-ceiling
// queries recorded on the warning counter.
func (ip *Interpolator) Wind(hour, lat, lng, alt float64) (u, v, w float64, err error) {
	lerps, err := ip.pick3(hour, lat, lng)
	if err != nil {
		return 0, 0, 0, err
	}

	level := ip.search(&lerps, alt)
	lower := ip.interp3(&lerps, ip.height, level)
	upper := ip.interp3(&lerps, ip.height, level+1)

	lerp := 0.5
	if lower != upper {
		lerp = (upper - alt) / (upper - lower)
	}
	if lerp < 0 {
		ip.warnings.AltitudeTooHigh.Add(1)
	}

	altLerp := Lerp1{level, lerp}
	u = ip.interp4(&lerps, ip.windU, altLerp)
	v = ip.interp4(&lerps, ip.windV, altLerp)
	w = ip.interp4(&lerps, ip.windW, altLerp)
	return u, v, w, nil
}
