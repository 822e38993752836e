package flight

import (
	"math"
	"time"

	"balloon-predictor/internal/dataset"
)

// EarthRadius is the mean earth radius in metres.
const EarthRadius = 6371009.0

// Model contributes position rates for one physical effect. Models are
// combined additively into a stage's overall motion.
type Model interface {
	Eval(State) (Delta, error)
}

// TerminationCondition decides when a stage of the flight is over.
type TerminationCondition interface {
	Done(State) bool
}

// Combine sums the contributions of several models.
type Combine []Model

func (c Combine) Eval(s State) (Delta, error) {
	var d Delta
	for _, m := range c {
		e, err := m.Eval(s)
		if err != nil {
			return Delta{}, err
		}
		d.Add(e)
	}
	return d, nil
}

// WindVelocity converts interpolated wind into latitude/longitude rates
// on the sphere. Longitude is normalized before the dataset query, so
// flights crossing the meridian keep querying in-domain.
type WindVelocity struct {
	Source *dataset.Interpolator

	// Start is the dataset's forecast time; queries are expressed in
	// hours since this instant.
	Start time.Time

	// IncludeVertical adds the dataset's vertical wind component, when
	// present, to the altitude rate.
	IncludeVertical bool
}

func (m WindVelocity) Eval(s State) (Delta, error) {
	hours := s.Now.Sub(m.Start).Hours()

	u, v, w, err := m.Source.Wind(hours, s.Lat, WrapLongitude(s.Lng), s.Alt)
	if err != nil {
		return Delta{}, err
	}

	var d Delta
	r := EarthRadius + s.Alt
	d.DLat = 180 / math.Pi * v / r
	d.DLng = 180 / math.Pi * u / (r * math.Cos(s.Lat*math.Pi/180))
	if m.IncludeVertical {
		d.DAlt = w
	}
	return d, nil
}

// LinearAscent climbs at a constant rate (m/s).
type LinearAscent struct {
	Rate float64
}

func (m LinearAscent) Eval(State) (Delta, error) {
	return Delta{DAlt: m.Rate}, nil
}

// LinearDescent sinks at a constant rate (m/s, positive down).
type LinearDescent struct {
	Rate float64
}

func (m LinearDescent) Eval(State) (Delta, error) {
	return Delta{DAlt: -m.Rate}, nil
}

// BurstAltitude terminates a stage once the balloon reaches Alt metres.
type BurstAltitude struct {
	Alt float64
}

func (t BurstAltitude) Done(s State) bool {
	return s.Alt >= t.Alt
}

// LandedMSL terminates a stage once the balloon descends to sea level.
type LandedMSL struct{}

func (LandedMSL) Done(s State) bool {
	return s.Alt <= 0
}

// StageTimeout terminates a stage after Seconds of stage time.
type StageTimeout struct {
	Seconds float64
}

func (t StageTimeout) Done(s State) bool {
	return s.StageTime >= t.Seconds
}

// Any terminates when any of its conditions does.
type Any []TerminationCondition

func (a Any) Done(s State) bool {
	for _, t := range a {
		if t.Done(s) {
			return true
		}
	}
	return false
}
