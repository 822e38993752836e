// Package flight integrates balloon trajectories through a wind field.
// Models contribute position rates, termination conditions end a stage,
// and a solver steps the state forward through a chain of stages.
package flight

import "time"

// Position is a point on (or above) the sphere: degrees latitude and
// longitude, metres above sea level.
type Position struct {
	Lat float64
	Lng float64
	Alt float64
}

// Delta holds position rates in units per second.
type Delta struct {
	DLat float64
	DLng float64
	DAlt float64
}

// Add accumulates another delta.
func (d *Delta) Add(e Delta) {
	d.DLat += e.DLat
	d.DLng += e.DLng
	d.DAlt += e.DAlt
}

// Scale multiplies all rates by fac.
func (d *Delta) Scale(fac float64) {
	d.DLat *= fac
	d.DLng *= fac
	d.DAlt *= fac
}

// Apply moves the position by a scaled delta.
func (p *Position) Apply(d Delta) {
	p.Lat += d.DLat
	p.Lng += d.DLng
	p.Alt += d.DAlt
}

// Clock tracks absolute time plus seconds elapsed in the whole flight
// and in the current stage.
type Clock struct {
	Now        time.Time
	FlightTime float64
	StageTime  float64
}

// Advance moves the clock forward by the given number of seconds.
func (c *Clock) Advance(seconds float64) {
	c.Now = c.Now.Add(time.Duration(seconds * float64(time.Second)))
	c.FlightTime += seconds
	c.StageTime += seconds
}

// State is one point of an integrated trajectory.
type State struct {
	Clock
	Position
}

// NewState builds the initial conditions for a launch.
func NewState(launch time.Time, lat, lng, alt float64) State {
	return State{
		Clock:    Clock{Now: launch},
		Position: Position{Lat: lat, Lng: lng, Alt: alt},
	}
}

// WrapLongitude normalizes a longitude into [0, 360). The dataset grid
// covers that domain, so every query longitude must pass through here.
func WrapLongitude(lng float64) float64 {
	for lng < 0 {
		lng += 360
	}
	for lng >= 360 {
		lng -= 360
	}
	return lng
}
