package flight

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"balloon-predictor/internal/dataset"
)

var forecastTime = time.Date(2014, 2, 18, 12, 0, 0, 0, time.UTC)

// uniformWindInterpolator builds a small dataset with constant wind
// (10, 5, 1) m/s everywhere and levels at 0 and 30000 m.
func uniformWindInterpolator(t *testing.T) *dataset.Interpolator {
	t.Helper()

	shape := dataset.Shape{
		Hour:      dataset.Axis{Min: 0, Step: 3, Count: 3},
		X:         dataset.Axis{Min: -2, Step: 1, Count: 5},
		Y:         dataset.Axis{Min: 0, Step: 1, Count: 5},
		Levels:    2,
		Variables: []string{"height", "wind_u", "wind_v", "wind_w"},
	}

	values := []float32{0, 10, 5, 1} // per-variable, height overridden per level
	payload := make([]byte, shape.Cells()*4)
	i := 0
	for h := 0; h < shape.Hour.Count; h++ {
		for l := 0; l < shape.Levels; l++ {
			for v := range shape.Variables {
				for cell := 0; cell < shape.X.Count*shape.Y.Count; cell++ {
					val := values[v]
					if v == 0 {
						val = float32(l * 30000)
					}
					binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(val))
					i++
				}
			}
		}
	}

	ds, err := dataset.New(dataset.Header{Shape: shape}, payload, forecastTime)
	require.NoError(t, err)

	ip, err := dataset.NewInterpolator(ds, &dataset.WarningCounts{})
	require.NoError(t, err)
	return ip
}

func TestWrapLongitude(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{-0.5, 359.5},
		{-720, 0},
		{725, 5},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, WrapLongitude(tt.in), 1e-9, "WrapLongitude(%v)", tt.in)
	}
}

func TestWindVelocityEval(t *testing.T) {
	ip := uniformWindInterpolator(t)
	m := WindVelocity{Source: ip, Start: forecastTime}

	s := NewState(forecastTime, 0, 1, 1000)
	d, err := m.Eval(s)
	require.NoError(t, err)

	// At the equator: dlat from v, dlng from u, scaled by the radius.
	r := EarthRadius + 1000
	assert.InDelta(t, 180/math.Pi*5/r, d.DLat, 1e-12)
	assert.InDelta(t, 180/math.Pi*10/r, d.DLng, 1e-12)
	assert.Zero(t, d.DAlt, "vertical wind ignored unless requested")

	m.IncludeVertical = true
	d, err = m.Eval(s)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d.DAlt, 1e-6)
}

func TestWindVelocityNormalizesLongitude(t *testing.T) {
	ip := uniformWindInterpolator(t)
	m := WindVelocity{Source: ip, Start: forecastTime}

	// Longitude -359 wraps to 1, inside the grid's [0, 4] domain.
	s := NewState(forecastTime, 0, -359, 1000)
	_, err := m.Eval(s)
	require.NoError(t, err)
}

func TestWindVelocityPropagatesRangeError(t *testing.T) {
	ip := uniformWindInterpolator(t)
	m := WindVelocity{Source: ip, Start: forecastTime}

	s := NewState(forecastTime, 50, 1, 1000) // latitude off the grid
	_, err := m.Eval(s)

	var re *dataset.RangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "lat", re.Axis)
	assert.Equal(t, 50.0, re.Value)
}

func TestCombineSumsModels(t *testing.T) {
	m := Combine{LinearAscent{Rate: 5}, LinearDescent{Rate: 2}}

	d, err := m.Eval(State{})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, d.DAlt, 1e-12)
}

func TestTerminationConditions(t *testing.T) {
	assert.True(t, BurstAltitude{Alt: 30000}.Done(State{Position: Position{Alt: 30000}}))
	assert.False(t, BurstAltitude{Alt: 30000}.Done(State{Position: Position{Alt: 29999}}))

	assert.True(t, LandedMSL{}.Done(State{Position: Position{Alt: 0}}))
	assert.False(t, LandedMSL{}.Done(State{Position: Position{Alt: 1}}))

	assert.True(t, StageTimeout{Seconds: 60}.Done(State{Clock: Clock{StageTime: 60}}))

	any := Any{BurstAltitude{Alt: 100}, StageTimeout{Seconds: 60}}
	assert.True(t, any.Done(State{Clock: Clock{StageTime: 61}}))
	assert.False(t, any.Done(State{Position: Position{Alt: 50}}))
}

func TestForwardsEulerAscent(t *testing.T) {
	solver := ForwardsEuler{Step: 1}
	ics := NewState(forecastTime, 52, 0, 0)

	var points []State
	final, err := solver.Run(context.Background(), LinearAscent{Rate: 5}, BurstAltitude{Alt: 100},
		ics, func(s State) error {
			points = append(points, s)
			return nil
		})
	require.NoError(t, err)

	// 0, 5, ..., 100: 21 points, 20 seconds of flight.
	require.Len(t, points, 21)
	assert.InDelta(t, 100.0, final.Alt, 1e-9)
	assert.InDelta(t, 20.0, final.FlightTime, 1e-9)
	assert.Equal(t, forecastTime.Add(20*time.Second), final.Now)
}

func TestForwardsEulerRejectsBadStep(t *testing.T) {
	solver := ForwardsEuler{Step: 0}
	_, err := solver.Run(context.Background(), LinearAscent{Rate: 5}, LandedMSL{}, State{}, func(State) error { return nil })
	require.Error(t, err)
}

func TestForwardsEulerHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	solver := ForwardsEuler{Step: 1}
	ics := NewState(forecastTime, 52, 0, 0)

	_, err := solver.Run(ctx, LinearAscent{Rate: 1}, BurstAltitude{Alt: 1e12},
		ics, func(State) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestProfileRunsStagesWithoutRepeatingSeam(t *testing.T) {
	profile := Profile{
		{Model: LinearAscent{Rate: 10}, Terminate: BurstAltitude{Alt: 50}},
		{Model: LinearDescent{Rate: 10}, Terminate: LandedMSL{}},
	}

	var points []State
	err := profile.Run(context.Background(), ForwardsEuler{Step: 1}, NewState(forecastTime, 52, 0, 0),
		func(s State) error {
			points = append(points, s)
			return nil
		})
	require.NoError(t, err)

	// Up in 5 steps, down in 5: 11 points, burst point emitted once.
	require.Len(t, points, 11)
	assert.InDelta(t, 50.0, points[5].Alt, 1e-9)
	assert.InDelta(t, 40.0, points[6].Alt, 1e-9)
	assert.InDelta(t, 0.0, points[10].Alt, 1e-9)

	// Flight time keeps accumulating across the seam.
	assert.InDelta(t, 10.0, points[10].FlightTime, 1e-9)
}

func TestDecimate(t *testing.T) {
	points := make([]State, 10)
	for i := range points {
		points[i].FlightTime = float64(i)
	}

	out := Decimate(points, 4)
	require.Len(t, out, 4)
	assert.Equal(t, 0.0, out[0].FlightTime)
	assert.Equal(t, 4.0, out[1].FlightTime)
	assert.Equal(t, 8.0, out[2].FlightTime)
	assert.Equal(t, 9.0, out[3].FlightTime, "last point always kept")

	assert.Len(t, Decimate(points, 1), 10)
	assert.Empty(t, Decimate(nil, 4))
}
