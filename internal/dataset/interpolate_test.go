package dataset

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

// testShape is the small grid used throughout: 3 forecast hours at
// 3h spacing, a 2x2 degree patch, 2 levels, no vertical wind.
func testShape() Shape {
	return Shape{
		Hour:      Axis{Min: 0, Step: 3, Count: 3},
		X:         Axis{Min: 0, Step: 1, Count: 2},
		Y:         Axis{Min: 0, Step: 1, Count: 2},
		Levels:    2,
		Variables: []string{"A", "U", "V"},
	}
}

// buildDataset materializes an in-memory dataset, filling every cell
// from the supplied function.
func buildDataset(t *testing.T, shape Shape, fill func(hour, level, variable, x, y int) float32) *Dataset {
	t.Helper()

	payload := make([]byte, shape.Cells()*elementSize)
	i := 0
	for h := 0; h < shape.Hour.Count; h++ {
		for l := 0; l < shape.Levels; l++ {
			for v := range shape.Variables {
				for x := 0; x < shape.X.Count; x++ {
					for y := 0; y < shape.Y.Count; y++ {
						bits := math.Float32bits(fill(h, l, v, x, y))
						binary.LittleEndian.PutUint32(payload[i*elementSize:], bits)
						i++
					}
				}
			}
		}
	}

	ds, err := New(Header{Shape: shape}, payload, time.Date(2014, 2, 18, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return ds
}

// layeredFill is the reference scenario: level 0 at altitude 0 with
// wind (1, 0), level 1 at altitude 100 with wind (2, 0).
func layeredFill(hour, level, variable, x, y int) float32 {
	switch variable {
	case 0: // A
		return float32(level * 100)
	case 1: // U
		return float32(level + 1)
	default: // V
		return 0
	}
}

func layeredInterpolator(t *testing.T) (*Interpolator, *WarningCounts) {
	t.Helper()

	ds := buildDataset(t, testShape(), layeredFill)
	warnings := &WarningCounts{}
	ip, err := NewInterpolator(ds, warnings)
	if err != nil {
		t.Fatalf("NewInterpolator() failed: %v", err)
	}
	return ip, warnings
}

func TestNewInterpolatorRequiresWarnings(t *testing.T) {
	ds := buildDataset(t, testShape(), layeredFill)

	if _, err := NewInterpolator(ds, nil); err == nil {
		t.Fatal("NewInterpolator(ds, nil) should fail")
	}
}

func TestPick(t *testing.T) {
	axis := Axis{Min: -90, Step: 0.5, Count: 361}

	tests := []struct {
		name         string
		value        float64
		wantLower    Lerp1
		wantUpper    Lerp1
		wantRangeErr bool
	}{
		{
			name:      "exactly on grid point",
			value:     -90,
			wantLower: Lerp1{0, 1},
			wantUpper: Lerp1{1, 0},
		},
		{
			name:      "exact midpoint",
			value:     -89.75,
			wantLower: Lerp1{0, 0.5},
			wantUpper: Lerp1{1, 0.5},
		},
		{
			name:      "interior grid point",
			value:     0,
			wantLower: Lerp1{180, 1},
			wantUpper: Lerp1{181, 0},
		},
		{
			name:        "below domain",
			value:       -90.25,
			wantRangeErr: true,
		},
		{
			name:        "far above domain",
			value:       999,
			wantRangeErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower, upper, err := pick(axis, tt.value, axisLat)

			if tt.wantRangeErr {
				var re *RangeError
				if !errors.As(err, &re) {
					t.Fatalf("pick(%v) error = %v, want RangeError", tt.value, err)
				}
				if re.Axis != axisLat || re.Value != tt.value {
					t.Errorf("RangeError = {%s %v}, want {%s %v}", re.Axis, re.Value, axisLat, tt.value)
				}
				return
			}

			if err != nil {
				t.Fatalf("pick(%v) unexpected error: %v", tt.value, err)
			}
			if lower != tt.wantLower {
				t.Errorf("lower = %+v, want %+v", lower, tt.wantLower)
			}
			if upper != tt.wantUpper {
				t.Errorf("upper = %+v, want %+v", upper, tt.wantUpper)
			}
		})
	}
}

func TestPickHourAxisNeverFails(t *testing.T) {
	axis := Axis{Min: 0, Step: 3, Count: 3}

	for _, value := range []float64{-1, -100, 6, 7, 1e9} {
		lower, upper, err := pick(axis, value, axisHour)
		if err != nil {
			t.Fatalf("pick(hour, %v) error = %v, want silent clamp", value, err)
		}
		want := Lerp1{Index: 0, Weight: 0}
		if lower != want || upper != want {
			t.Errorf("pick(hour, %v) = %+v, %+v, want two zero-weight picks at index 0", value, lower, upper)
		}
	}
}

func TestPick3WeightsSumToOne(t *testing.T) {
	ip, _ := layeredInterpolator(t)

	points := []struct{ hour, lat, lng float64 }{
		{0, 0, 0},
		{1.5, 0.5, 0.5},
		{2.9, 0.25, 0.75},
		{5.999, 0.999, 0.001},
	}

	for _, p := range points {
		lerps, err := ip.pick3(p.hour, p.lat, p.lng)
		if err != nil {
			t.Fatalf("pick3(%v, %v, %v) error: %v", p.hour, p.lat, p.lng, err)
		}

		sum := 0.0
		for _, l := range lerps {
			sum += l.Weight
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("pick3(%v, %v, %v) weights sum to %v, want 1", p.hour, p.lat, p.lng, sum)
		}
	}
}

func TestPick3PropagatesRangeError(t *testing.T) {
	ip, _ := layeredInterpolator(t)

	_, err := ip.pick3(0, 999, 0)

	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("pick3 error = %v, want RangeError", err)
	}
	if re.Axis != "lat" || re.Value != 999 {
		t.Errorf("RangeError = {%s %v}, want {lat 999}", re.Axis, re.Value)
	}
}

func TestSearchStaysInBracketRange(t *testing.T) {
	shape := testShape()
	shape.Levels = 5
	ds := buildDataset(t, shape, func(hour, level, variable, x, y int) float32 {
		if variable == 0 {
			return float32(level * 100)
		}
		return 0
	})

	ip, err := NewInterpolator(ds, &WarningCounts{})
	if err != nil {
		t.Fatal(err)
	}

	lerps, err := ip.pick3(0, 0.5, 0.5)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		target float64
		want   int
	}{
		{-1000, 0}, // below the bottom level
		{0, 0},
		{50, 0},
		{150, 1},
		{250, 2},
		{350, 3},
		{399, 3},
		{1e9, 3}, // above the top level
	}

	maxLevel := shape.Levels - 2
	for _, tt := range tests {
		got := ip.search(&lerps, tt.target)
		if got < 0 || got > maxLevel {
			t.Errorf("search(%v) = %d, outside [0, %d]", tt.target, got, maxLevel)
		}
		if got != tt.want {
			t.Errorf("search(%v) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestWindMidpointScenario(t *testing.T) {
	ip, warnings := layeredInterpolator(t)

	u, v, w, err := ip.Wind(0, 0, 0, 50)
	if err != nil {
		t.Fatalf("Wind() error: %v", err)
	}

	if math.Abs(u-1.5) > 1e-9 {
		t.Errorf("u = %v, want 1.5", u)
	}
	if v != 0 {
		t.Errorf("v = %v, want 0", v)
	}
	if w != 0 {
		t.Errorf("w = %v, want 0 (variable absent)", w)
	}
	if warnings.Any() {
		t.Errorf("unexpected warnings: altitude_too_high = %d", warnings.AltitudeTooHigh.Load())
	}
}

func TestWindAboveCeilingExtrapolates(t *testing.T) {
	ip, warnings := layeredInterpolator(t)

	u, v, w, err := ip.Wind(0, 0, 0, 200)
	if err != nil {
		t.Fatalf("Wind() error: %v", err)
	}

	if got := warnings.AltitudeTooHigh.Load(); got != 1 {
		t.Errorf("altitude_too_high = %d, want 1", got)
	}
	if u <= 2.0 {
		t.Errorf("u = %v, want extrapolation beyond 2.0", u)
	}
	for name, val := range map[string]float64{"u": u, "v": v, "w": w} {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			t.Errorf("%s = %v, want finite", name, val)
		}
	}

	// Each too-high query counts exactly once.
	if _, _, _, err := ip.Wind(0, 0, 0, 300); err != nil {
		t.Fatal(err)
	}
	if got := warnings.AltitudeTooHigh.Load(); got != 2 {
		t.Errorf("altitude_too_high = %d after second query, want 2", got)
	}
}

func TestWindLatitudeOutOfRange(t *testing.T) {
	ip, _ := layeredInterpolator(t)

	_, _, _, err := ip.Wind(0, 999, 0, 50)

	var re *RangeError
	if !errors.As(err, &re) {
		t.Fatalf("Wind(lat=999) error = %v, want RangeError", err)
	}
	if re.Axis != "lat" || re.Value != 999 {
		t.Errorf("RangeError = {%s %v}, want {lat 999}", re.Axis, re.Value)
	}
}

func TestWindGridCornerRoundTrip(t *testing.T) {
	// Distinct wind per cell; altitude strictly increasing per level so
	// querying at a level's exact height selects that level exactly.
	ds := buildDataset(t, testShape(), func(hour, level, variable, x, y int) float32 {
		if variable == 0 {
			return float32(level * 100)
		}
		return float32(variable*1000 + hour*100 + level*10 + x*5 + y)
	})

	ip, err := NewInterpolator(ds, &WarningCounts{})
	if err != nil {
		t.Fatal(err)
	}

	// Grid point: hour index 1, x index 0, y index 0, level 1.
	u, v, _, err := ip.Wind(3, 0, 0, 100)
	if err != nil {
		t.Fatalf("Wind() error: %v", err)
	}

	wantU := float64(1*1000 + 1*100 + 1*10)
	wantV := float64(2*1000 + 1*100 + 1*10)
	if math.Abs(u-wantU) > 1e-9 {
		t.Errorf("u = %v, want stored value %v", u, wantU)
	}
	if math.Abs(v-wantV) > 1e-9 {
		t.Errorf("v = %v, want stored value %v", v, wantV)
	}
}

func TestWindDegenerateBracket(t *testing.T) {
	// All levels at the same altitude: the bracket is degenerate and
	// the blend weight falls back to 0.5.
	ds := buildDataset(t, testShape(), func(hour, level, variable, x, y int) float32 {
		switch variable {
		case 0:
			return 500
		case 1:
			return float32(level + 1)
		default:
			return 0
		}
	})

	ip, err := NewInterpolator(ds, &WarningCounts{})
	if err != nil {
		t.Fatal(err)
	}

	u, _, _, err := ip.Wind(0, 0, 0, 500)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(u-1.5) > 1e-9 {
		t.Errorf("u = %v, want 1.5 (0.5/0.5 blend of the two levels)", u)
	}
}

func TestWindAbsentVariablesAreZero(t *testing.T) {
	shape := testShape()
	shape.Variables = []string{"A", "U"}
	ds := buildDataset(t, shape, func(hour, level, variable, x, y int) float32 {
		if variable == 0 {
			return float32(level * 100)
		}
		return 7
	})

	ip, err := NewInterpolator(ds, &WarningCounts{})
	if err != nil {
		t.Fatal(err)
	}

	u, v, w, err := ip.Wind(0, 0.5, 0.5, 50)
	if err != nil {
		t.Fatal(err)
	}
	if u != 7 {
		t.Errorf("u = %v, want 7", u)
	}
	if v != 0 || w != 0 {
		t.Errorf("v, w = %v, %v, want 0, 0 for absent variables", v, w)
	}
}

func TestFindVariableAliases(t *testing.T) {
	names := []string{"height", "wind_u", "wind_v", "wind_w"}

	if got := findVariable(names, aliasHeight); got != 0 {
		t.Errorf("height index = %d, want 0", got)
	}
	if got := findVariable(names, aliasWindW); got != 3 {
		t.Errorf("wind_w index = %d, want 3", got)
	}
	if got := findVariable([]string{"A", "U", "V"}, aliasWindW); got != VarAbsent {
		t.Errorf("absent variable index = %d, want %d", got, VarAbsent)
	}
}
