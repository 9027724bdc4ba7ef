package noise

import (
	"math/rand"
	"testing"
)

// TestNoise2DRange verifies noise output stays in [0,1].
func TestNoise2DRange(t *testing.T) {
	f := New(42)
	r := rand.New(rand.NewSource(12345))
	for i := 0; i < 10000; i++ {
		x := (r.Float64() - 0.5) * 2000
		y := (r.Float64() - 0.5) * 2000
		v := f.Noise2D(x, y)
		if v < 0 || v > 1 {
			t.Fatalf("Noise2D(%v,%v) = %v, outside [0,1]", x, y, v)
		}
	}
}

// TestNoise2DRoundTrip verifies two fields freshly built from the same seed
// answer identically at the same points.
func TestNoise2DRoundTrip(t *testing.T) {
	a := New(1337)
	b := New(1337)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		x := (r.Float64() - 0.5) * 500
		y := (r.Float64() - 0.5) * 500
		va, vb := a.Noise2D(x, y), b.Noise2D(x, y)
		if va != vb {
			t.Fatalf("fields from seed 1337 disagree at (%v,%v): %v != %v", x, y, va, vb)
		}
	}
}

// TestNoise2DSeedsDiffer verifies different seeds give different fields.
func TestNoise2DSeedsDiffer(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		x := float64(i) * 1.7
		y := float64(i) * 2.3
		if a.Noise2D(x, y) == b.Noise2D(x, y) {
			same++
		}
	}
	if same > 10 {
		t.Errorf("seeds 1 and 2 agree at %d/100 sample points; fields look identical", same)
	}
}

// TestNoise2DContinuity verifies nearby samples stay close. Gradient noise
// is smooth; a big jump over a tiny step means a broken lattice lookup.
func TestNoise2DContinuity(t *testing.T) {
	f := New(42)
	const step = 0.001
	for i := 0; i < 1000; i++ {
		x := float64(i) * 0.37
		y := float64(i) * 0.59
		d := f.Noise2D(x+step, y) - f.Noise2D(x, y)
		if d < 0 {
			d = -d
		}
		if d > 0.05 {
			t.Fatalf("discontinuity at (%v,%v): delta %v over step %v", x, y, d, step)
		}
	}
}

func TestFBMRange(t *testing.T) {
	f := New(42)
	for i := 0; i < 1000; i++ {
		x := float64(i) * 3.1
		y := float64(i) * 1.9
		v := f.FBM(x, y, 4, 0.5, 2.0, 0.05)
		if v < 0 || v > 1 {
			t.Fatalf("FBM out of [0,1] at (%v,%v): %v", x, y, v)
		}
	}
}

func TestFBMSingleOctaveMatchesNoise(t *testing.T) {
	f := New(42)
	x, y := 12.34, 56.78
	got := f.FBM(x, y, 1, 0.5, 2.0, 1.0)
	want := f.Noise2D(x, y)
	if got != want {
		t.Errorf("one-octave FBM = %v, want Noise2D value %v", got, want)
	}
}

// TestAcceptThresholds verifies the gate's threshold extremes.
func TestAcceptThresholds(t *testing.T) {
	f := New(42)
	open := GateSettings{Scale: 0.1, Octaves: 2, Persistence: 0.5, Lacunarity: 2, Threshold: 0, Power: 1}
	closed := open
	closed.Threshold = 2 // above any reachable value
	for i := 0; i < 100; i++ {
		x := float64(i) * 7.7
		y := float64(i) * 3.3
		if !f.Accept(x, y, open) {
			t.Fatalf("zero threshold rejected (%v,%v)", x, y)
		}
		if f.Accept(x, y, closed) {
			t.Fatalf("unreachable threshold accepted (%v,%v)", x, y)
		}
	}
}

func BenchmarkFBM4Octaves(b *testing.B) {
	f := New(42)
	for i := 0; i < b.N; i++ {
		f.FBM(float64(i)*0.1, float64(i)*0.2, 4, 0.5, 2.0, 0.05)
	}
}
