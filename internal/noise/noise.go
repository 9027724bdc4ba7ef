// Package noise implements seeded 2D gradient noise with fractal-Brownian
// octave summation, used to gate procedural placement.
package noise

import (
	"math"

	"scatter3d/internal/rng"
)

// Field is a gradient noise field over a seeded permutation table.
// Two fields built from the same seed answer identically forever.
type Field struct {
	// 256-entry permutation doubled to 512 so lookups never wrap mid-index.
	perm [512]int
}

// New builds a field from the given seed via a seeded Fisher-Yates shuffle.
func New(seed uint32) *Field {
	f := &Field{}
	src := rng.New(seed)

	var p [256]int
	for i := range p {
		p[i] = i
	}
	for i := len(p) - 1; i > 0; i-- {
		j := src.RangeInt(0, i)
		p[i], p[j] = p[j], p[i]
	}
	for i := 0; i < 512; i++ {
		f.perm[i] = p[i&255]
	}
	return f
}

// fade is the smoothstep-like curve 6t^5 - 15t^4 + 10t^3.
func fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// grad2 projects (x,y) onto one of eight gradient directions chosen by hash.
func grad2(hash int, x, y float64) float64 {
	h := hash & 7
	u, v := x, y
	if h >= 4 {
		u, v = y, x
	}
	if h&1 != 0 {
		u = -u
	}
	if h&2 != 0 {
		v = -v
	}
	return u + 2*v
}

// Noise2D returns gradient noise at (x,y) mapped to [0,1].
func (f *Field) Noise2D(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	xf := x - math.Floor(x)
	yf := y - math.Floor(y)

	u := fade(xf)
	v := fade(yf)

	aa := f.perm[f.perm[xi]+yi]
	ab := f.perm[f.perm[xi]+yi+1]
	ba := f.perm[f.perm[xi+1]+yi]
	bb := f.perm[f.perm[xi+1]+yi+1]

	x1 := lerp(grad2(aa, xf, yf), grad2(ba, xf-1, yf), u)
	x2 := lerp(grad2(ab, xf, yf-1), grad2(bb, xf-1, yf-1), u)
	raw := lerp(x1, x2, v) // roughly [-2.2, 2.2] for these gradients

	n := raw/4.4 + 0.5
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}

// FBM sums octave layers of Noise2D at rising frequency and falling
// amplitude, normalized back to [0,1] by the total amplitude.
func (f *Field) FBM(x, y float64, octaves int, persistence, lacunarity, scale float64) float64 {
	if octaves < 1 {
		octaves = 1
	}
	amplitude := 1.0
	frequency := scale
	sum := 0.0
	norm := 0.0
	for i := 0; i < octaves; i++ {
		sum += f.Noise2D(x*frequency, y*frequency) * amplitude
		norm += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

// GateSettings shapes an FBM sample into an accept/reject decision.
type GateSettings struct {
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Threshold   float64
	Power       float64
	Offset      float64
}

// Accept reports whether a position passes the noise gate:
// (fbm + offset)^power >= threshold.
func (f *Field) Accept(x, y float64, g GateSettings) bool {
	v := f.FBM(x, y, g.Octaves, g.Persistence, g.Lacunarity, g.Scale) + g.Offset
	if v < 0 {
		v = 0
	}
	p := g.Power
	if p <= 0 {
		p = 1
	}
	return math.Pow(v, p) >= g.Threshold
}
