package scatter

import (
	"math"
	"time"

	"scatter3d/internal/sampler"
)

// Defaults applied by normalize for unset optional fields.
const (
	DefaultMaxInstances = 10000
	DefaultChunkSize    = 64.0
)

// NoiseSettings gates placement on fractal noise: a candidate survives
// only if (fbm+Offset)^Power >= Threshold.
type NoiseSettings struct {
	Enabled     bool
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	Threshold   float64
	Power       float64
	Offset      float64
}

// LODLevel scales density (and optionally instance scale) beyond a
// camera distance.
type LODLevel struct {
	Distance float64
	Density  float64
	Scale    float64 // 0 means unchanged
}

// LODSettings is an ascending-by-distance level table with linear
// blending over BlendDistance past each level boundary.
type LODSettings struct {
	Levels        []LODLevel
	BlendDistance float64
}

// Multipliers returns the density and scale multipliers at the given
// camera distance. The result is continuous in distance: crossing a
// level boundary blends linearly from the previous level over the blend
// window.
func (l *LODSettings) Multipliers(distance float64) (density, scale float64) {
	density, scale = 1, 1
	if l == nil || len(l.Levels) == 0 {
		return
	}
	idx := -1
	for i, lv := range l.Levels {
		if lv.Distance <= distance {
			idx = i
		} else {
			break
		}
	}
	if idx < 0 {
		return
	}
	cur := l.Levels[idx]
	density, scale = cur.Density, levelScale(cur)
	if idx == 0 || l.BlendDistance <= 0 {
		return
	}
	if into := distance - cur.Distance; into < l.BlendDistance {
		t := into / l.BlendDistance
		prev := l.Levels[idx-1]
		density = prev.Density*(1-t) + cur.Density*t
		scale = levelScale(prev)*(1-t) + levelScale(cur)*t
	}
	return
}

func levelScale(lv LODLevel) float64 {
	if lv.Scale == 0 {
		return 1
	}
	return lv.Scale
}

// Bounds is an axis-aligned region in the XZ plane.
type Bounds struct {
	MinX, MinZ float64
	MaxX, MaxZ float64
}

// Contains reports whether (x,z) lies inside the bounds (max-exclusive).
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.MinX && x < b.MaxX && z >= b.MinZ && z < b.MaxZ
}

// UV maps a world position into normalized [0,1] coordinates over the
// bounds, clamped at the edges.
func (b Bounds) UV(x, z float64) (u, v float64) {
	w := b.MaxX - b.MinX
	h := b.MaxZ - b.MinZ
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	return clamp01((x - b.MinX) / w), clamp01((z - b.MinZ) / h)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// DensityMapSettings modulates acceptance probability by a sampled map.
type DensityMapSettings struct {
	Sampler    sampler.Sampler
	Bounds     Bounds
	Multiplier float64 // scales the sampled value; 0 means 1
}

// Config is the shared base configuration for every placement strategy.
// The zero value of any optional field receives a documented default.
type Config struct {
	Density         float64 // instances per unit area (or volume)
	VisibilityRange float64
	ChunkSize       float64
	MaxInstances    int
	MeshCount       int // source mesh variants; instances pick one at random

	ScaleRange    [2]float64
	RotationRange [2]float64 // yaw, radians
	HeightOffset  float64
	// AlignToNormal orients instances along the surface normal where
	// the strategy supplies one. Unset means enabled.
	AlignToNormal *bool

	// Vertical extent of chunk bounding boxes for frustum tests.
	HeightBounds [2]float64

	Seed uint32

	Noise      *NoiseSettings
	LOD        *LODSettings
	DensityMap *DensityMapSettings
}

// Normalized returns a copy with every unset optional field filled with
// its documented default. NewEngine applies this itself; callers that
// need the effective values (chunk size, seed) before building an
// engine can call it directly.
func (c Config) Normalized() Config { return c.normalize() }

// normalize fills unset optional fields with defaults and clamps
// misconfiguration instead of failing.
func (c Config) normalize() Config {
	if c.Density < 0 {
		c.Density = 0
	}
	if c.MaxInstances <= 0 {
		c.MaxInstances = DefaultMaxInstances
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MeshCount <= 0 {
		c.MeshCount = 1
	}
	if c.ScaleRange == [2]float64{} {
		c.ScaleRange = [2]float64{0.8, 1.2}
	}
	if c.RotationRange == [2]float64{} {
		c.RotationRange = [2]float64{0, 2 * math.Pi}
	}
	if c.AlignToNormal == nil {
		t := true
		c.AlignToNormal = &t
	}
	if c.HeightBounds == [2]float64{} {
		c.HeightBounds = [2]float64{-64, 128}
	}
	if c.Seed == 0 {
		c.Seed = uint32(time.Now().UnixNano())
	}
	if c.Noise != nil {
		n := *c.Noise
		if n.Octaves <= 0 {
			n.Octaves = 4
		}
		if n.Persistence <= 0 {
			n.Persistence = 0.5
		}
		if n.Lacunarity <= 0 {
			n.Lacunarity = 2
		}
		if n.Power <= 0 {
			n.Power = 1
		}
		if n.Scale == 0 {
			n.Scale = 0.01
		}
		c.Noise = &n
	}
	return c
}
