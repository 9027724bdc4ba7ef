package scatter

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// pathSample is one precomputed point along a curve or spline.
type pathSample struct {
	pos     mgl32.Vec3
	tangent mgl32.Vec3
	t       float64 // parameter along the path in [0,1]
}

// pathBuckets groups sample indices by the chunk their position falls
// into.
type pathBuckets map[ChunkCoord][]int

func bucketSamples(samples []pathSample, chunkSize float64) pathBuckets {
	b := make(pathBuckets)
	for i, s := range samples {
		coord := coordAt(float64(s.pos.X()), float64(s.pos.Z()), chunkSize)
		b[coord] = append(b[coord], i)
	}
	return b
}

// visibleBucketCoords returns bucket coordinates within range of the
// camera, sorted so the engine sees a reproducible activation order.
func visibleBucketCoords(b pathBuckets, cam camera.Camera, cfg *Config) []ChunkCoord {
	slack := cfg.ChunkSize // generous; frustum culling trims the rest
	out := make([]ChunkCoord, 0, len(b))
	for coord := range b {
		mx := (float64(coord.X) + 0.5) * cfg.ChunkSize
		mz := (float64(coord.Z) + 0.5) * cfg.ChunkSize
		dx := mx - float64(cam.Position.X())
		dz := mz - float64(cam.Position.Z())
		r := cfg.VisibilityRange + slack
		if dx*dx+dz*dz <= r*r {
			out = append(out, coord)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Z < out[j].Z
	})
	return out
}

// CurveConfig scatters instances along a polyline.
type CurveConfig struct {
	Points []mgl32.Vec3
	// Width spreads instances perpendicular to the curve.
	Width float64
	// Spacing derives the sample count from arc length when positive;
	// otherwise SampleCount is used (default: one per input point).
	Spacing     float64
	SampleCount int
}

// Curve is the curve-follow placement strategy.
type Curve struct {
	cfg     CurveConfig
	samples []pathSample
	buckets pathBuckets
}

func NewCurve(cfg CurveConfig) *Curve {
	return &Curve{cfg: cfg}
}

// UpdateCurve replaces the polyline. Call RegenerateAll on the engine to
// resample and repopulate.
func (c *Curve) UpdateCurve(cfg CurveConfig) {
	c.cfg = cfg
	c.samples = nil
	c.buckets = nil
}

// Init resamples the polyline and buckets the points by chunk.
func (c *Curve) Init(cfg *Config) error {
	c.samples = samplePolyline(c.cfg.Points, c.cfg.Spacing, c.cfg.SampleCount)
	c.buckets = bucketSamples(c.samples, cfg.ChunkSize)
	return nil
}

func (c *Curve) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	return visibleBucketCoords(c.buckets, cam, cfg)
}

// Populate places one jittered instance per path sample owned by the
// chunk, thinned by the LOD multiplier.
func (c *Curve) Populate(chunk *Chunk, ctx *PlaceContext) {
	half := float32(c.cfg.Width / 2)
	for _, idx := range c.buckets[chunk.Coord] {
		s := c.samples[idx]
		if ctx.DensityMult < 1 && ctx.RNG.Next() >= ctx.DensityMult {
			continue
		}

		pos := s.pos
		if half > 0 {
			side := s.tangent.Cross(worldUp)
			if side.Len() > 1e-6 {
				side = side.Normalize()
				pos = pos.Add(side.Mul(float32(ctx.RNG.Range(-1, 1)) * half))
			}
		}
		if !ctx.Accept(float64(pos.X()), float64(pos.Z())) {
			continue
		}
		if !ctx.Place(pos, worldUp) {
			ctx.ReportShortfall(1)
			return
		}
	}
}

// samplePolyline walks the polyline by arc length and emits evenly
// spaced samples with forward/backward-difference tangents. Inputs with
// fewer than two points yield a single sample (or none) instead of a
// division by zero.
func samplePolyline(points []mgl32.Vec3, spacing float64, sampleCount int) []pathSample {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return []pathSample{{pos: points[0], tangent: mgl32.Vec3{1, 0, 0}, t: 0}}
	}

	segLens := make([]float64, len(points)-1)
	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		segLens[i] = float64(points[i+1].Sub(points[i]).Len())
		total += segLens[i]
	}
	if total == 0 {
		return []pathSample{{pos: points[0], tangent: mgl32.Vec3{1, 0, 0}, t: 0}}
	}

	count := sampleCount
	if spacing > 0 {
		count = int(total/spacing) + 1
	}
	if count < 2 {
		if count == 1 {
			return []pathSample{{pos: points[0], tangent: points[1].Sub(points[0]).Normalize(), t: 0}}
		}
		count = len(points)
	}

	pointAt := func(dist float64) mgl32.Vec3 {
		for i, l := range segLens {
			if dist <= l || i == len(segLens)-1 {
				t := 0.0
				if l > 0 {
					t = dist / l
				}
				if t > 1 {
					t = 1
				}
				return points[i].Add(points[i+1].Sub(points[i]).Mul(float32(t)))
			}
			dist -= l
		}
		return points[len(points)-1]
	}

	samples := make([]pathSample, count)
	for i := 0; i < count; i++ {
		t := float64(i) / float64(count-1)
		samples[i].pos = pointAt(t * total)
		samples[i].t = t
	}
	for i := range samples {
		var d mgl32.Vec3
		switch {
		case i < len(samples)-1:
			d = samples[i+1].pos.Sub(samples[i].pos)
		default:
			d = samples[i].pos.Sub(samples[i-1].pos)
		}
		if d.Len() > 1e-6 {
			samples[i].tangent = d.Normalize()
		} else {
			samples[i].tangent = mgl32.Vec3{1, 0, 0}
		}
	}
	return samples
}
