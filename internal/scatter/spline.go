package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// SplineConfig scatters instances along a Catmull-Rom spline through the
// control points, with a traveling frame for banking and width
// distribution.
type SplineConfig struct {
	ControlPoints []mgl32.Vec3
	// SamplesPerSegment defaults to 8.
	SamplesPerSegment int
	Width             float64
	// Banking rolls instances around the tangent as a sinusoid of the
	// curve parameter. Cosmetic, not physical.
	BankAmplitude float64 // radians
	BankFrequency float64 // full sine cycles over the spline
}

// Spline is the spline-with-frame placement strategy.
type Spline struct {
	cfg     SplineConfig
	samples []pathSample
	buckets pathBuckets
}

func NewSpline(cfg SplineConfig) *Spline {
	return &Spline{cfg: cfg}
}

// UpdateSpline replaces the control points. Call RegenerateAll on the
// engine to resample and repopulate.
func (s *Spline) UpdateSpline(cfg SplineConfig) {
	s.cfg = cfg
	s.samples = nil
	s.buckets = nil
}

func (s *Spline) Init(cfg *Config) error {
	s.samples = sampleCatmullRom(s.cfg.ControlPoints, s.cfg.SamplesPerSegment)
	s.buckets = bucketSamples(s.samples, cfg.ChunkSize)
	return nil
}

func (s *Spline) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	return visibleBucketCoords(s.buckets, cam, cfg)
}

// frame returns the Frenet-like frame at a sample: side = up x tangent,
// frameUp = tangent x side.
func frame(tangent mgl32.Vec3) (side, frameUp mgl32.Vec3) {
	side = worldUp.Cross(tangent)
	if side.Len() < 1e-6 {
		// Vertical tangent; any horizontal side works.
		side = mgl32.Vec3{1, 0, 0}
	}
	side = side.Normalize()
	frameUp = tangent.Cross(side).Normalize()
	return
}

func (s *Spline) Populate(chunk *Chunk, ctx *PlaceContext) {
	half := float32(s.cfg.Width / 2)
	for _, idx := range s.buckets[chunk.Coord] {
		sm := s.samples[idx]
		if ctx.DensityMult < 1 && ctx.RNG.Next() >= ctx.DensityMult {
			continue
		}

		side, frameUp := frame(sm.tangent)
		pos := sm.pos
		if half > 0 {
			pos = pos.Add(side.Mul(float32(ctx.RNG.Range(-1, 1)) * half))
		}
		if !ctx.Accept(float64(pos.X()), float64(pos.Z())) {
			continue
		}

		rot := mgl32.Mat4ToQuat(mat4FromBasis(side, frameUp, sm.tangent))
		if s.cfg.BankAmplitude != 0 {
			bank := math.Sin(sm.t*s.cfg.BankFrequency*2*math.Pi) * s.cfg.BankAmplitude
			rot = mgl32.QuatRotate(float32(bank), sm.tangent).Mul(rot)
		}

		sc := float32(ctx.RNG.Range(ctx.Cfg.ScaleRange[0], ctx.Cfg.ScaleRange[1]) * ctx.ScaleMult)
		pos = mgl32.Vec3{pos.X(), pos.Y() + float32(ctx.Cfg.HeightOffset), pos.Z()}
		if !ctx.PlaceOriented(pos, rot, mgl32.Vec3{sc, sc, sc}) {
			ctx.ReportShortfall(1)
			return
		}
	}
}

// mat4FromBasis builds a rotation whose local X/Y/Z axes map to the
// given world vectors.
func mat4FromBasis(x, y, z mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Mat4{
		x.X(), x.Y(), x.Z(), 0,
		y.X(), y.Y(), y.Z(), 0,
		z.X(), z.Y(), z.Z(), 0,
		0, 0, 0, 1,
	}
}

// sampleCatmullRom evaluates a centripetal-style Catmull-Rom spline
// through the control points, clamping the end tangents by repeating the
// first and last points. Fewer than two points degrade to a single
// sample (or none).
func sampleCatmullRom(pts []mgl32.Vec3, perSegment int) []pathSample {
	if len(pts) < 2 {
		if len(pts) == 1 {
			return []pathSample{{pos: pts[0], tangent: mgl32.Vec3{1, 0, 0}, t: 0}}
		}
		return nil
	}
	if perSegment <= 0 {
		perSegment = 8
	}

	get := func(i int) mgl32.Vec3 {
		if i < 0 {
			return pts[0]
		}
		if i >= len(pts) {
			return pts[len(pts)-1]
		}
		return pts[i]
	}

	segments := len(pts) - 1
	totalSamples := segments*perSegment + 1
	samples := make([]pathSample, 0, totalSamples)
	for seg := 0; seg < segments; seg++ {
		p0, p1, p2, p3 := get(seg-1), get(seg), get(seg+1), get(seg+2)
		end := perSegment
		if seg == segments-1 {
			end = perSegment + 1 // include the final point once
		}
		for i := 0; i < end; i++ {
			u := float32(i) / float32(perSegment)
			samples = append(samples, pathSample{
				pos: catmullRom(p0, p1, p2, p3, u),
				t:   (float64(seg) + float64(u)) / float64(segments),
			})
		}
	}

	for i := range samples {
		var d mgl32.Vec3
		if i < len(samples)-1 {
			d = samples[i+1].pos.Sub(samples[i].pos)
		} else {
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

// catmullRom evaluates the uniform Catmull-Rom basis at u in [0,1].
func catmullRom(p0, p1, p2, p3 mgl32.Vec3, u float32) mgl32.Vec3 {
	u2 := u * u
	u3 := u2 * u
	return p1.Mul(2).
		Add(p2.Sub(p0).Mul(u)).
		Add(p0.Mul(2).Sub(p1.Mul(5)).Add(p2.Mul(4)).Sub(p3).Mul(u2)).
		Add(p1.Mul(3).Sub(p0).Sub(p2.Mul(3)).Add(p3).Mul(u3)).
		Mul(0.5)
}
