package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
	"scatter3d/internal/noise"
	"scatter3d/internal/rng"
)

// Retry budget per target instance in rejection-sampling loops.
const retriesPerTarget = 4

// Strategy is one member of the placement family. The engine owns the
// streaming lifecycle and calls the strategy for geometry decisions only.
type Strategy interface {
	// Init runs one-shot precomputation (curve sampling, settling).
	// Called once by NewEngine and again on RegenerateAll.
	Init(cfg *Config) error

	// VisibleChunks returns candidate chunk coordinates for the given
	// camera, before frustum culling. Strategies with finite footprints
	// clip the camera neighborhood to their own bounds.
	VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord

	// Populate places instances into an activating chunk.
	Populate(chunk *Chunk, ctx *PlaceContext)
}

var worldUp = mgl32.Vec3{0, 1, 0}

// PlaceContext carries everything a strategy needs while populating one
// chunk: the chunk-local RNG and noise field, LOD multipliers, and the
// engine-backed placement calls.
type PlaceContext struct {
	Cfg         *Config
	RNG         *rng.Source
	Noise       *noise.Field
	DensityMult float64
	ScaleMult   float64

	eng   *Engine
	chunk *Chunk
}

// TargetCount converts an area (or volume) into an instance target under
// the configured density and the chunk's LOD multiplier.
func (p *PlaceContext) TargetCount(area float64) int {
	return int(math.Round(area * p.Cfg.Density * p.DensityMult))
}

// Retries returns the candidate budget for a target count.
func (p *PlaceContext) Retries(target int) int {
	if target < 1 {
		return 0
	}
	return target * retriesPerTarget
}

// Accept runs the shared acceptance chain for a candidate world
// position: noise gate, then density-map probability. Strategy-specific
// tests (slope, volume shape) run in the strategy before calling Place.
func (p *PlaceContext) Accept(x, z float64) bool {
	if n := p.Cfg.Noise; n != nil && n.Enabled {
		ok := p.Noise.Accept(x, z, noise.GateSettings{
			Scale:       n.Scale,
			Octaves:     n.Octaves,
			Persistence: n.Persistence,
			Lacunarity:  n.Lacunarity,
			Threshold:   n.Threshold,
			Power:       n.Power,
			Offset:      n.Offset,
		})
		if !ok {
			return false
		}
	}
	if dm := p.Cfg.DensityMap; dm != nil && dm.Sampler != nil {
		u, v := dm.Bounds.UV(x, z)
		prob := dm.Sampler.SampleChannel(u, v)
		if m := dm.Multiplier; m != 0 {
			prob *= m
		}
		if p.RNG.Next() >= prob {
			return false
		}
	}
	return true
}

// Place draws jitter (yaw, scale, mesh variant) from the chunk RNG and
// hands the instance to the engine. up orients the instance when
// AlignToNormal is set; pass the world up vector for unaligned
// placement. Returns false when the pool is exhausted.
func (p *PlaceContext) Place(pos mgl32.Vec3, up mgl32.Vec3) bool {
	yaw := p.RNG.Range(p.Cfg.RotationRange[0], p.Cfg.RotationRange[1])
	rot := mgl32.QuatRotate(float32(yaw), worldUp)
	if *p.Cfg.AlignToNormal && up != worldUp && up.Len() > 0 {
		rot = mgl32.QuatBetweenVectors(worldUp, up.Normalize()).Mul(rot)
	}

	s := p.RNG.Range(p.Cfg.ScaleRange[0], p.Cfg.ScaleRange[1]) * p.ScaleMult
	scale := mgl32.Vec3{float32(s), float32(s), float32(s)}

	pos = mgl32.Vec3{pos.X(), pos.Y() + float32(p.Cfg.HeightOffset), pos.Z()}
	return p.PlaceOriented(pos, rot, scale)
}

// PlaceOriented places an instance with a fully specified transform,
// bypassing jitter. Used by strategies that compute their own
// orientation (spline banking, settled bodies).
func (p *PlaceContext) PlaceOriented(pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3) bool {
	mesh := 0
	if p.Cfg.MeshCount > 1 {
		mesh = p.RNG.RangeInt(0, p.Cfg.MeshCount-1)
	}
	return p.eng.placeInstance(p.chunk, pos, rot, scale, mesh)
}

// ReportShortfall records placements that could not be satisfied.
func (p *PlaceContext) ReportShortfall(n int) {
	if n > 0 {
		p.eng.shortfall += n
	}
}
