package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// VolumeShape selects the fill region's geometry.
type VolumeShape int

const (
	VolumeBox VolumeShape = iota
	VolumeSphere
	VolumeCylinder
)

// VolumeConfig fills a 3D region with instances. Density is interpreted
// per unit volume for this strategy.
type VolumeConfig struct {
	Shape  VolumeShape
	Center mgl32.Vec3
	// Half extents. Sphere uses X as radius; cylinder uses X as radius
	// and Y as half height.
	Size mgl32.Vec3
	// Hollow excludes a core: normalized distances below this fraction
	// are rejected. 0 disables.
	Hollow float64
	// Falloff thins the outer band: within the last Falloff fraction of
	// the normalized distance, acceptance probability ramps to zero.
	Falloff float64
}

// Volume is the volume-fill placement strategy.
type Volume struct {
	cfg VolumeConfig
}

func NewVolume(cfg VolumeConfig) *Volume {
	return &Volume{cfg: cfg}
}

func (v *Volume) Init(cfg *Config) error { return nil }

// footprint is the volume's bounding region in the XZ plane.
func (v *Volume) footprint() Bounds {
	sx, sz := float64(v.cfg.Size.X()), float64(v.cfg.Size.Z())
	if v.cfg.Shape == VolumeSphere || v.cfg.Shape == VolumeCylinder {
		sz = sx
	}
	return Bounds{
		MinX: float64(v.cfg.Center.X()) - sx,
		MinZ: float64(v.cfg.Center.Z()) - sz,
		MaxX: float64(v.cfg.Center.X()) + sx,
		MaxZ: float64(v.cfg.Center.Z()) + sz,
	}
}

// yRange is the volume's vertical extent.
func (v *Volume) yRange() (lo, hi float64) {
	cy := float64(v.cfg.Center.Y())
	sy := float64(v.cfg.Size.Y())
	if v.cfg.Shape == VolumeSphere {
		sy = float64(v.cfg.Size.X())
	}
	return cy - sy, cy + sy
}

// normDist returns the normalized distance of p from the volume center:
// 0 at the center, 1 on the boundary, >1 outside.
func (v *Volume) normDist(p mgl32.Vec3) float64 {
	d := p.Sub(v.cfg.Center)
	switch v.cfg.Shape {
	case VolumeSphere:
		r := float64(v.cfg.Size.X())
		if r <= 0 {
			return 2
		}
		return float64(d.Len()) / r
	case VolumeCylinder:
		r := float64(v.cfg.Size.X())
		hy := float64(v.cfg.Size.Y())
		if r <= 0 || hy <= 0 {
			return 2
		}
		radial := math.Hypot(float64(d.X()), float64(d.Z())) / r
		axial := math.Abs(float64(d.Y())) / hy
		return math.Max(radial, axial)
	default: // box
		sx, sy, sz := float64(v.cfg.Size.X()), float64(v.cfg.Size.Y()), float64(v.cfg.Size.Z())
		if sx <= 0 || sy <= 0 || sz <= 0 {
			return 2
		}
		return math.Max(math.Abs(float64(d.X()))/sx,
			math.Max(math.Abs(float64(d.Y()))/sy, math.Abs(float64(d.Z()))/sz))
	}
}

// contains runs the shape test with hollow-core and falloff rules. The
// RNG draw for falloff comes from the chunk stream, keeping the result
// reproducible.
func (v *Volume) contains(p mgl32.Vec3, ctx *PlaceContext) bool {
	d := v.normDist(p)
	if d > 1 {
		return false
	}
	if v.cfg.Hollow > 0 && d < v.cfg.Hollow {
		return false
	}
	if f := v.cfg.Falloff; f > 0 && d > 1-f {
		// Probability ramps from 1 at the band's inner edge to 0 at the boundary.
		keep := (1 - d) / f
		if ctx.RNG.Next() >= keep {
			return false
		}
	}
	return true
}

func (v *Volume) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	fp := v.footprint()
	all := squareNeighborhood(float64(cam.Position.X()), float64(cam.Position.Z()), cfg.VisibilityRange, cfg.ChunkSize)
	out := all[:0]
	for _, coord := range all {
		minX := float64(coord.X) * cfg.ChunkSize
		minZ := float64(coord.Z) * cfg.ChunkSize
		if minX < fp.MaxX && minX+cfg.ChunkSize > fp.MinX &&
			minZ < fp.MaxZ && minZ+cfg.ChunkSize > fp.MinZ {
			out = append(out, coord)
		}
	}
	return out
}

func (v *Volume) Populate(chunk *Chunk, ctx *PlaceContext) {
	fp := v.footprint()
	minX := math.Max(chunk.Bounds.MinX, fp.MinX)
	maxX := math.Min(chunk.Bounds.MaxX, fp.MaxX)
	minZ := math.Max(chunk.Bounds.MinZ, fp.MinZ)
	maxZ := math.Min(chunk.Bounds.MaxZ, fp.MaxZ)
	if minX >= maxX || minZ >= maxZ {
		return
	}
	yLo, yHi := v.yRange()
	if yLo >= yHi {
		return
	}

	target := ctx.TargetCount((maxX - minX) * (maxZ - minZ) * (yHi - yLo))
	placed := 0

	for tries := ctx.Retries(target); tries > 0 && placed < target; tries-- {
		x := ctx.RNG.Range(minX, maxX)
		z := ctx.RNG.Range(minZ, maxZ)
		y := ctx.RNG.Range(yLo, yHi)
		p := mgl32.Vec3{float32(x), float32(y), float32(z)}
		if !v.contains(p, ctx) {
			continue
		}
		if !ctx.Accept(x, z) {
			continue
		}
		if !ctx.Place(p, worldUp) {
			break
		}
		placed++
	}
	ctx.ReportShortfall(target - placed)
}
