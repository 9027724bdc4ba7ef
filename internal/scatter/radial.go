package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// RadialConfig scatters instances in a flat ring around a center point.
type RadialConfig struct {
	CenterX, CenterZ float64
	InnerRadius      float64
	OuterRadius      float64
	// FalloffPower transforms the radial parameter: r = inner +
	// (outer-inner) * u^FalloffPower. Values below 1 bias samples
	// outward, above 1 inward. 0 means uniform (1).
	FalloffPower float64

	// Height answers the ground height under a sample; nil means y=0.
	Height func(x, z float64) float64
}

// Radial is the radial-ring placement strategy.
type Radial struct {
	cfg RadialConfig
}

func NewRadial(cfg RadialConfig) *Radial {
	return &Radial{cfg: cfg}
}

func (r *Radial) Init(cfg *Config) error { return nil }

func (r *Radial) footprint() Bounds {
	return Bounds{
		MinX: r.cfg.CenterX - r.cfg.OuterRadius,
		MinZ: r.cfg.CenterZ - r.cfg.OuterRadius,
		MaxX: r.cfg.CenterX + r.cfg.OuterRadius,
		MaxZ: r.cfg.CenterZ + r.cfg.OuterRadius,
	}
}

func (r *Radial) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	fp := r.footprint()
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

// Populate rejection-samples polar coordinates; candidates landing
// outside the chunk are the first link of the acceptance chain and
// simply burn a retry.
func (r *Radial) Populate(chunk *Chunk, ctx *PlaceContext) {
	if r.cfg.OuterRadius <= 0 || r.cfg.OuterRadius <= r.cfg.InnerRadius {
		return
	}
	ringArea := math.Pi * (r.cfg.OuterRadius*r.cfg.OuterRadius - r.cfg.InnerRadius*r.cfg.InnerRadius)
	chunkArea := (chunk.Bounds.MaxX - chunk.Bounds.MinX) * (chunk.Bounds.MaxZ - chunk.Bounds.MinZ)
	fp := r.footprint()
	fpArea := (fp.MaxX - fp.MinX) * (fp.MaxZ - fp.MinZ)
	// Approximate this chunk's share of the ring by area ratio.
	target := ctx.TargetCount(ringArea * math.Min(chunkArea/fpArea, 1))
	placed := 0

	power := r.cfg.FalloffPower
	if power <= 0 {
		power = 1
	}

	for tries := ctx.Retries(target); tries > 0 && placed < target; tries-- {
		theta := ctx.RNG.Range(0, 2*math.Pi)
		u := math.Pow(ctx.RNG.Next(), power)
		radius := r.cfg.InnerRadius + u*(r.cfg.OuterRadius-r.cfg.InnerRadius)
		x := r.cfg.CenterX + math.Cos(theta)*radius
		z := r.cfg.CenterZ + math.Sin(theta)*radius

		if !chunk.Bounds.Contains(x, z) {
			continue
		}
		if !ctx.Accept(x, z) {
			continue
		}
		y := 0.0
		if r.cfg.Height != nil {
			y = r.cfg.Height(x, z)
		}
		if !ctx.Place(mgl32.Vec3{float32(x), float32(y), float32(z)}, worldUp) {
			break
		}
		placed++
	}
	ctx.ReportShortfall(target - placed)
}
