package scatter

import (
	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// SurfaceFunc projects a horizontal candidate onto the scattering
// surface: it answers the height and surface normal under (x,z), or
// ok=false where the surface has no coverage.
type SurfaceFunc func(x, z float64) (y float64, normal mgl32.Vec3, ok bool)

// SurfaceConfig scatters instances across an arbitrary surface supplied
// as a projection callback.
type SurfaceConfig struct {
	Surface SurfaceFunc
}

// Surface is the surface-sampling placement strategy.
type Surface struct {
	cfg SurfaceConfig
}

// NewSurface creates a surface strategy. A nil SurfaceFunc falls back to
// the flat plane y=0 with an up normal.
func NewSurface(cfg SurfaceConfig) *Surface {
	return &Surface{cfg: cfg}
}

func (s *Surface) Init(cfg *Config) error { return nil }

func (s *Surface) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	return squareNeighborhood(float64(cam.Position.X()), float64(cam.Position.Z()), cfg.VisibilityRange, cfg.ChunkSize)
}

func (s *Surface) Populate(chunk *Chunk, ctx *PlaceContext) {
	area := (chunk.Bounds.MaxX - chunk.Bounds.MinX) * (chunk.Bounds.MaxZ - chunk.Bounds.MinZ)
	target := ctx.TargetCount(area)
	placed := 0

	for tries := ctx.Retries(target); tries > 0 && placed < target; tries-- {
		x := ctx.RNG.Range(chunk.Bounds.MinX, chunk.Bounds.MaxX)
		z := ctx.RNG.Range(chunk.Bounds.MinZ, chunk.Bounds.MaxZ)
		if !ctx.Accept(x, z) {
			continue
		}

		y, normal := 0.0, worldUp
		if s.cfg.Surface != nil {
			var ok bool
			y, normal, ok = s.cfg.Surface(x, z)
			if !ok {
				continue
			}
		}
		if !ctx.Place(mgl32.Vec3{float32(x), float32(y), float32(z)}, normal) {
			break // pool exhausted
		}
		placed++
	}
	ctx.ReportShortfall(target - placed)
}
