package scatter

import (
	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
)

// SkipFunc excludes grid cells by integer cell coordinate. Cells for
// which it returns true never receive an instance.
type SkipFunc func(ix, iz int) bool

// GridConfig lays instances out on a regular grid of cell centers with
// bounded jitter.
type GridConfig struct {
	CellsX, CellsZ int
	CellSize       float64
	RandomOffset   float64 // max jitter from the cell center, per axis
	CenterX        float64
	CenterZ        float64

	// Height answers the ground height under a cell; nil means y=0.
	Height func(x, z float64) float64

	Skip SkipFunc
}

// Grid is the regular-grid placement strategy.
type Grid struct {
	cfg GridConfig
}

// NewGrid creates a grid strategy.
func NewGrid(cfg GridConfig) *Grid {
	return &Grid{cfg: cfg}
}

// UpdateGrid swaps the grid layout. Call RegenerateAll on the engine to
// repopulate active chunks with the new layout.
func (g *Grid) UpdateGrid(cfg GridConfig) {
	g.cfg = cfg
}

func (g *Grid) Init(cfg *Config) error { return nil }

// footprint returns the world-space bounds covered by the grid.
func (g *Grid) footprint() Bounds {
	hw := float64(g.cfg.CellsX) * g.cfg.CellSize / 2
	hh := float64(g.cfg.CellsZ) * g.cfg.CellSize / 2
	return Bounds{
		MinX: g.cfg.CenterX - hw,
		MinZ: g.cfg.CenterZ - hh,
		MaxX: g.cfg.CenterX + hw,
		MaxZ: g.cfg.CenterZ + hh,
	}
}

// cellCenter returns the world position of cell (ix,iz).
func (g *Grid) cellCenter(ix, iz int) (x, z float64) {
	x = g.cfg.CenterX + (float64(ix)-float64(g.cfg.CellsX-1)/2)*g.cfg.CellSize
	z = g.cfg.CenterZ + (float64(iz)-float64(g.cfg.CellsZ-1)/2)*g.cfg.CellSize
	return
}

func (g *Grid) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	fp := g.footprint()
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

// Populate walks every cell whose center falls inside the chunk, in a
// fixed order so the chunk RNG stream is reproducible across
// reactivations.
func (g *Grid) Populate(chunk *Chunk, ctx *PlaceContext) {
	for ix := 0; ix < g.cfg.CellsX; ix++ {
		for iz := 0; iz < g.cfg.CellsZ; iz++ {
			cx, cz := g.cellCenter(ix, iz)
			if !chunk.Bounds.Contains(cx, cz) {
				continue
			}
			if g.cfg.Skip != nil && g.cfg.Skip(ix, iz) {
				continue
			}
			// LOD thins the grid probabilistically.
			if ctx.DensityMult < 1 && ctx.RNG.Next() >= ctx.DensityMult {
				continue
			}

			x, z := cx, cz
			if g.cfg.RandomOffset > 0 {
				x += ctx.RNG.Range(-g.cfg.RandomOffset, g.cfg.RandomOffset)
				z += ctx.RNG.Range(-g.cfg.RandomOffset, g.cfg.RandomOffset)
			}
			if !ctx.Accept(x, z) {
				continue
			}
			y := 0.0
			if g.cfg.Height != nil {
				y = g.cfg.Height(x, z)
			}
			if !ctx.Place(mgl32.Vec3{float32(x), float32(y), float32(z)}, worldUp) {
				ctx.ReportShortfall(g.remaining(chunk, ix, iz))
				return
			}
		}
	}
}

// remaining counts the placeable cells from (ix,iz) onward in iteration
// order, for shortfall accounting when the pool runs dry mid-chunk.
// Cells outside the chunk or excluded by the skip predicate do not
// count; the cell that just failed does.
func (g *Grid) remaining(chunk *Chunk, ix, iz int) int {
	n := 1
	iz++
	for ; ix < g.cfg.CellsX; ix++ {
		for ; iz < g.cfg.CellsZ; iz++ {
			cx, cz := g.cellCenter(ix, iz)
			if !chunk.Bounds.Contains(cx, cz) {
				continue
			}
			if g.cfg.Skip != nil && g.cfg.Skip(ix, iz) {
				continue
			}
			n++
		}
		iz = 0
	}
	return n
}
