package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
	"scatter3d/internal/sampler"
)

// HeightmapConfig scatters instances over terrain described by a
// grayscale height field.
type HeightmapConfig struct {
	Sampler sampler.Sampler
	Channel sampler.Channel // informational; the sampler is already bound to a channel
	Bounds  Bounds          // world region the map covers
	// World height = BaseHeight + sample * HeightScale.
	BaseHeight  float64
	HeightScale float64
	// Candidates on ground steeper than this (degrees from horizontal)
	// are rejected. Zero means no slope limit.
	MaxSlopeDeg float64
}

// Heightmap is the heightmap-terrain placement strategy.
type Heightmap struct {
	cfg HeightmapConfig
}

// NewHeightmap creates a heightmap strategy. A nil sampler degrades to
// flat terrain at BaseHeight rather than failing.
func NewHeightmap(cfg HeightmapConfig) *Heightmap {
	return &Heightmap{cfg: cfg}
}

func (h *Heightmap) Init(cfg *Config) error { return nil }

// HeightAt returns the terrain height under (x,z). Outside the map
// bounds the edge value applies (UV clamping).
func (h *Heightmap) HeightAt(x, z float64) float64 {
	if h.cfg.Sampler == nil {
		return h.cfg.BaseHeight
	}
	u, v := h.cfg.Bounds.UV(x, z)
	return h.cfg.BaseHeight + h.cfg.Sampler.SampleChannel(u, v)*h.cfg.HeightScale
}

// NormalAt estimates the terrain normal by symmetric finite difference.
func (h *Heightmap) NormalAt(x, z float64) mgl32.Vec3 {
	const step = 1.0
	dx := h.HeightAt(x+step, z) - h.HeightAt(x-step, z)
	dz := h.HeightAt(x, z+step) - h.HeightAt(x, z-step)
	n := mgl32.Vec3{float32(-dx / (2 * step)), 1, float32(-dz / (2 * step))}
	return n.Normalize()
}

func (h *Heightmap) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	all := squareNeighborhood(float64(cam.Position.X()), float64(cam.Position.Z()), cfg.VisibilityRange, cfg.ChunkSize)
	b := h.cfg.Bounds
	if b.MaxX <= b.MinX || b.MaxZ <= b.MinZ {
		return all // unbounded terrain
	}
	out := all[:0]
	for _, coord := range all {
		minX := float64(coord.X) * cfg.ChunkSize
		minZ := float64(coord.Z) * cfg.ChunkSize
		if minX < b.MaxX && minX+cfg.ChunkSize > b.MinX &&
			minZ < b.MaxZ && minZ+cfg.ChunkSize > b.MinZ {
			out = append(out, coord)
		}
	}
	return out
}

func (h *Heightmap) Populate(chunk *Chunk, ctx *PlaceContext) {
	area := (chunk.Bounds.MaxX - chunk.Bounds.MinX) * (chunk.Bounds.MaxZ - chunk.Bounds.MinZ)
	target := ctx.TargetCount(area)
	placed := 0

	maxSlope := h.cfg.MaxSlopeDeg
	for tries := ctx.Retries(target); tries > 0 && placed < target; tries-- {
		x := ctx.RNG.Range(chunk.Bounds.MinX, chunk.Bounds.MaxX)
		z := ctx.RNG.Range(chunk.Bounds.MinZ, chunk.Bounds.MaxZ)
		if !ctx.Accept(x, z) {
			continue
		}

		normal := h.NormalAt(x, z)
		if maxSlope > 0 {
			slope := math.Acos(float64(normal.Y())) * 180 / math.Pi
			if slope > maxSlope {
				continue
			}
		}
		pos := mgl32.Vec3{float32(x), float32(h.HeightAt(x, z)), float32(z)}
		if !ctx.Place(pos, normal) {
			break
		}
		placed++
	}
	ctx.ReportShortfall(target - placed)
}
