package scatter

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
	"scatter3d/internal/physics"
)

// SettledConfig drops rigid bodies once and scatters instances where
// they came to rest.
type SettledConfig struct {
	Physics physics.Config
}

// Settled is the physics-settled placement strategy. The settling pass
// runs synchronously in Init; Populate only replays the precomputed
// results bucketed by chunk.
type Settled struct {
	cfg     SettledConfig
	seed    uint32 // seed of the pass that produced buckets
	buckets map[ChunkCoord][]physics.Result
}

func NewSettled(cfg SettledConfig) *Settled {
	return &Settled{cfg: cfg}
}

// Init runs the settling pass on first use. Once results exist they are
// reused, so RegenerateAll replays whatever layout is current, whether
// it came from this pass, from Resimulate, or from SetResults.
func (s *Settled) Init(cfg *Config) error {
	if s.buckets != nil {
		return nil
	}
	s.seed = cfg.Seed
	s.settle(cfg)
	return nil
}

// Resimulate re-runs the settling pass with a new seed. The engine's
// RegenerateAll must follow for chunks to pick up the new layout. Must
// not be called while an Update is in flight (single-writer model).
func (s *Settled) Resimulate(seed uint32, cfg *Config) {
	s.seed = seed
	s.settle(cfg)
}

// SetResults installs precomputed settle results (e.g. loaded from a
// bake cache) instead of simulating.
func (s *Settled) SetResults(results []physics.Result, cfg *Config) {
	s.seed = cfg.Seed
	s.bucket(results, cfg.ChunkSize)
}

// Results returns the settled transforms in bucket order, suitable for
// handing to a bake cache.
func (s *Settled) Results() []physics.Result {
	coords := make([]ChunkCoord, 0, len(s.buckets))
	for coord := range s.buckets {
		coords = append(coords, coord)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	var out []physics.Result
	for _, coord := range coords {
		out = append(out, s.buckets[coord]...)
	}
	return out
}

func (s *Settled) settle(cfg *Config) {
	s.bucket(physics.Settle(s.cfg.Physics, s.seed), cfg.ChunkSize)
}

func (s *Settled) bucket(results []physics.Result, chunkSize float64) {
	s.buckets = make(map[ChunkCoord][]physics.Result)
	for _, r := range results {
		coord := coordAt(float64(r.Pos.X()), float64(r.Pos.Z()), chunkSize)
		s.buckets[coord] = append(s.buckets[coord], r)
	}
}

func (s *Settled) VisibleChunks(cam camera.Camera, cfg *Config) []ChunkCoord {
	slack := cfg.ChunkSize
	out := make([]ChunkCoord, 0, len(s.buckets))
	for coord := range s.buckets {
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

// Populate replays the settled transforms for this chunk. Orientation
// comes from the simulation; scale and mesh variant still jitter from
// the chunk stream.
func (s *Settled) Populate(chunk *Chunk, ctx *PlaceContext) {
	for _, r := range s.buckets[chunk.Coord] {
		if ctx.DensityMult < 1 && ctx.RNG.Next() >= ctx.DensityMult {
			continue
		}
		if !ctx.Accept(float64(r.Pos.X()), float64(r.Pos.Z())) {
			continue
		}
		sc := float32(ctx.RNG.Range(ctx.Cfg.ScaleRange[0], ctx.Cfg.ScaleRange[1]) * ctx.ScaleMult)
		pos := mgl32.Vec3{r.Pos.X(), r.Pos.Y() + float32(ctx.Cfg.HeightOffset), r.Pos.Z()}
		if !ctx.PlaceOriented(pos, r.Orient, mgl32.Vec3{sc, sc, sc}) {
			ctx.ReportShortfall(1)
			return
		}
	}
}
