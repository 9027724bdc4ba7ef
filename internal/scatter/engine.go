package scatter

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/camera"
	"scatter3d/internal/pool"
	"scatter3d/internal/profiling"
	"scatter3d/internal/rng"
)

// Engine streams chunks of procedurally placed instances around a
// camera. It owns the chunk map, the instance pool, and the transform
// sink; a Strategy decides where instances go inside each chunk.
//
// The engine is single-writer: Update, the mutators, and strategy
// updaters must all run on the same goroutine.
type Engine struct {
	cfg      Config
	strategy Strategy
	pool     *pool.Pool
	sink     TransformSink
	meshes   MeshAssigner // sink upgrade, nil when unsupported
	events   EventSink

	chunks map[ChunkCoord]*Chunk

	frustumCull   bool
	frustumMargin float32
	debug         bool
	ready         bool

	shortfall int
	lastStats Stats
}

// NewEngine builds an engine around a strategy and a transform sink.
// Strategy precomputation (curve sampling, physics settling) runs
// synchronously here; the engine is usable as soon as NewEngine returns.
func NewEngine(cfg Config, strategy Strategy, sink TransformSink) (*Engine, error) {
	if strategy == nil {
		return nil, fmt.Errorf("scatter: nil strategy")
	}
	if sink == nil {
		return nil, fmt.Errorf("scatter: nil transform sink")
	}
	cfg = cfg.normalize()
	if err := strategy.Init(&cfg); err != nil {
		return nil, fmt.Errorf("scatter: strategy init: %w", err)
	}

	e := &Engine{
		cfg:           cfg,
		strategy:      strategy,
		pool:          pool.New(cfg.MaxInstances),
		sink:          sink,
		events:        nopEvents{},
		chunks:        make(map[ChunkCoord]*Chunk),
		frustumCull:   true,
		frustumMargin: 2,
		ready:         true,
	}
	if m, ok := sink.(MeshAssigner); ok {
		e.meshes = m
	}
	return e, nil
}

// SetEventSink installs a lifecycle event receiver. Pass nil to remove.
func (e *Engine) SetEventSink(s EventSink) {
	if s == nil {
		e.events = nopEvents{}
		return
	}
	e.events = s
}

// Update recomputes the visible chunk set for the camera, activating
// newly visible chunks and deactivating stale ones. No-op until the engine
// is initialized.
func (e *Engine) Update(cam camera.Camera) {
	if !e.ready {
		return
	}
	defer profiling.Track("scatter.Update")()

	candidates := e.strategy.VisibleChunks(cam, &e.cfg)
	clip := cam.Clip()

	want := make(map[ChunkCoord]bool, len(candidates))
	for _, coord := range candidates {
		if e.frustumCull && !e.coordVisible(coord, clip) {
			continue
		}
		want[coord] = true
	}

	// Newly visible chunks activate before stale ones release their
	// handles; under tight capacity this keeps near chunks from starving
	// mid-frame and matches the lifecycle callers observe.
	for _, coord := range candidates {
		if !want[coord] {
			continue
		}
		chunk := e.chunks[coord]
		if chunk == nil {
			chunk = newChunk(coord, &e.cfg)
			e.chunks[coord] = chunk
		}
		if !chunk.active {
			e.activateChunk(chunk, cam)
		}
	}

	var stale []ChunkCoord
	for coord, chunk := range e.chunks {
		if chunk.active && !want[coord] {
			stale = append(stale, coord)
		}
	}
	// Map order is random; sort so event sequences are reproducible.
	sort.Slice(stale, func(i, j int) bool {
		if stale[i].X != stale[j].X {
			return stale[i].X < stale[j].X
		}
		return stale[i].Z < stale[j].Z
	})
	for _, coord := range stale {
		e.deactivateChunk(e.chunks[coord])
	}

	if s := e.Stats(); s != e.lastStats {
		e.lastStats = s
		e.events.StatsChanged(s)
	}
}

func (e *Engine) coordVisible(coord ChunkCoord, clip mgl32.Mat4) bool {
	chunk := e.chunks[coord]
	var min, max mgl32.Vec3
	if chunk != nil {
		min, max = chunk.aabb(e.cfg.HeightBounds)
	} else {
		minX := float64(coord.X) * e.cfg.ChunkSize
		minZ := float64(coord.Z) * e.cfg.ChunkSize
		min = mgl32.Vec3{float32(minX), float32(e.cfg.HeightBounds[0]), float32(minZ)}
		max = mgl32.Vec3{float32(minX + e.cfg.ChunkSize), float32(e.cfg.HeightBounds[1]), float32(minZ + e.cfg.ChunkSize)}
	}
	return camera.AABBVisible(min, max, clip, e.frustumMargin)
}

// activateChunk derives the chunk seed, invokes the strategy, and emits
// the activation event.
func (e *Engine) activateChunk(chunk *Chunk, cam camera.Camera) {
	defer profiling.Track("scatter.activateChunk")()

	cx, cz := chunk.center()
	dist := math.Hypot(cx-float64(cam.Position.X()), cz-float64(cam.Position.Z()))
	densityMult, scaleMult := e.cfg.LOD.Multipliers(dist)

	ctx := &PlaceContext{
		Cfg:         &e.cfg,
		RNG:         rng.New(chunk.seed),
		Noise:       chunk.noise,
		DensityMult: densityMult,
		ScaleMult:   scaleMult,
		eng:         e,
		chunk:       chunk,
	}
	e.strategy.Populate(chunk, ctx)
	chunk.active = true

	if e.debug {
		log.Printf("chunk (%d,%d) activated: %d instances, lod %.2f", chunk.Coord.X, chunk.Coord.Z, len(chunk.instances), densityMult)
	}
	e.events.ChunkActivated(chunk.Coord, len(chunk.instances))
}

// deactivateChunk hides and releases every owned instance. The chunk
// entry stays in the map for reuse.
func (e *Engine) deactivateChunk(chunk *Chunk) {
	for _, inst := range chunk.instances {
		e.sink.Hide(inst.handle)
		e.pool.Release(inst.handle)
	}
	chunk.instances = chunk.instances[:0]
	chunk.active = false

	if e.debug {
		log.Printf("chunk (%d,%d) deactivated", chunk.Coord.X, chunk.Coord.Z)
	}
	e.events.ChunkDeactivated(chunk.Coord)
}

// placeInstance acquires a handle and writes the transform. Returns
// false when the pool is exhausted; the placement loop is expected to
// stop silently.
func (e *Engine) placeInstance(chunk *Chunk, pos mgl32.Vec3, rot mgl32.Quat, scale mgl32.Vec3, mesh int) bool {
	h, ok := e.pool.Acquire()
	if !ok {
		return false
	}
	if e.meshes != nil {
		e.meshes.SetMesh(h, mesh)
	}
	e.sink.SetTransform(h, pos, rot, scale)
	chunk.instances = append(chunk.instances, instance{handle: h, mesh: mesh})
	return true
}

// RegenerateAll deactivates and drops every chunk, re-runs strategy
// precomputation, and immediately recomputes visibility for the camera.
func (e *Engine) RegenerateAll(cam camera.Camera) {
	if !e.ready {
		return
	}
	var coords []ChunkCoord
	for coord, chunk := range e.chunks {
		if chunk.active {
			coords = append(coords, coord)
		}
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Z < coords[j].Z
	})
	for _, coord := range coords {
		e.deactivateChunk(e.chunks[coord])
	}
	e.chunks = make(map[ChunkCoord]*Chunk)
	e.shortfall = 0

	if err := e.strategy.Init(&e.cfg); err != nil {
		log.Printf("scatter: regenerate: strategy init failed: %v", err)
		return
	}
	e.Update(cam)
}

// SetDensity changes the base density. Takes effect for chunks populated
// after the call; call RegenerateAll to apply everywhere at once.
func (e *Engine) SetDensity(d float64) {
	if d < 0 {
		d = 0
	}
	e.cfg.Density = d
}

// SetVisibilityRange changes the streaming radius.
func (e *Engine) SetVisibilityRange(r float64) {
	if r < 0 {
		r = 0
	}
	e.cfg.VisibilityRange = r
}

// SetFrustumCulling toggles the frustum test; disable for top-down views
// or tests.
func (e *Engine) SetFrustumCulling(enabled bool) {
	e.frustumCull = enabled
}

// ToggleDebug switches activation/deactivation logging.
func (e *Engine) ToggleDebug(enabled bool) {
	e.debug = enabled
}

// Config returns a copy of the engine's effective configuration, with
// defaults applied.
func (e *Engine) Config() Config {
	return e.cfg
}

// Stats snapshots current instance and chunk counters.
func (e *Engine) Stats() Stats {
	ps := e.pool.Stats()
	s := Stats{
		InstancesActive: ps.Active,
		InstancesTotal:  ps.Allocated,
		InstancesMax:    ps.Max,
		ChunksTotal:     len(e.chunks),
		MeshCount:       e.cfg.MeshCount,
		Shortfall:       e.shortfall,
	}
	for _, chunk := range e.chunks {
		if chunk.active {
			s.ChunksActive++
		}
	}
	return s
}
