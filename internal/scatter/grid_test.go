package scatter

import (
	"math"
	"testing"
)

func gridEngine(t *testing.T, gcfg GridConfig, cfg Config) (*Engine, *MemorySink, *Grid) {
	t.Helper()
	g := NewGrid(gcfg)
	sink := NewMemorySink(cfg.MaxInstances)
	eng, err := NewEngine(cfg, g, sink)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	eng.SetFrustumCulling(false)
	return eng, sink, g
}

// TestGridExactCellCenters pins the canonical layout: a 2x2 grid with
// cell size 10 and zero jitter must produce exactly four instances at
// (-5,0,-5), (-5,0,5), (5,0,-5), (5,0,5).
func TestGridExactCellCenters(t *testing.T) {
	cfg := Config{Density: 1, VisibilityRange: 100, ChunkSize: 64, MaxInstances: 100, Seed: 42}
	eng, sink, _ := gridEngine(t, GridConfig{CellsX: 2, CellsZ: 2, CellSize: 10}, cfg)

	eng.Update(testCam(0, 0))

	got := sink.Visible()
	if len(got) != 4 {
		t.Fatalf("placed %d instances, want 4", len(got))
	}
	want := map[[2]float64]bool{
		{-5, -5}: false, {-5, 5}: false, {5, -5}: false, {5, 5}: false,
	}
	for _, tr := range got {
		key := [2]float64{float64(tr.Pos.X()), float64(tr.Pos.Z())}
		seen, known := want[key]
		if !known {
			t.Fatalf("instance at unexpected position %v", tr.Pos)
		}
		if seen {
			t.Fatalf("duplicate instance at %v", tr.Pos)
		}
		if tr.Pos.Y() != 0 {
			t.Errorf("instance at %v has nonzero height", tr.Pos)
		}
		want[key] = true
	}
}

// TestGridSkipPredicate verifies skipped cells never receive an instance
// and all others do.
func TestGridSkipPredicate(t *testing.T) {
	skipDiagonal := func(ix, iz int) bool { return ix == iz }
	cfg := Config{Density: 1, VisibilityRange: 200, ChunkSize: 64, MaxInstances: 100, Seed: 42}
	eng, sink, _ := gridEngine(t, GridConfig{CellsX: 4, CellsZ: 4, CellSize: 10, Skip: skipDiagonal}, cfg)

	eng.Update(testCam(0, 0))

	got := sink.Visible()
	if len(got) != 12 {
		t.Fatalf("placed %d instances, want 12 (16 cells minus 4 diagonal)", len(got))
	}
	// Diagonal cell centers are at x == z.
	for _, tr := range got {
		if tr.Pos.X() == tr.Pos.Z() {
			t.Errorf("skipped diagonal cell received instance at %v", tr.Pos)
		}
	}
}

// TestGridJitterBounded verifies jittered cells stay within RandomOffset
// of their centers.
func TestGridJitterBounded(t *testing.T) {
	const offset = 2.0
	cfg := Config{Density: 1, VisibilityRange: 200, ChunkSize: 64, MaxInstances: 100, Seed: 42}
	eng, sink, _ := gridEngine(t, GridConfig{CellsX: 3, CellsZ: 3, CellSize: 20, RandomOffset: offset}, cfg)

	eng.Update(testCam(0, 0))

	for _, tr := range sink.Visible() {
		x, z := float64(tr.Pos.X()), float64(tr.Pos.Z())
		// Nearest unjittered center.
		cx := math.Round(x/20) * 20
		cz := math.Round(z/20) * 20
		if math.Abs(x-cx) > offset+1e-4 || math.Abs(z-cz) > offset+1e-4 {
			t.Errorf("instance at (%v,%v) jittered beyond %v from cell center (%v,%v)", x, z, offset, cx, cz)
		}
	}
}

// TestGridHeightFunc verifies a ground callback sets instance height.
func TestGridHeightFunc(t *testing.T) {
	height := func(x, z float64) float64 { return 7 }
	cfg := Config{Density: 1, VisibilityRange: 100, ChunkSize: 64, MaxInstances: 100, Seed: 42}
	eng, sink, _ := gridEngine(t, GridConfig{CellsX: 2, CellsZ: 2, CellSize: 10, Height: height}, cfg)

	eng.Update(testCam(0, 0))
	for _, tr := range sink.Visible() {
		if tr.Pos.Y() != 7 {
			t.Errorf("instance height %v, want 7", tr.Pos.Y())
		}
	}
}

// TestGridUpdateGridTakesEffectAfterRegenerate verifies the updater path.
func TestGridUpdateGridTakesEffectAfterRegenerate(t *testing.T) {
	cfg := Config{Density: 1, VisibilityRange: 200, ChunkSize: 64, MaxInstances: 200, Seed: 42}
	eng, sink, g := gridEngine(t, GridConfig{CellsX: 2, CellsZ: 2, CellSize: 10}, cfg)

	cam := testCam(0, 0)
	eng.Update(cam)
	if n := sink.VisibleCount(); n != 4 {
		t.Fatalf("initial grid placed %d, want 4", n)
	}

	g.UpdateGrid(GridConfig{CellsX: 5, CellsZ: 5, CellSize: 10})
	eng.RegenerateAll(cam)
	if n := sink.VisibleCount(); n != 25 {
		t.Errorf("updated grid placed %d, want 25", n)
	}
}

// TestGridShortfallCountsPlaceableCells pins the shortfall on pool
// exhaustion: skipped cells and cells outside the chunk must not count.
// The grid sits entirely inside one chunk, 16 cells minus 4 skipped
// leaves 12 placeable; with a pool of 5 the shortfall is exactly 7.
func TestGridShortfallCountsPlaceableCells(t *testing.T) {
	skipDiagonal := func(ix, iz int) bool { return ix == iz }
	gcfg := GridConfig{CellsX: 4, CellsZ: 4, CellSize: 10, CenterX: 20, CenterZ: 20, Skip: skipDiagonal}
	cfg := Config{Density: 1, VisibilityRange: 100, ChunkSize: 64, MaxInstances: 5, Seed: 42}
	eng, sink, _ := gridEngine(t, gcfg, cfg)

	eng.Update(testCam(20, 20))

	if n := sink.VisibleCount(); n != 5 {
		t.Fatalf("placed %d instances, want pool capacity 5", n)
	}
	if s := eng.Stats().Shortfall; s != 7 {
		t.Errorf("shortfall = %d, want 7 (12 placeable cells minus 5 placed)", s)
	}
}
