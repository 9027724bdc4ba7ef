package config

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scatter3d/internal/bake"
	"scatter3d/internal/scatter"
)

func TestParseMinimal(t *testing.T) {
	f, err := Parse([]byte("strategy: surface\ndensity: 0.5\nvisibility_range: 200\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Strategy != "surface" || f.Density != 0.5 || f.VisibilityRange != 200 {
		t.Errorf("decoded %+v", f)
	}
	cfg, err := f.EngineConfig(".")
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if cfg.Density != 0.5 {
		t.Errorf("Density = %v, want 0.5", cfg.Density)
	}
	if _, err := f.BuildStrategy(cfg); err != nil {
		t.Fatalf("BuildStrategy: %v", err)
	}
}

func TestParseJSONForm(t *testing.T) {
	f, err := Parse([]byte(`{"strategy":"radial","density":1,"visibility_range":100,"radial":{"outer_radius":50}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Radial == nil || f.Radial.OuterRadius != 50 {
		t.Errorf("radial section not decoded: %+v", f.Radial)
	}
}

func TestParseFullGrid(t *testing.T) {
	src := `
strategy: grid
density: 1
visibility_range: 300
chunk_size: 32
max_instances: 500
seed: 42
scale_range: [0.9, 1.1]
rotation_range: [0, 3.14159]
align_to_normal: false
noise:
  enabled: true
  scale: 0.02
  octaves: 3
  threshold: 0.4
lod:
  levels:
    - {distance: 0, density: 1.0}
    - {distance: 100, density: 0.5, scale: 0.8}
  blend_distance: 20
grid:
  cells_x: 8
  cells_z: 8
  cell_size: 5
  random_offset: 1.5
`
	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := f.EngineConfig(".")
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if cfg.Noise == nil || !cfg.Noise.Enabled || cfg.Noise.Threshold != 0.4 {
		t.Errorf("noise settings lost: %+v", cfg.Noise)
	}
	if cfg.LOD == nil || len(cfg.LOD.Levels) != 2 || cfg.LOD.BlendDistance != 20 {
		t.Errorf("lod settings lost: %+v", cfg.LOD)
	}
	if cfg.AlignToNormal == nil || *cfg.AlignToNormal {
		t.Error("align_to_normal: false not carried through")
	}
	s, err := f.BuildStrategy(cfg)
	if err != nil {
		t.Fatalf("BuildStrategy: %v", err)
	}
	if _, ok := s.(*scatter.Grid); !ok {
		t.Errorf("built %T, want *scatter.Grid", s)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"unknown strategy", "strategy: orbit\n"},
		{"missing strategy", "density: 1\n"},
		{"negative density", "strategy: surface\ndensity: -1\n"},
		{"unknown field", "strategy: surface\nspacing: 3\n"},
		{"bad scale range", "strategy: surface\nscale_range: [1, 2, 3]\n"},
		{"bad volume shape", "strategy: volume\nvolume: {shape: torus, size: [1,1,1]}\n"},
		{"missing section", "strategy: grid\n"},
		{"mismatched section", "strategy: surface\ngrid: {cells_x: 1, cells_z: 1, cell_size: 1}\n"},
	}
	for _, c := range cases {
		if _, err := Parse([]byte(c.src)); err == nil {
			t.Errorf("%s: accepted", c.name)
		}
	}
}

func TestLoadDensityMapImage(t *testing.T) {
	dir := t.TempDir()

	// Left half black, right half white.
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	fh, err := os.Create(filepath.Join(dir, "density.png"))
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(fh, img); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	src := `
strategy: surface
density: 1
visibility_range: 100
density_map:
  image: density.png
  channel: r
  bounds: {min_x: -100, min_z: -100, max_x: 100, max_z: 100}
`
	path := filepath.Join(dir, "scatter.yaml")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg, err := f.EngineConfig(dir)
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}
	if cfg.DensityMap == nil || cfg.DensityMap.Sampler == nil {
		t.Fatal("density map sampler not loaded")
	}
	if v := cfg.DensityMap.Sampler.SampleChannel(0.9, 0.5); v < 0.9 {
		t.Errorf("white half sampled %v, want near 1", v)
	}
	if v := cfg.DensityMap.Sampler.SampleChannel(0.1, 0.5); v > 0.1 {
		t.Errorf("black half sampled %v, want near 0", v)
	}
}

func TestLoadMissingDensityMapImage(t *testing.T) {
	f, err := Parse([]byte(`
strategy: surface
density: 1
visibility_range: 100
density_map:
  image: nope.png
  bounds: {min_x: 0, min_z: 0, max_x: 1, max_z: 1}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := f.EngineConfig(t.TempDir()); err == nil {
		t.Error("missing image accepted")
	}
}

func TestSettledUsesBakeCache(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "bakes.db")
	src := `
strategy: settled
density: 1
visibility_range: 200
seed: 31
settled:
  body_count: 25
  step_count: 200
  drop_height: 6
  radius: 0.5
  half_extent_x: 30
  half_extent_z: 30
  restitution: 0.3
  friction: 0.8
  bake_db: ` + db + "\n"

	f, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cfg, err := f.EngineConfig(dir)
	if err != nil {
		t.Fatalf("EngineConfig: %v", err)
	}

	// First build settles and populates the cache.
	s1, err := f.BuildStrategy(cfg)
	if err != nil {
		t.Fatalf("first BuildStrategy: %v", err)
	}
	first := s1.(*scatter.Settled).Results()
	if len(first) == 0 {
		t.Fatal("settling produced no results")
	}

	store, err := bake.Open(db)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	cached, ok, err := store.Get(31, f.Settled.physicsConfig())
	store.Close()
	if err != nil || !ok {
		t.Fatalf("cache not populated: ok=%v err=%v", ok, err)
	}
	if len(cached) != len(first) {
		t.Fatalf("cache holds %d results, strategy has %d", len(cached), len(first))
	}

	// Second build must replay the cached layout.
	s2, err := f.BuildStrategy(cfg)
	if err != nil {
		t.Fatalf("second BuildStrategy: %v", err)
	}
	second := s2.(*scatter.Settled).Results()
	if len(second) != len(first) {
		t.Fatalf("cached build has %d results, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("result %d differs between settle and cached replay", i)
		}
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("strategy: [unclosed")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestSchemaErrorMentionsField(t *testing.T) {
	_, err := Parse([]byte("strategy: surface\ndensity: -2\n"))
	if err == nil {
		t.Fatal("negative density accepted")
	}
	if !strings.Contains(err.Error(), "density") {
		t.Errorf("error %q does not name the offending field", err)
	}
}
