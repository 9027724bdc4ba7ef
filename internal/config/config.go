// Package config loads scatter configuration from YAML or JSON files,
// validates it against the embedded JSON schema, and builds the engine
// config plus the selected placement strategy from it.
package config

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"scatter3d/internal/bake"
	"scatter3d/internal/physics"
	"scatter3d/internal/sampler"
	"scatter3d/internal/scatter"
	"scatter3d/schemas"
)

// Density maps are resampled to at most this many pixels per side.
const densityMapMaxDim = 256

var schema = jsonschema.MustCompileString("scatter.schema.json", string(schemas.Scatter))

// File is the persisted form of a scatter setup: the shared engine
// config plus exactly one strategy section matching the strategy name.
type File struct {
	Strategy string `yaml:"strategy" json:"strategy"`

	Density         float64         `yaml:"density" json:"density,omitempty"`
	VisibilityRange float64         `yaml:"visibility_range" json:"visibility_range,omitempty"`
	ChunkSize       float64         `yaml:"chunk_size" json:"chunk_size,omitempty"`
	MaxInstances    int             `yaml:"max_instances" json:"max_instances,omitempty"`
	MeshCount       int             `yaml:"mesh_count" json:"mesh_count,omitempty"`
	ScaleRange      []float64       `yaml:"scale_range" json:"scale_range,omitempty"`
	RotationRange   []float64       `yaml:"rotation_range" json:"rotation_range,omitempty"`
	HeightOffset    float64         `yaml:"height_offset" json:"height_offset,omitempty"`
	AlignToNormal   *bool           `yaml:"align_to_normal" json:"align_to_normal,omitempty"`
	Seed            uint32          `yaml:"seed" json:"seed,omitempty"`
	Noise           *NoiseFile      `yaml:"noise" json:"noise,omitempty"`
	LOD             *LODFile        `yaml:"lod" json:"lod,omitempty"`
	DensityMap      *DensityMapFile `yaml:"density_map" json:"density_map,omitempty"`

	Grid    *GridFile    `yaml:"grid" json:"grid,omitempty"`
	Curve   *CurveFile   `yaml:"curve" json:"curve,omitempty"`
	Spline  *SplineFile  `yaml:"spline" json:"spline,omitempty"`
	Volume  *VolumeFile  `yaml:"volume" json:"volume,omitempty"`
	Radial  *RadialFile  `yaml:"radial" json:"radial,omitempty"`
	Settled *SettledFile `yaml:"settled" json:"settled,omitempty"`
}

type NoiseFile struct {
	Enabled     bool    `yaml:"enabled" json:"enabled,omitempty"`
	Scale       float64 `yaml:"scale" json:"scale,omitempty"`
	Octaves     int     `yaml:"octaves" json:"octaves,omitempty"`
	Persistence float64 `yaml:"persistence" json:"persistence,omitempty"`
	Lacunarity  float64 `yaml:"lacunarity" json:"lacunarity,omitempty"`
	Threshold   float64 `yaml:"threshold" json:"threshold,omitempty"`
	Power       float64 `yaml:"power" json:"power,omitempty"`
	Offset      float64 `yaml:"offset" json:"offset,omitempty"`
}

type LODLevelFile struct {
	Distance float64 `yaml:"distance" json:"distance"`
	Density  float64 `yaml:"density" json:"density"`
	Scale    float64 `yaml:"scale" json:"scale,omitempty"`
}

type LODFile struct {
	Levels        []LODLevelFile `yaml:"levels" json:"levels"`
	BlendDistance float64        `yaml:"blend_distance" json:"blend_distance,omitempty"`
}

type BoundsFile struct {
	MinX float64 `yaml:"min_x" json:"min_x"`
	MinZ float64 `yaml:"min_z" json:"min_z"`
	MaxX float64 `yaml:"max_x" json:"max_x"`
	MaxZ float64 `yaml:"max_z" json:"max_z"`
}

type DensityMapFile struct {
	Image      string     `yaml:"image" json:"image"`
	Channel    string     `yaml:"channel" json:"channel,omitempty"`
	Bounds     BoundsFile `yaml:"bounds" json:"bounds"`
	Multiplier float64    `yaml:"multiplier" json:"multiplier,omitempty"`
}

type GridFile struct {
	CellsX       int     `yaml:"cells_x" json:"cells_x"`
	CellsZ       int     `yaml:"cells_z" json:"cells_z"`
	CellSize     float64 `yaml:"cell_size" json:"cell_size"`
	RandomOffset float64 `yaml:"random_offset" json:"random_offset,omitempty"`
	CenterX      float64 `yaml:"center_x" json:"center_x,omitempty"`
	CenterZ      float64 `yaml:"center_z" json:"center_z,omitempty"`
}

type CurveFile struct {
	Points      [][3]float64 `yaml:"points" json:"points"`
	Width       float64      `yaml:"width" json:"width,omitempty"`
	Spacing     float64      `yaml:"spacing" json:"spacing,omitempty"`
	SampleCount int          `yaml:"sample_count" json:"sample_count,omitempty"`
}

type SplineFile struct {
	ControlPoints     [][3]float64 `yaml:"control_points" json:"control_points"`
	SamplesPerSegment int          `yaml:"samples_per_segment" json:"samples_per_segment,omitempty"`
	Width             float64      `yaml:"width" json:"width,omitempty"`
	BankAmplitude     float64      `yaml:"bank_amplitude" json:"bank_amplitude,omitempty"`
	BankFrequency     float64      `yaml:"bank_frequency" json:"bank_frequency,omitempty"`
}

type VolumeFile struct {
	Shape   string     `yaml:"shape" json:"shape"`
	Center  [3]float64 `yaml:"center" json:"center,omitempty"`
	Size    [3]float64 `yaml:"size" json:"size"`
	Hollow  float64    `yaml:"hollow" json:"hollow,omitempty"`
	Falloff float64    `yaml:"falloff" json:"falloff,omitempty"`
}

type RadialFile struct {
	CenterX      float64 `yaml:"center_x" json:"center_x,omitempty"`
	CenterZ      float64 `yaml:"center_z" json:"center_z,omitempty"`
	InnerRadius  float64 `yaml:"inner_radius" json:"inner_radius,omitempty"`
	OuterRadius  float64 `yaml:"outer_radius" json:"outer_radius"`
	FalloffPower float64 `yaml:"falloff_power" json:"falloff_power,omitempty"`
}

type SettledFile struct {
	BodyCount   int     `yaml:"body_count" json:"body_count"`
	StepCount   int     `yaml:"step_count" json:"step_count,omitempty"`
	DropHeight  float64 `yaml:"drop_height" json:"drop_height,omitempty"`
	Radius      float64 `yaml:"radius" json:"radius,omitempty"`
	CenterX     float64 `yaml:"center_x" json:"center_x,omitempty"`
	CenterZ     float64 `yaml:"center_z" json:"center_z,omitempty"`
	HalfExtentX float64 `yaml:"half_extent_x" json:"half_extent_x,omitempty"`
	HalfExtentZ float64 `yaml:"half_extent_z" json:"half_extent_z,omitempty"`
	FloorY      float64 `yaml:"floor_y" json:"floor_y,omitempty"`
	Restitution float64 `yaml:"restitution" json:"restitution,omitempty"`
	Friction    float64 `yaml:"friction" json:"friction,omitempty"`
	// BakeDB points at a settle-result cache; only consulted when the
	// seed is explicit (a time-derived seed never hits the cache).
	BakeDB string `yaml:"bake_db" json:"bake_db,omitempty"`
}

// Load reads, validates, and decodes a config file. Both YAML and JSON
// are accepted; JSON is a YAML subset so one decoder serves.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return f, nil
}

// Parse validates raw YAML/JSON bytes against the schema and decodes
// them.
func Parse(b []byte) (*File, error) {
	var raw any
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	// Round-trip through encoding/json so the validator sees plain
	// map[string]any / float64 values.
	jb, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(jb, &v); err != nil {
		return nil, err
	}
	if err := schema.Validate(v); err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if err := f.checkStrategySection(); err != nil {
		return nil, err
	}
	return &f, nil
}

// checkStrategySection rejects files whose strategy name has no
// matching section (where one is required) and files carrying sections
// for other strategies.
func (f *File) checkStrategySection() error {
	sections := map[string]bool{
		"grid":    f.Grid != nil,
		"curve":   f.Curve != nil,
		"spline":  f.Spline != nil,
		"volume":  f.Volume != nil,
		"radial":  f.Radial != nil,
		"settled": f.Settled != nil,
	}
	for name, present := range sections {
		if name == f.Strategy {
			if !present {
				return fmt.Errorf("strategy %q requires a %q section", f.Strategy, name)
			}
			continue
		}
		if present {
			return fmt.Errorf("section %q does not match strategy %q", name, f.Strategy)
		}
	}
	return nil
}

// EngineConfig converts the file into the engine's config, loading the
// density-map image when one is referenced. Relative image paths
// resolve against baseDir.
func (f *File) EngineConfig(baseDir string) (scatter.Config, error) {
	cfg := scatter.Config{
		Density:         f.Density,
		VisibilityRange: f.VisibilityRange,
		ChunkSize:       f.ChunkSize,
		MaxInstances:    f.MaxInstances,
		MeshCount:       f.MeshCount,
		HeightOffset:    f.HeightOffset,
		AlignToNormal:   f.AlignToNormal,
		Seed:            f.Seed,
	}
	if len(f.ScaleRange) == 2 {
		cfg.ScaleRange = [2]float64{f.ScaleRange[0], f.ScaleRange[1]}
	}
	if len(f.RotationRange) == 2 {
		cfg.RotationRange = [2]float64{f.RotationRange[0], f.RotationRange[1]}
	}
	if n := f.Noise; n != nil {
		cfg.Noise = &scatter.NoiseSettings{
			Enabled:     n.Enabled,
			Scale:       n.Scale,
			Octaves:     n.Octaves,
			Persistence: n.Persistence,
			Lacunarity:  n.Lacunarity,
			Threshold:   n.Threshold,
			Power:       n.Power,
			Offset:      n.Offset,
		}
	}
	if l := f.LOD; l != nil {
		ls := &scatter.LODSettings{BlendDistance: l.BlendDistance}
		for _, lv := range l.Levels {
			ls.Levels = append(ls.Levels, scatter.LODLevel{
				Distance: lv.Distance, Density: lv.Density, Scale: lv.Scale,
			})
		}
		cfg.LOD = ls
	}
	if dm := f.DensityMap; dm != nil {
		path := dm.Image
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		smp, err := loadImageSampler(path, dm.Channel)
		if err != nil {
			return cfg, fmt.Errorf("density map: %w", err)
		}
		cfg.DensityMap = &scatter.DensityMapSettings{
			Sampler: smp,
			Bounds: scatter.Bounds{
				MinX: dm.Bounds.MinX, MinZ: dm.Bounds.MinZ,
				MaxX: dm.Bounds.MaxX, MaxZ: dm.Bounds.MaxZ,
			},
			Multiplier: dm.Multiplier,
		}
	}
	return cfg, nil
}

// BuildStrategy constructs the strategy the file selects. cfg must be
// the value EngineConfig returned (the settled strategy reads the seed
// and chunk size from it for its bake cache).
func (f *File) BuildStrategy(cfg scatter.Config) (scatter.Strategy, error) {
	switch f.Strategy {
	case "surface":
		return scatter.NewSurface(scatter.SurfaceConfig{}), nil
	case "heightmap":
		// Without a height source the heightmap degrades to a flat
		// surface; height fields are wired programmatically.
		return scatter.NewHeightmap(scatter.HeightmapConfig{}), nil
	case "grid":
		g := f.Grid
		return scatter.NewGrid(scatter.GridConfig{
			CellsX: g.CellsX, CellsZ: g.CellsZ, CellSize: g.CellSize,
			RandomOffset: g.RandomOffset, CenterX: g.CenterX, CenterZ: g.CenterZ,
		}), nil
	case "curve":
		c := f.Curve
		return scatter.NewCurve(scatter.CurveConfig{
			Points: vec3s(c.Points), Width: c.Width,
			Spacing: c.Spacing, SampleCount: c.SampleCount,
		}), nil
	case "spline":
		s := f.Spline
		return scatter.NewSpline(scatter.SplineConfig{
			ControlPoints:     vec3s(s.ControlPoints),
			SamplesPerSegment: s.SamplesPerSegment,
			Width:             s.Width,
			BankAmplitude:     s.BankAmplitude,
			BankFrequency:     s.BankFrequency,
		}), nil
	case "volume":
		v := f.Volume
		shape, err := volumeShape(v.Shape)
		if err != nil {
			return nil, err
		}
		return scatter.NewVolume(scatter.VolumeConfig{
			Shape:   shape,
			Center:  vec3(v.Center),
			Size:    vec3(v.Size),
			Hollow:  v.Hollow,
			Falloff: v.Falloff,
		}), nil
	case "radial":
		r := f.Radial
		return scatter.NewRadial(scatter.RadialConfig{
			CenterX: r.CenterX, CenterZ: r.CenterZ,
			InnerRadius: r.InnerRadius, OuterRadius: r.OuterRadius,
			FalloffPower: r.FalloffPower,
		}), nil
	case "settled":
		return f.buildSettled(cfg)
	default:
		return nil, fmt.Errorf("unknown strategy %q", f.Strategy)
	}
}

// buildSettled constructs the settled strategy, consulting the bake
// cache when one is configured. On a miss the settling pass runs here
// and its outcome is stored for the next run.
func (f *File) buildSettled(cfg scatter.Config) (scatter.Strategy, error) {
	pc := f.Settled.physicsConfig()
	s := scatter.NewSettled(scatter.SettledConfig{Physics: pc})

	if f.Settled.BakeDB == "" || cfg.Seed == 0 {
		return s, nil
	}
	cfg = cfg.Normalized()

	store, err := bake.Open(f.Settled.BakeDB)
	if err != nil {
		return nil, fmt.Errorf("bake cache: %w", err)
	}
	defer store.Close()

	results, ok, err := store.Get(cfg.Seed, pc)
	if err != nil {
		return nil, fmt.Errorf("bake cache: %w", err)
	}
	if ok {
		s.SetResults(results, &cfg)
		return s, nil
	}
	if err := s.Init(&cfg); err != nil {
		return nil, err
	}
	if err := store.Put(cfg.Seed, pc, s.Results()); err != nil {
		return nil, fmt.Errorf("bake cache: %w", err)
	}
	return s, nil
}

func (sf *SettledFile) physicsConfig() physics.Config {
	return physics.Config{
		BodyCount:   sf.BodyCount,
		StepCount:   sf.StepCount,
		DropHeight:  float32(sf.DropHeight),
		Radius:      float32(sf.Radius),
		CenterX:     float32(sf.CenterX),
		CenterZ:     float32(sf.CenterZ),
		HalfExtentX: float32(sf.HalfExtentX),
		HalfExtentZ: float32(sf.HalfExtentZ),
		FloorY:      float32(sf.FloorY),
		Restitution: float32(sf.Restitution),
		Friction:    float32(sf.Friction),
	}
}

func loadImageSampler(path, channel string) (sampler.Sampler, error) {
	ch := sampler.ChannelR
	switch channel {
	case "", "r":
	case "g":
		ch = sampler.ChannelG
	case "b":
		ch = sampler.ChannelB
	case "a":
		ch = sampler.ChannelA
	default:
		return nil, fmt.Errorf("unknown channel %q", channel)
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	img, _, err := image.Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return sampler.FromImage(img, ch, densityMapMaxDim), nil
}

func volumeShape(name string) (scatter.VolumeShape, error) {
	switch name {
	case "box":
		return scatter.VolumeBox, nil
	case "sphere":
		return scatter.VolumeSphere, nil
	case "cylinder":
		return scatter.VolumeCylinder, nil
	default:
		return 0, fmt.Errorf("unknown volume shape %q", name)
	}
}

func vec3(v [3]float64) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func vec3s(vs [][3]float64) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(vs))
	for i, v := range vs {
		out[i] = vec3(v)
	}
	return out
}
