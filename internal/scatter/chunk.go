package scatter

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"scatter3d/internal/noise"
	"scatter3d/internal/rng"
)

// ChunkCoord identifies a chunk cell on the XZ grid.
type ChunkCoord struct {
	X, Z int
}

// Chunk is one cell of the streaming grid. Entries survive deactivation
// (instances cleared, flag dropped) and are reused when the camera
// returns; RegenerateAll is the only thing that empties the map.
type Chunk struct {
	Coord  ChunkCoord
	Bounds Bounds

	active    bool
	seed      uint32
	noise     *noise.Field
	instances []instance
}

// instance ties a pool handle to its chosen mesh variant.
type instance struct {
	handle int
	mesh   int
}

func newChunk(coord ChunkCoord, cfg *Config) *Chunk {
	seed := rng.ChunkSeed(coord.X, coord.Z, cfg.Seed)
	minX := float64(coord.X) * cfg.ChunkSize
	minZ := float64(coord.Z) * cfg.ChunkSize
	return &Chunk{
		Coord: coord,
		Bounds: Bounds{
			MinX: minX,
			MinZ: minZ,
			MaxX: minX + cfg.ChunkSize,
			MaxZ: minZ + cfg.ChunkSize,
		},
		seed:  seed,
		noise: noise.New(seed),
	}
}

// Active reports whether the chunk currently owns live instances.
func (c *Chunk) Active() bool { return c.active }

// InstanceCount returns the number of live instances in the chunk.
func (c *Chunk) InstanceCount() int { return len(c.instances) }

// center returns the chunk's center in the XZ plane.
func (c *Chunk) center() (x, z float64) {
	return (c.Bounds.MinX + c.Bounds.MaxX) / 2, (c.Bounds.MinZ + c.Bounds.MaxZ) / 2
}

// aabb returns the world-space box used for frustum tests.
func (c *Chunk) aabb(heightBounds [2]float64) (mgl32.Vec3, mgl32.Vec3) {
	return mgl32.Vec3{float32(c.Bounds.MinX), float32(heightBounds[0]), float32(c.Bounds.MinZ)},
		mgl32.Vec3{float32(c.Bounds.MaxX), float32(heightBounds[1]), float32(c.Bounds.MaxZ)}
}

// coordAt returns the chunk coordinate containing the world position.
func coordAt(x, z, chunkSize float64) ChunkCoord {
	return ChunkCoord{
		X: int(math.Floor(x / chunkSize)),
		Z: int(math.Floor(z / chunkSize)),
	}
}

// squareNeighborhood returns every chunk coordinate whose center lies
// within visRange of (cx,cz), scanning the covering square.
func squareNeighborhood(cx, cz, visRange, chunkSize float64) []ChunkCoord {
	radius := int(math.Ceil(visRange / chunkSize))
	center := coordAt(cx, cz, chunkSize)
	// Half the chunk diagonal keeps cells whose center is just outside
	// range but whose area is not.
	slack := chunkSize * math.Sqrt2 / 2
	var out []ChunkCoord
	for dx := -radius; dx <= radius; dx++ {
		for dz := -radius; dz <= radius; dz++ {
			coord := ChunkCoord{X: center.X + dx, Z: center.Z + dz}
			mx := (float64(coord.X) + 0.5) * chunkSize
			mz := (float64(coord.Z) + 0.5) * chunkSize
			if math.Hypot(mx-cx, mz-cz) <= visRange+slack {
				out = append(out, coord)
			}
		}
	}
	return out
}
