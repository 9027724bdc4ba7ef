// Package rng provides a small deterministic random source for procedural
// placement. Not safe for concurrent use.
package rng

// Linear congruential generator with the numerical-recipes constants.
// Every stream is a pure function of its seed, so two instances seeded
// identically and driven by the same call sequence stay bit-identical.
const (
	lcgMul = 1664525
	lcgAdd = 1013904223
)

// Spatial hash primes for deriving per-chunk sub-seeds.
const (
	chunkPrimeX = 73856093
	chunkPrimeZ = 19349663
)

// Source is a seedable LCG random stream.
type Source struct {
	state uint32
}

// New creates a source with the given seed.
func New(seed uint32) *Source {
	return &Source{state: seed}
}

// Reseed resets the stream to the given seed.
func (s *Source) Reseed(seed uint32) {
	s.state = seed
}

// Next returns the next value in [0,1).
func (s *Source) Next() float64 {
	s.state = s.state*lcgMul + lcgAdd
	return float64(s.state) / 4294967296.0
}

// Range returns a value in [min,max).
func (s *Source) Range(min, max float64) float64 {
	return min + s.Next()*(max-min)
}

// RangeInt returns an integer in [min,max] inclusive.
func (s *Source) RangeInt(min, max int) int {
	if max < min {
		min, max = max, min
	}
	return min + int(s.Next()*float64(max-min+1))
}

// ChunkSeed derives a reproducible sub-seed for the chunk at grid
// coordinates (x,z) under the given global seed.
func ChunkSeed(x, z int, global uint32) uint32 {
	return uint32(int32(x)*chunkPrimeX) ^ uint32(int32(z)*chunkPrimeZ) ^ global
}
