package rng

import "testing"

// TestNextDeterministic verifies two sources with the same seed produce
// bit-identical streams.
func TestNextDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 1000; i++ {
		va, vb := a.Next(), b.Next()
		if va != vb {
			t.Fatalf("streams diverged at draw %d: %v != %v", i, va, vb)
		}
	}
}

// TestNextRange verifies Next stays in [0,1).
func TestNextRange(t *testing.T) {
	s := New(12345)
	for i := 0; i < 10000; i++ {
		v := s.Next()
		if v < 0 || v >= 1 {
			t.Fatalf("Next() out of [0,1) at draw %d: %v", i, v)
		}
	}
}

// TestReseedRestartsStream verifies Reseed replays the stream from scratch.
func TestReseedRestartsStream(t *testing.T) {
	s := New(7)
	first := make([]float64, 50)
	for i := range first {
		first[i] = s.Next()
	}
	s.Reseed(7)
	for i := range first {
		if v := s.Next(); v != first[i] {
			t.Fatalf("reseeded stream diverged at draw %d: %v != %v", i, v, first[i])
		}
	}
}

func TestRangeBounds(t *testing.T) {
	s := New(99)
	for i := 0; i < 1000; i++ {
		v := s.Range(-3, 5)
		if v < -3 || v >= 5 {
			t.Errorf("Range(-3,5) out of bounds: %v", v)
		}
	}
}

func TestRangeIntInclusive(t *testing.T) {
	s := New(1)
	seen := make(map[int]bool)
	for i := 0; i < 10000; i++ {
		v := s.RangeInt(2, 5)
		if v < 2 || v > 5 {
			t.Fatalf("RangeInt(2,5) out of bounds: %d", v)
		}
		seen[v] = true
	}
	for want := 2; want <= 5; want++ {
		if !seen[want] {
			t.Errorf("RangeInt(2,5) never produced %d over 10000 draws", want)
		}
	}
}

func TestRangeIntSwappedBounds(t *testing.T) {
	s := New(1)
	for i := 0; i < 100; i++ {
		v := s.RangeInt(5, 2)
		if v < 2 || v > 5 {
			t.Fatalf("RangeInt(5,2) out of bounds: %d", v)
		}
	}
}

// TestChunkSeedDistinct verifies the derivation is stable, responds to
// the global seed, and never collides along a chunk row or column. The
// coordinate multipliers are odd, so scaling by them is a bijection on
// uint32 and same-row or same-column coordinates cannot collide. Full
// 2D uniqueness does not hold (mirrored coordinate pairs can collide)
// and is not asserted.
func TestChunkSeedDistinct(t *testing.T) {
	if ChunkSeed(3, -2, 42) != ChunkSeed(3, -2, 42) {
		t.Fatal("ChunkSeed not stable for identical inputs")
	}
	if ChunkSeed(3, -2, 42) == ChunkSeed(3, -2, 43) {
		t.Error("global seed does not affect the chunk seed")
	}
	for z := -4; z <= 4; z++ {
		seen := make(map[uint32]int)
		for x := -16; x <= 16; x++ {
			seed := ChunkSeed(x, z, 42)
			if prev, dup := seen[seed]; dup {
				t.Errorf("chunks (%d,%d) and (%d,%d) share seed %d", x, z, prev, z, seed)
			}
			seen[seed] = x
		}
	}
	for x := -4; x <= 4; x++ {
		seen := make(map[uint32]int)
		for z := -16; z <= 16; z++ {
			seed := ChunkSeed(x, z, 42)
			if prev, dup := seen[seed]; dup {
				t.Errorf("chunks (%d,%d) and (%d,%d) share seed %d", x, z, x, prev, seed)
			}
			seen[seed] = z
		}
	}
}

func BenchmarkNext(b *testing.B) {
	s := New(42)
	for i := 0; i < b.N; i++ {
		s.Next()
	}
}
