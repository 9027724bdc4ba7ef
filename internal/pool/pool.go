// Package pool implements a fixed-capacity allocator of integer instance
// handles with free-list reuse. It backs the global instance budget: once
// every slot is live, placement loops stop taking new instances until
// chunks deactivate and return theirs.
package pool

// None is returned by Acquire when no handle is available.
const None = -1

// Stats reports pool occupancy.
type Stats struct {
	Active    int // handles currently held
	Allocated int // distinct handles ever minted, bounded by Max
	Max       int
}

// Pool hands out integer handles in [0,max).
type Pool struct {
	max    int
	next   int   // next never-minted handle
	free   []int // LIFO free list, most recently released on top
	active []bool
}

// New creates a pool with the given capacity. Capacity below 1 is clamped
// to 1.
func New(max int) *Pool {
	if max < 1 {
		max = 1
	}
	return &Pool{
		max:    max,
		active: make([]bool, max),
	}
}

// Acquire returns a handle, preferring the most recently released one,
// or (None, false) when the pool is exhausted.
func (p *Pool) Acquire() (int, bool) {
	if n := len(p.free); n > 0 {
		h := p.free[n-1]
		p.free = p.free[:n-1]
		p.active[h] = true
		return h, true
	}
	if p.next >= p.max {
		return None, false
	}
	h := p.next
	p.next++
	p.active[h] = true
	return h, true
}

// Release returns a handle to the free list. Releasing a handle that is
// not currently active is a no-op.
func (p *Pool) Release(h int) {
	if h < 0 || h >= p.max || !p.active[h] {
		return
	}
	p.active[h] = false
	p.free = append(p.free, h)
}

// HasCapacity reports whether the next Acquire can succeed.
func (p *Pool) HasCapacity() bool {
	return len(p.free) > 0 || p.next < p.max
}

// Stats returns current occupancy counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Active:    p.next - len(p.free),
		Allocated: p.next,
		Max:       p.max,
	}
}
