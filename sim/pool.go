package sim

import "errors"

// ErrPoolExhausted is returned when every slot is live and the free list is empty.
var ErrPoolExhausted = errors.New("sim: slot pool exhausted")

// Pool hands out slot indices for one class of entity (NPCs or projectiles).
// Released slots are recycled LIFO; the high-water mark N only grows, so GPU
// dispatch ranges stay dense in [0, N).
type Pool struct {
	free []int32
	n    int32
	max  int32
}

// NewPool creates a pool with the given capacity.
func NewPool(max int) *Pool {
	return &Pool{
		free: make([]int32, 0, 64),
		max:  int32(max),
	}
}

// Acquire returns a free slot index, preferring recycled slots over raising
// the high-water mark. Returns ErrPoolExhausted when N == max and no slot is
// free.
func (p *Pool) Acquire() (int32, error) {
	if ln := len(p.free); ln > 0 {
		slot := p.free[ln-1]
		p.free = p.free[:ln-1]
		return slot, nil
	}
	if p.n >= p.max {
		return -1, ErrPoolExhausted
	}
	slot := p.n
	p.n++
	return slot, nil
}

// Release pushes a slot back onto the free list. The caller must have
// tombstoned the slot first; the GPU keeps no-oping it until reuse.
func (p *Pool) Release(slot int32) {
	p.free = append(p.free, slot)
}

// N returns the high-water mark: dispatch and readback ranges cover [0, N).
func (p *Pool) N() int32 {
	return p.n
}

// Max returns the pool capacity.
func (p *Pool) Max() int32 {
	return p.max
}

// FreeCount returns the number of recycled slots awaiting reuse.
func (p *Pool) FreeCount() int {
	return len(p.free)
}

// Alive returns the number of live slots (high-water minus free).
func (p *Pool) Alive() int {
	return int(p.n) - len(p.free)
}

// FreeList returns the current free list for persistence. The returned slice
// aliases pool storage; callers copy before mutating.
func (p *Pool) FreeList() []int32 {
	return p.free
}

// Restore rebuilds the pool from persisted state.
func (p *Pool) Restore(n int32, free []int32) {
	p.n = n
	p.free = append(p.free[:0], free...)
}
