package compute

import (
	"errors"

	"github.com/pthm-cable/holdfast/sim"
)

// Error kinds surfaced by the compute layer. ErrReadbackStale is
// recoverable (the caller reuses the previous snapshot); the others are
// fatal and abort the session.
var (
	ErrReadbackStale    = errors.New("compute: readback fence not complete")
	ErrDeviceLost       = errors.New("compute: GPU device lost")
	ErrShaderValidation = errors.New("compute: shader validation failed")
)

// Backend runs the two kernels and exposes range-sized reads of GPU-owned
// buffers. The GPU implementation lives in gpu.go; the CPU implementation in
// cpu.go carries identical semantics for headless runs and tests.
type Backend interface {
	// Upload mirrors CPU-written fields to the kernel-visible buffers:
	// full [0, N) ranges of goals/speeds/factions/healths plus positional
	// rewrites for dirty (spawned or tombstoned) slots. Dirty lists are
	// consumed.
	Upload(st *sim.State)

	// Dispatch runs NPC modes 0-2 then projectile modes 0-2, with the NPC
	// grid final before the projectile kernel reads it.
	Dispatch(n, m int32, dt float32) error

	ReadPositions(dstX, dstY []float32, n int32) error
	ReadHealths(dst []float32, n int32) error
	ReadTargets(dst []int32, n int32) error
	ReadFactions(dst []int32, n int32) error
	ReadHits(dstTarget, dstProcessed []int32, m int32) error

	// GridDrops returns the cumulative overflow count across both grids.
	GridDrops() int64

	Close()
}
