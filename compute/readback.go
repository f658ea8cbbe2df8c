package compute

import (
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/sim"
)

// Ring issues the per-frame GPU->CPU copies into the preallocated snapshot,
// each stream on its own cadence and range-sized to the live counts:
//
//   - positions, healths, combat targets: every frame over [0, N)
//   - projectile hits: every frame over [0, M)
//   - factions: every FactionInterval frames
//   - aggregate stats: every StatsInterval frames
//
// A failed read leaves the previous snapshot in place and flags it stale;
// selection and click systems tolerate one frame of staleness anyway.
type Ring struct {
	backend Backend
	cfg     config.ReadbackConfig

	// bindN grows in RebindBoundary steps; the readback binding is only
	// respawned when N crosses a boundary, not on every spawn.
	bindN    int32
	rebinds  int64
	staleRun int64
}

// NewRing creates the readback ring over a backend.
func NewRing(backend Backend, cfg config.ReadbackConfig) *Ring {
	return &Ring{backend: backend, cfg: cfg}
}

// Collect runs the readbacks due this frame into st.Snap.
func (r *Ring) Collect(st *sim.State) error {
	n := st.NPCs.N()
	m := st.Proj.N()
	snap := st.Snap

	if n > r.bindN {
		boundary := int32(r.cfg.RebindBoundary)
		r.bindN = (n/boundary + 1) * boundary
		if poolMax := st.NPCs.Max(); r.bindN > poolMax {
			r.bindN = poolMax
		}
		r.rebinds++
	}

	var firstErr error
	fail := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	fail(r.backend.ReadPositions(snap.PosX, snap.PosY, n))
	fail(r.backend.ReadHealths(snap.Health, n))
	fail(r.backend.ReadTargets(snap.Target, n))
	fail(r.backend.ReadHits(snap.HitTarget, snap.HitProcessed, m))

	frame := st.Frame
	if r.cfg.FactionInterval > 0 && frame%int32(r.cfg.FactionInterval) == 0 {
		fail(r.backend.ReadFactions(snap.Faction, n))
	}
	if r.cfg.StatsInterval > 0 && frame%int32(r.cfg.StatsInterval) == 0 {
		r.aggregate(snap, n)
	}

	if firstErr != nil {
		// Keep the previous snapshot; callers reuse it for one more frame.
		snap.Stale = true
		r.staleRun++
		return firstErr
	}
	snap.Stale = false
	r.staleRun = 0
	snap.Frame = frame
	return nil
}

// aggregate refreshes the cheap whole-population statistics.
func (r *Ring) aggregate(snap *sim.Snapshot, n int32) {
	var alive [2]int32
	var engaged int32
	for i := int32(0); i < n; i++ {
		if snap.Health[i] <= 0 || snap.PosX[i] < sim.TombstoneThreshold {
			continue
		}
		if f := snap.Faction[i]; f == sim.FactionVillager || f == sim.FactionRaider {
			alive[f]++
		}
		if snap.Target[i] >= 0 {
			engaged++
		}
	}
	snap.AliveByFaction = alive
	snap.Engaged = engaged
}

// Rebinds returns how many times the readback binding was respawned.
func (r *Ring) Rebinds() int64 {
	return r.rebinds
}

// StaleRun returns the current run of consecutive stale frames.
func (r *Ring) StaleRun() int64 {
	return r.staleRun
}
