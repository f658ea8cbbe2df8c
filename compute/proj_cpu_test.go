package compute

import (
	"testing"

	"github.com/pthm-cable/holdfast/sim"
)

// fireAt seeds a projectile slot directly.
func fireAt(t *testing.T, st *sim.State, faction int32, x, y, vx, vy, lifetime float32) int32 {
	t.Helper()
	slot, err := st.Proj.Acquire()
	if err != nil {
		t.Fatalf("projectile acquire: %v", err)
	}
	st.PPosX[slot] = x
	st.PPosY[slot] = y
	st.PVelX[slot] = vx
	st.PVelY[slot] = vy
	st.PDamage[slot] = 10
	st.PFaction[slot] = faction
	st.PShooter[slot] = -1
	st.PLifetime[slot] = lifetime
	st.PActive[slot] = 1
	st.MarkProjDirty(slot)
	return slot
}

func TestOrientedRectangleHit(t *testing.T) {
	st, b := newTestWorld(t)

	target := place(t, st, sim.FactionVillager, 50, 0.5, 50, 0.5, 0)
	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 500, 0, 2.0)

	// 500 units/sec crosses the target within a quarter second.
	run(st, b, 15)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	if err := b.ReadHits(hitT, hitP, 1); err != nil {
		t.Fatal(err)
	}
	if hitT[proj] != target {
		t.Errorf("expected hit on slot %d, got %d", target, hitT[proj])
	}
	if b.pActive[proj] != 0 || b.pPosX[proj] > sim.TombstoneThreshold {
		t.Error("hit projectile must be deactivated and tombstoned")
	}
}

func TestOrientedRectangleMissAcross(t *testing.T) {
	st, b := newTestWorld(t)

	// 4 units off the flight line: outside the 3 unit half width.
	place(t, st, sim.FactionVillager, 50, 4.0, 50, 4.0, 0)
	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 500, 0, 0.5)

	run(st, b, 15)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	b.ReadHits(hitT, hitP, 1)
	if hitT[proj] >= 0 {
		t.Errorf("expected miss, got hit on %d", hitT[proj])
	}
}

func TestProjectileSkipsSameFaction(t *testing.T) {
	st, b := newTestWorld(t)

	place(t, st, sim.FactionRaider, 50, 0, 50, 0, 0)
	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 500, 0, 0.5)

	run(st, b, 10)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	b.ReadHits(hitT, hitP, 1)
	if hitT[proj] >= 0 {
		t.Error("projectile must not hit its own faction")
	}
}

func TestProjectileSkipsDeadTargets(t *testing.T) {
	st, b := newTestWorld(t)

	corpse := place(t, st, sim.FactionVillager, 50, 0, 50, 0, 0)
	st.Health[corpse] = 0
	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 500, 0, 0.5)

	run(st, b, 10)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	b.ReadHits(hitT, hitP, 1)
	if hitT[proj] >= 0 {
		t.Error("projectile must not hit dead targets")
	}
}

func TestProjectileExpiry(t *testing.T) {
	st, b := newTestWorld(t)

	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 500, 0, 0.1)

	// Lifetime 0.1s expires within ten frames.
	run(st, b, 10)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	b.ReadHits(hitT, hitP, 1)
	if hitT[proj] != sim.HitExpired {
		t.Errorf("expected expiry sentinel %d, got %d", sim.HitExpired, hitT[proj])
	}
	if b.pActive[proj] != 0 || b.pPosX[proj] > sim.TombstoneThreshold {
		t.Error("expired projectile must be deactivated and tombstoned")
	}
}

func TestDiskFallbackAtZeroVelocity(t *testing.T) {
	st, b := newTestWorld(t)

	target := place(t, st, sim.FactionVillager, 5, 0, 5, 0, 0)
	proj := fireAt(t, st, sim.FactionRaider, 0, 0, 0, 0, 1.0)

	run(st, b, 2)

	hitT := make([]int32, 1)
	hitP := make([]int32, 1)
	b.ReadHits(hitT, hitP, 1)
	// Distance 5 is inside the half-length disk (12).
	if hitT[proj] != target {
		t.Errorf("expected disk-fallback hit on %d, got %d", target, hitT[proj])
	}
}
