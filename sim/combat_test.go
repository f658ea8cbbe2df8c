package sim

import (
	"testing"
)

func TestMeleeDamageAndFlash(t *testing.T) {
	st := newTestState(t)
	events := &countingEvents{}
	combat := NewCombat(st, events)

	guard := spawnAt(t, st, JobGuard, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 10, 0)
	st.Trait[guard] = 0

	before := st.Health[raider]
	combat.Attack(guard, raider)

	if st.Health[raider] >= before {
		t.Error("melee should reduce target health")
	}
	if st.Visual[int(raider)*VisualStride+VisFlash] != 1.0 {
		t.Error("melee should set the damage flash")
	}
	if events.melee != 1 {
		t.Errorf("expected 1 melee event, got %d", events.melee)
	}
}

func TestRangedFireAllocatesProjectile(t *testing.T) {
	st := newTestState(t)
	events := &countingEvents{}
	combat := NewCombat(st, events)

	archer := spawnAt(t, st, JobArcher, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 100, 0)
	st.Trait[archer] = 0

	combat.Attack(archer, raider)

	if st.Proj.N() != 1 {
		t.Fatalf("expected 1 projectile slot, got %d", st.Proj.N())
	}
	if st.PActive[0] != 1 {
		t.Error("projectile not active")
	}
	if st.PVelX[0] <= 0 || st.PVelY[0] != 0 {
		t.Errorf("expected velocity along +x, got (%f, %f)", st.PVelX[0], st.PVelY[0])
	}
	if st.PFaction[0] != FactionVillager || st.PShooter[0] != archer {
		t.Error("projectile faction/shooter mismatch")
	}
	if events.shots != 1 {
		t.Errorf("expected 1 shot event, got %d", events.shots)
	}
}

func TestProjectileExhaustionSkipsShot(t *testing.T) {
	st := newTestState(t)
	events := &countingEvents{}
	combat := NewCombat(st, events)

	archer := spawnAt(t, st, JobArcher, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 100, 0)

	// Exhaust the projectile pool.
	for {
		if _, err := st.Proj.Acquire(); err != nil {
			break
		}
	}

	combat.Attack(archer, raider)
	if events.skipped != 1 {
		t.Errorf("expected skipped shot, got %d", events.skipped)
	}
	if events.shots != 0 {
		t.Error("no shot should have been recorded")
	}
}

func TestApplyProjectileHits(t *testing.T) {
	st := newTestState(t)
	events := &countingEvents{}
	combat := NewCombat(st, events)

	archer := spawnAt(t, st, JobArcher, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 50, 0)
	st.Trait[archer] = 0
	combat.Attack(archer, raider)

	// Simulate the kernel reporting a hit on the next frame's readback.
	st.Snap.HitTarget[0] = raider
	st.Snap.HitProcessed[0] = 0

	before := st.Health[raider]
	combat.ApplyProjectileHits()

	if st.Health[raider] >= before {
		t.Error("projectile hit should apply damage")
	}
	if st.PActive[0] != 0 || st.PPosX[0] > TombstoneThreshold {
		t.Error("hit projectile must be deactivated and tombstoned")
	}
	if st.Proj.FreeCount() != 1 {
		t.Error("hit projectile slot must be recycled")
	}
	if st.Snap.HitProcessed[0] != 1 {
		t.Error("hit record must be marked processed")
	}

	// A second pass must not double-apply.
	mid := st.Health[raider]
	combat.ApplyProjectileHits()
	if st.Health[raider] != mid {
		t.Error("processed hit applied twice")
	}
}

func TestExpiredProjectileRecycled(t *testing.T) {
	st := newTestState(t)
	combat := NewCombat(st, nil)

	archer := spawnAt(t, st, JobArcher, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 500, 0)
	combat.Attack(archer, raider)

	st.Snap.HitTarget[0] = HitExpired
	st.Snap.HitProcessed[0] = 0
	combat.ApplyProjectileHits()

	if st.Proj.FreeCount() != 1 {
		t.Error("expired projectile slot must be recycled")
	}
}

func TestKillGrantsXPAndRecordsEvent(t *testing.T) {
	st := newTestState(t)
	events := &countingEvents{}
	combat := NewCombat(st, events)

	guard := spawnAt(t, st, JobGuard, FactionVillager, 0, 0)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 10, 0)
	st.Level[raider] = 3

	combat.Kill(raider, guard)

	wantXP := int32(3 * st.Cfg.Combat.XPPerLevelKill)
	if st.XP[guard] != wantXP {
		t.Errorf("expected killer XP %d, got %d", wantXP, st.XP[guard])
	}

	evs := st.DrainDeathEvents()
	if len(evs) != 1 {
		t.Fatalf("expected 1 death event, got %d", len(evs))
	}
	ev := evs[0]
	if ev.Slot != raider || ev.KillerSlot != guard || ev.VictimLevel != 3 {
		t.Errorf("death event mismatch: %+v", ev)
	}
	if ev.VictimJob != JobRaider || ev.KillerJob != JobGuard {
		t.Errorf("death event jobs mismatch: %+v", ev)
	}
	if events.kills != 1 {
		t.Errorf("expected 1 kill event, got %d", events.kills)
	}
}
