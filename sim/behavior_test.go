package sim

import (
	"testing"

	"github.com/pthm-cable/holdfast/traits"
)

const testDT = float32(1.0 / 60.0)

// stepBehavior advances the decision layer n frames without compute: the
// snapshot stands in for readback.
func stepBehavior(st *State, b *Behavior, n int) {
	for i := 0; i < n; i++ {
		b.Update(testDT)
		st.Frame++
	}
}

func TestFleeAndRecovery(t *testing.T) {
	st := newTestState(t)
	combat := NewCombat(st, nil)
	b := NewBehavior(st, combat)

	guard := spawnAt(t, st, JobGuard, FactionVillager, 600, 500)
	st.Trait[guard] = 0 // no Brave/Coward adjustment

	// Damage below the 0.33 flee threshold.
	st.Health[guard] = 0.30 * st.MaxHealth[guard]

	stepBehavior(st, b, int(st.Cfg.Behavior.ScanStagger))
	if st.Activity[guard] != Fleeing {
		t.Fatalf("expected Fleeing, got %v", st.Activity[guard])
	}
	if st.GoalX[guard] != st.TownX[FactionVillager] {
		t.Errorf("flee goal should be the town center, got %f", st.GoalX[guard])
	}

	// Simulate arrival at the town center.
	st.Snap.PosX[guard] = st.TownX[FactionVillager]
	st.Snap.PosY[guard] = st.TownY[FactionVillager]
	stepBehavior(st, b, 1)
	if st.Activity[guard] != OffDuty {
		t.Fatalf("expected OffDuty after arrival, got %v", st.Activity[guard])
	}

	// Recovering heals to the policy threshold, then releases to Idle.
	stepBehavior(st, b, 60*15)
	if st.Activity[guard] == OffDuty {
		t.Error("expected recovery to finish within 15 simulated seconds")
	}
	recovered := st.Health[guard] / st.MaxHealth[guard]
	if recovered < float32(st.Cfg.Behavior.RecoverThreshold)-0.01 {
		t.Errorf("expected health >= recover threshold, got %f", recovered)
	}
}

func TestBraveNeverFlees(t *testing.T) {
	st := newTestState(t)
	b := NewBehavior(st, NewCombat(st, nil))

	guard := spawnAt(t, st, JobGuard, FactionVillager, 600, 500)
	st.Trait[guard] = traits.Brave
	st.Health[guard] = 0.05 * st.MaxHealth[guard]

	stepBehavior(st, b, int(st.Cfg.Behavior.ScanStagger)*2)
	if st.Activity[guard] == Fleeing {
		t.Error("brave NPC must not flee")
	}
}

func TestRaiderAlert(t *testing.T) {
	st := newTestState(t)
	collector := &countingEvents{}
	combat := NewCombat(st, collector)
	b := NewBehavior(st, combat)

	raiderA := spawnAt(t, st, JobRaider, FactionRaider, 0, 0)
	victim := spawnAt(t, st, JobFarmer, FactionVillager, 5, 0)
	raiderB := spawnAt(t, st, JobRaider, FactionRaider, 60, 0)

	st.Trait[raiderA] = 0
	st.Activity[raiderA] = Fighting
	st.Snap.Target[raiderA] = victim
	st.AttackCooldown[raiderA] = 0

	stepBehavior(st, b, 1)

	if st.Activity[raiderB] != Fighting {
		t.Errorf("expected alerted raider Fighting, got %v", st.Activity[raiderB])
	}
	if st.ForcedTarget[raiderB] != victim {
		t.Errorf("expected alerted target %d, got %d", victim, st.ForcedTarget[raiderB])
	}
	if collector.melee == 0 {
		t.Error("expected a melee strike to have landed")
	}
}

func TestFightingDisengagesPastLeash(t *testing.T) {
	st := newTestState(t)
	b := NewBehavior(st, NewCombat(st, nil))

	guard := spawnAt(t, st, JobGuard, FactionVillager, 100, 100)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 200, 100)

	st.Activity[guard] = Fighting
	st.Snap.Target[guard] = raider
	// Drag the guard far past its leash.
	st.Snap.PosX[guard] = 100 + float32(st.Cfg.Combat.Leash) + 50
	st.Snap.PosY[guard] = 100

	stepBehavior(st, b, 1)

	if st.Activity[guard] != Returning {
		t.Errorf("expected Returning past leash, got %v", st.Activity[guard])
	}
	if st.GoalX[guard] != st.HomeX[guard] {
		t.Error("disengage should walk the guard home")
	}
}

func TestBehaviorIdempotentAtZeroDT(t *testing.T) {
	st := newTestState(t)
	b := NewBehavior(st, NewCombat(st, nil))

	farmer := spawnAt(t, st, JobFarmer, FactionVillager, 100, 100)
	guard := spawnAt(t, st, JobGuard, FactionVillager, 140, 100)
	raider := spawnAt(t, st, JobRaider, FactionRaider, 3000, 500)

	// Slots in settled states: with dt=0 and an unchanged snapshot, the
	// tick must not move them.
	st.Activity[farmer] = Farming
	st.Activity[guard] = Patrolling
	st.SetGoal(guard, 900, 900)
	st.Activity[raider] = Raiding
	st.SetGoal(raider, st.TownX[FactionVillager], st.TownY[FactionVillager])

	b.Update(0)

	type snapshot struct {
		activity Activity
		gx, gy   float32
		energy   float32
		cooldown float32
	}
	before := make([]snapshot, st.NPCs.N())
	for i := range before {
		before[i] = snapshot{st.Activity[i], st.GoalX[i], st.GoalY[i], st.Energy[i], st.AttackCooldown[i]}
	}

	b.Update(0)

	for i := range before {
		after := snapshot{st.Activity[i], st.GoalX[i], st.GoalY[i], st.Energy[i], st.AttackCooldown[i]}
		if after != before[i] {
			t.Errorf("slot %d changed on identical zero-dt tick: %+v -> %+v", i, before[i], after)
		}
	}
}

// countingEvents is a minimal CombatEvents sink for tests.
type countingEvents struct {
	melee, shots, hits, kills, skipped int
}

func (c *countingEvents) RecordMelee()               { c.melee++ }
func (c *countingEvents) RecordShot()                { c.shots++ }
func (c *countingEvents) RecordProjectileHit()       { c.hits++ }
func (c *countingEvents) RecordKill(int32)           { c.kills++ }
func (c *countingEvents) RecordProjectileExhausted() { c.skipped++ }
