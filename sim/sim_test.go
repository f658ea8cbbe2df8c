package sim

import (
	"math/rand"
	"testing"

	"github.com/pthm-cable/holdfast/config"
)

// newTestState builds a small state over the embedded default config.
func newTestState(t *testing.T) *State {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("loading defaults: %v", err)
	}
	cfg.Pool.MaxNPCs = 256
	cfg.Pool.MaxProjectiles = 64
	st := NewState(cfg, rand.New(rand.NewSource(1)))
	st.TownX[FactionVillager] = 500
	st.TownY[FactionVillager] = 500
	st.TownX[FactionRaider] = 3000
	st.TownY[FactionRaider] = 500
	return st
}

// spawnAt drains one spawn command and returns its slot.
func spawnAt(t *testing.T, st *State, job JobID, faction int32, x, y float32) int32 {
	t.Helper()
	st.EnqueueSpawn(SpawnCommand{Job: job, HomeX: x, HomeY: y, Faction: faction, InitialState: Idle})
	slots, err := st.DrainSpawns()
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	return slots[len(slots)-1]
}

func TestSpawnSlotReuse(t *testing.T) {
	st := newTestState(t)
	combat := NewCombat(st, nil)

	a := spawnAt(t, st, JobFarmer, FactionVillager, 100, 100)
	b := spawnAt(t, st, JobFarmer, FactionVillager, 120, 100)
	if a != 0 || b != 1 {
		t.Fatalf("expected slots 0,1 got %d,%d", a, b)
	}

	combat.Kill(a, -1)
	if st.Health[a] != 0 || st.SpawnX[a] > TombstoneThreshold {
		t.Error("killed slot not tombstoned")
	}

	// Release happens at the next tick boundary, after side effects.
	st.ReleaseDeaths()

	c := spawnAt(t, st, JobFarmer, FactionVillager, 140, 100)
	if c != 0 {
		t.Errorf("expected recycled slot 0, got %d", c)
	}
	if st.NPCs.N() != 2 {
		t.Errorf("expected N=2, got %d", st.NPCs.N())
	}
}

func TestHostileRelation(t *testing.T) {
	tests := []struct {
		name string
		a, b int32
		want bool
	}{
		{"villager vs raider", FactionVillager, FactionRaider, true},
		{"raider vs villager", FactionRaider, FactionVillager, true},
		{"villager vs villager", FactionVillager, FactionVillager, false},
		{"raider vs raider", FactionRaider, FactionRaider, false},
		{"neutral vs villager", FactionNeutral, FactionVillager, false},
		{"raider vs neutral", FactionRaider, FactionNeutral, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Hostile(tt.a, tt.b); got != tt.want {
				t.Errorf("Hostile(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if Hostile(tt.a, tt.b) != Hostile(tt.b, tt.a) {
				t.Error("hostility must be symmetric")
			}
		})
	}
}

func TestSetGoalIgnoredForDead(t *testing.T) {
	st := newTestState(t)
	slot := spawnAt(t, st, JobGuard, FactionVillager, 10, 10)
	st.Health[slot] = 0

	st.SetGoal(slot, 999, 999)
	if st.GoalX[slot] == 999 {
		t.Error("goal write accepted for dead slot")
	}
}

func TestGrantXPLevelUp(t *testing.T) {
	st := newTestState(t)
	slot := spawnAt(t, st, JobGuard, FactionVillager, 10, 10)

	baseMax := st.MaxHealth[slot]
	st.GrantXP(slot, 100)

	if st.Level[slot] != 2 {
		t.Errorf("expected level 2, got %d", st.Level[slot])
	}
	if st.MaxHealth[slot] <= baseMax {
		t.Error("level up should raise max health")
	}
	if st.XP[slot] != 0 {
		t.Errorf("expected carried XP 0, got %d", st.XP[slot])
	}
}

func TestViewStaleness(t *testing.T) {
	st := newTestState(t)
	slot := spawnAt(t, st, JobFarmer, FactionVillager, 100, 200)
	st.Snap.Frame = 7

	view, ok := st.View(slot)
	if !ok {
		t.Fatal("expected view for live slot")
	}
	if view.X != 100 || view.Y != 200 {
		t.Errorf("expected spawn-seeded position (100,200), got (%f,%f)", view.X, view.Y)
	}
	if view.Frame != 7 {
		t.Errorf("expected frame stamp 7, got %d", view.Frame)
	}

	st.Health[slot] = 0
	if _, ok := st.View(slot); ok {
		t.Error("expected no view for dead slot")
	}
}

func TestDespawnAllResets(t *testing.T) {
	st := newTestState(t)
	spawnAt(t, st, JobFarmer, FactionVillager, 10, 10)
	spawnAt(t, st, JobRaider, FactionRaider, 20, 20)

	st.DespawnAll()

	if st.NPCs.N() != 0 || st.Proj.N() != 0 {
		t.Error("pools not reset")
	}
	if st.PendingSpawns() != 0 {
		t.Error("pending spawns not cleared")
	}
}
