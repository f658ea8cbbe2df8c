package game

import (
	"errors"
	"testing"

	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/sim"
	"github.com/pthm-cable/holdfast/traits"
)

// newHeadlessGame builds a game on the CPU backend with no garrison.
func newHeadlessGame(t *testing.T, tune func(*config.Config)) *Game {
	t.Helper()
	if err := config.Init(""); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if tune != nil {
		tune(config.Cfg())
	}
	g, err := New(Options{Seed: 7, Headless: true})
	if err != nil {
		t.Fatalf("game new: %v", err)
	}
	return g
}

// steps advances the pipeline n ticks, failing on any fatal error.
func steps(t *testing.T, g *Game, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := g.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
}

func TestPipelineSpawnAndInvariants(t *testing.T) {
	g := newHeadlessGame(t, func(cfg *config.Config) {
		cfg.Pool.MaxNPCs = 512
		cfg.Pool.MaxProjectiles = 64
	})
	st := g.State()

	st.EnqueueSpawn(sim.SpawnCommand{
		Job: sim.JobFarmer, HomeX: 600, HomeY: 600,
		Faction: sim.FactionVillager, InitialState: sim.Idle,
	})
	steps(t, g, 60)

	if st.NPCs.N() == 0 {
		t.Fatal("spawn queue did not drain")
	}

	// Universal invariant: every live slot has a readable position.
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if st.Health[i] > 0 && st.Snap.PosX[i] < sim.TombstoneThreshold {
			t.Errorf("live slot %d has tombstoned position %f", i, st.Snap.PosX[i])
		}
	}
	if st.NPCs.FreeCount()+st.NPCs.Alive() != int(st.NPCs.N()) {
		t.Error("pool accounting broken")
	}
}

func TestPipelineRaiderWalksTowardTown(t *testing.T) {
	g := newHeadlessGame(t, func(cfg *config.Config) {
		cfg.Pool.MaxNPCs = 512
		cfg.Pool.MaxProjectiles = 64
		// Quiet the spawners so the scenario stays readable.
		cfg.Economy.FarmerTarget = 0
		cfg.Economy.ArcherTarget = 0
		cfg.Economy.RaiderTarget = 0
	})
	st := g.State()

	raider := int32(0)
	st.EnqueueSpawn(sim.SpawnCommand{
		Job: sim.JobRaider, HomeX: 2600, HomeY: 1800,
		Faction: sim.FactionRaider, InitialState: sim.Raiding,
	})
	steps(t, g, 600)

	startDX := float64(2600 - st.TownX[sim.FactionVillager])
	nowDX := float64(st.Snap.PosX[raider] - st.TownX[sim.FactionVillager])
	if !(nowDX < startDX-100) {
		t.Errorf("raider did not close on the town: start dx %f, now dx %f", startDX, nowDX)
	}
}

func TestPipelineCombatResolvesDeaths(t *testing.T) {
	g := newHeadlessGame(t, func(cfg *config.Config) {
		cfg.Pool.MaxNPCs = 512
		cfg.Pool.MaxProjectiles = 64
		cfg.Economy.FarmerTarget = 0
		cfg.Economy.ArcherTarget = 0
		cfg.Economy.RaiderTarget = 0
	})
	st := g.State()

	// A guard and a raider spawned in melee range fight to a death.
	st.EnqueueSpawn(sim.SpawnCommand{
		Job: sim.JobGuard, HomeX: 1000, HomeY: 1000,
		Faction: sim.FactionVillager, InitialState: sim.Idle,
	})
	st.EnqueueSpawn(sim.SpawnCommand{
		Job: sim.JobRaider, HomeX: 1012, HomeY: 1000,
		Faction: sim.FactionRaider, InitialState: sim.Idle,
	})
	slots, err := st.DrainSpawns()
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	// Neither side flees: the duel runs to a death.
	for _, s := range slots {
		st.Trait[s] = traits.Brave
	}

	died := false
	for i := 0; i < 60*60 && !died; i++ {
		if err := g.Step(); err != nil {
			t.Fatalf("step: %v", err)
		}
		n := st.NPCs.N()
		for s := int32(0); s < n; s++ {
			if st.Health[s] <= 0 {
				died = true
			}
		}
	}
	if !died {
		t.Fatal("expected one side to die within 60 simulated seconds")
	}
}

func TestStepFatalOnPoolExhaustion(t *testing.T) {
	g := newHeadlessGame(t, func(cfg *config.Config) {
		cfg.Pool.MaxNPCs = 2
		cfg.Pool.MaxProjectiles = 8
		cfg.Economy.FarmerTarget = 0
		cfg.Economy.ArcherTarget = 0
		cfg.Economy.RaiderTarget = 0
	})
	st := g.State()

	for i := 0; i < 3; i++ {
		st.EnqueueSpawn(sim.SpawnCommand{
			Job: sim.JobFarmer, HomeX: 100, HomeY: 100,
			Faction: sim.FactionVillager, InitialState: sim.Idle,
		})
	}

	err := g.Step()
	if !errors.Is(err, sim.ErrPoolExhausted) {
		t.Errorf("expected fatal ErrPoolExhausted, got %v", err)
	}
}

func TestShutdownDespawnsEverything(t *testing.T) {
	g := newHeadlessGame(t, func(cfg *config.Config) {
		cfg.Pool.MaxNPCs = 64
		cfg.Pool.MaxProjectiles = 16
	})
	st := g.State()
	st.EnqueueSpawn(sim.SpawnCommand{
		Job: sim.JobFarmer, HomeX: 100, HomeY: 100,
		Faction: sim.FactionVillager, InitialState: sim.Idle,
	})
	steps(t, g, 2)

	g.Shutdown()
	if st.NPCs.N() != 0 || st.Proj.N() != 0 {
		t.Error("shutdown must despawn all slots")
	}
}
