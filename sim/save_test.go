package sim

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/holdfast/config"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)

	farmer := spawnAt(t, st, JobFarmer, FactionVillager, 100, 200)
	guard := spawnAt(t, st, JobGuard, FactionVillager, 300, 400)
	eco.AssignWork(farmer)
	st.Level[guard] = 4
	st.XP[guard] = 55
	st.Energy[farmer] = 0.4
	st.Stock[FactionVillager] = 123.5
	st.Snap.PosX[guard] = 310
	st.Snap.PosY[guard] = 410

	path := filepath.Join(t.TempDir(), "state.hfs")
	if err := Save(st, eco, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	cfg, _ := config.Load("")
	cfg.Pool.MaxNPCs = st.Cfg.Pool.MaxNPCs
	cfg.Pool.MaxProjectiles = st.Cfg.Pool.MaxProjectiles
	st2 := NewState(cfg, rand.New(rand.NewSource(2)))
	eco2 := NewEconomy(st2, 2)
	if err := Load(st2, eco2, path); err != nil {
		t.Fatalf("load: %v", err)
	}

	if st2.NPCs.N() != 2 || st2.NPCs.Alive() != 2 {
		t.Fatalf("expected 2 restored slots, got N=%d", st2.NPCs.N())
	}
	if st2.Job[farmer] != JobFarmer || st2.Job[guard] != JobGuard {
		t.Error("jobs not restored")
	}
	if st2.Level[guard] != 4 || st2.XP[guard] != 55 {
		t.Error("level/xp not restored")
	}
	if st2.Energy[farmer] != 0.4 {
		t.Error("energy not restored")
	}
	if st2.Stock[FactionVillager] != 123.5 {
		t.Error("stock not restored")
	}
	if st2.Snap.PosX[guard] != 310 || st2.Snap.PosY[guard] != 410 {
		t.Error("positions not restored")
	}
	if st2.FarmIndex[farmer] != st.FarmIndex[farmer] {
		t.Error("farm assignment not restored")
	}
	if len(eco2.Farms) != len(eco.Farms) || len(eco2.Spawners) != len(eco.Spawners) {
		t.Error("economy state not restored")
	}

	// Restored live slots are queued for GPU re-seeding.
	if len(st2.DirtyNPCs) != 2 {
		t.Errorf("expected 2 dirty slots for GPU reseed, got %d", len(st2.DirtyNPCs))
	}
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	st := newTestState(t)
	eco := NewEconomy(st, 1)
	spawnAt(t, st, JobFarmer, FactionVillager, 1, 1)

	path := filepath.Join(t.TempDir(), "state.hfs")
	if err := Save(st, eco, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Bump the version field in the header (bytes 4..8).
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[4]++
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Load(st, eco, path); !errors.Is(err, ErrSaveVersion) {
		t.Errorf("expected ErrSaveVersion, got %v", err)
	}
}
