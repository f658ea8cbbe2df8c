package compute

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/sim"
)

// flakyBackend wraps the CPU backend and fails position reads on demand.
type flakyBackend struct {
	*CPUBackend
	failReads bool
}

func (f *flakyBackend) ReadPositions(dstX, dstY []float32, n int32) error {
	if f.failReads {
		return ErrReadbackStale
	}
	return f.CPUBackend.ReadPositions(dstX, dstY, n)
}

func TestRingCollectFillsSnapshot(t *testing.T) {
	st, b := newTestWorld(t)
	ring := NewRing(b, st.Cfg.Readback)

	slot := place(t, st, sim.FactionVillager, 100, 100, 200, 100, 50)
	run(st, b, 1)

	if err := ring.Collect(st); err != nil {
		t.Fatalf("collect: %v", err)
	}
	if st.Snap.Stale {
		t.Error("snapshot should not be stale")
	}
	if st.Snap.PosX[slot] <= 100 {
		t.Errorf("expected position to have advanced, got %f", st.Snap.PosX[slot])
	}
	if st.Snap.Frame != st.Frame {
		t.Errorf("snapshot frame stamp %d != frame %d", st.Snap.Frame, st.Frame)
	}
}

func TestRingStaleReusesPreviousSnapshot(t *testing.T) {
	st, b := newTestWorld(t)
	fb := &flakyBackend{CPUBackend: b}
	ring := NewRing(fb, st.Cfg.Readback)

	slot := place(t, st, sim.FactionVillager, 100, 100, 200, 100, 50)
	run(st, b, 1)
	if err := ring.Collect(st); err != nil {
		t.Fatalf("collect: %v", err)
	}
	prevX := st.Snap.PosX[slot]
	prevFrame := st.Snap.Frame

	// The next frame's readback stalls: keep the previous values.
	run(st, b, 1)
	st.Frame++
	fb.failReads = true
	err := ring.Collect(st)
	if !errors.Is(err, ErrReadbackStale) {
		t.Fatalf("expected ErrReadbackStale, got %v", err)
	}
	if !st.Snap.Stale {
		t.Error("snapshot must be flagged stale")
	}
	if st.Snap.PosX[slot] != prevX {
		t.Error("stale collect must not overwrite positions")
	}
	if st.Snap.Frame != prevFrame {
		t.Error("stale collect must not advance the frame stamp")
	}
	if ring.StaleRun() != 1 {
		t.Errorf("expected stale run 1, got %d", ring.StaleRun())
	}

	// Recovery clears the stale flag.
	fb.failReads = false
	if err := ring.Collect(st); err != nil {
		t.Fatalf("recovery collect: %v", err)
	}
	if st.Snap.Stale || ring.StaleRun() != 0 {
		t.Error("recovered snapshot still flagged stale")
	}
}

func TestRingFactionCadence(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Pool.MaxNPCs = 64
	cfg.Pool.MaxProjectiles = 16
	st := sim.NewState(cfg, rand.New(rand.NewSource(1)))
	b := NewCPUBackend(ParamsFromConfig(cfg))
	ring := NewRing(b, cfg.Readback)

	slot := place(t, st, sim.FactionVillager, 10, 10, 10, 10, 0)
	run(st, b, 1)

	// Frame 0 is on the faction cadence.
	st.Frame = 0
	if err := ring.Collect(st); err != nil {
		t.Fatal(err)
	}
	if st.Snap.Faction[slot] != sim.FactionVillager {
		t.Fatalf("faction not read on cadence frame")
	}

	// Off-cadence frames must not refresh factions.
	st.Faction[slot] = sim.FactionRaider
	run(st, b, 1)
	st.Frame = 1
	if err := ring.Collect(st); err != nil {
		t.Fatal(err)
	}
	if st.Snap.Faction[slot] != sim.FactionVillager {
		t.Error("faction refreshed off cadence")
	}

	// The next cadence frame picks up the change.
	st.Frame = int32(cfg.Readback.FactionInterval)
	if err := ring.Collect(st); err != nil {
		t.Fatal(err)
	}
	if st.Snap.Faction[slot] != sim.FactionRaider {
		t.Error("faction not refreshed on cadence frame")
	}
}

func TestRingRebindBoundary(t *testing.T) {
	st, b := newTestWorld(t)
	ring := NewRing(b, st.Cfg.Readback)

	place(t, st, sim.FactionVillager, 10, 10, 10, 10, 0)
	run(st, b, 1)
	ring.Collect(st)
	if ring.Rebinds() != 1 {
		t.Fatalf("expected initial rebind, got %d", ring.Rebinds())
	}

	// Growth inside the same 1024 boundary must not rebind.
	for i := 0; i < 100; i++ {
		place(t, st, sim.FactionVillager, 20, 20, 20, 20, 0)
	}
	run(st, b, 1)
	ring.Collect(st)
	if ring.Rebinds() != 1 {
		t.Errorf("expected no rebind below the boundary, got %d", ring.Rebinds())
	}
}

func TestRingAggregates(t *testing.T) {
	st, b := newTestWorld(t)
	ring := NewRing(b, st.Cfg.Readback)

	place(t, st, sim.FactionVillager, 10, 50, 10, 50, 0)
	place(t, st, sim.FactionVillager, 20, 50, 20, 50, 0)
	place(t, st, sim.FactionRaider, 10, 80, 10, 80, 0)
	run(st, b, 1)

	st.Frame = 0 // on both the faction and stats cadence
	if err := ring.Collect(st); err != nil {
		t.Fatal(err)
	}
	if st.Snap.AliveByFaction[sim.FactionVillager] != 2 {
		t.Errorf("expected 2 villagers, got %d", st.Snap.AliveByFaction[sim.FactionVillager])
	}
	if st.Snap.AliveByFaction[sim.FactionRaider] != 1 {
		t.Errorf("expected 1 raider, got %d", st.Snap.AliveByFaction[sim.FactionRaider])
	}
	// Opposing ranks 30 apart: every slot has a target.
	if st.Snap.Engaged != 3 {
		t.Errorf("expected 3 engaged slots, got %d", st.Snap.Engaged)
	}
}
