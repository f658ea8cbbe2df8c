// Package game wires the simulation core into the frame pipeline: queue
// drains, behavior, uploads, compute dispatches, readbacks and the render
// feed, in a fixed order inside one tick.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/pthm-cable/holdfast/camera"
	"github.com/pthm-cable/holdfast/compute"
	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/renderer"
	"github.com/pthm-cable/holdfast/sim"
	"github.com/pthm-cable/holdfast/telemetry"
)

// Mode is the host application mode. Leaving Playing despawns everything.
type Mode uint8

const (
	ModePlaying Mode = iota
	ModeStopped
)

// Options configures game behavior.
type Options struct {
	Seed      int64
	Headless  bool
	LogStats  bool
	OutputDir string

	// Garrison is the number of guards spawned at startup before the
	// spawners take over.
	Garrison int
}

// Game holds the complete simulation state and pipeline.
type Game struct {
	cfg *config.Config
	rng *rand.Rand

	st       *sim.State
	behavior *sim.Behavior
	combat   *sim.Combat
	economy  *sim.Economy

	backend compute.Backend
	gpu     *compute.GPUBackend // non-nil only in windowed mode
	ring    *compute.Ring

	feed *renderer.Feed // nil in headless mode
	cam  *camera.Camera

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	out       *telemetry.OutputManager

	mode          Mode
	paused        bool
	stepsPerFrame int
	debugMode     bool
	debugGrid     bool
	selected      int32

	logStats      bool
	rngSeed       int64
	lastGridDrops int64
}

// New creates a game instance. In windowed mode the GPU backend is compiled
// against the active GL context; headless runs use the CPU backend.
func New(opts Options) (*Game, error) {
	cfg := config.Cfg()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		cfg:           cfg,
		rng:           rng,
		st:            sim.NewState(cfg, rng),
		mode:          ModePlaying,
		stepsPerFrame: 1,
		selected:      -1,
		logStats:      opts.LogStats,
		rngSeed:       opts.Seed,
	}

	// Town centers anchor flee/recover destinations and the economy layout.
	g.st.TownX[sim.FactionVillager] = float32(cfg.World.Width) * 0.3
	g.st.TownY[sim.FactionVillager] = float32(cfg.World.Height) * 0.5
	g.st.TownX[sim.FactionRaider] = float32(cfg.World.Width) * 0.75
	g.st.TownY[sim.FactionRaider] = float32(cfg.World.Height) * 0.4

	g.collector = telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32)
	g.perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)

	g.combat = sim.NewCombat(g.st, g.collector)
	g.behavior = sim.NewBehavior(g.st, g.combat)
	g.economy = sim.NewEconomy(g.st, opts.Seed)

	params := compute.ParamsFromConfig(cfg)
	if opts.Headless {
		g.backend = compute.NewCPUBackend(params)
	} else {
		gpu, err := compute.NewGPUBackend(params)
		if err != nil {
			return nil, fmt.Errorf("creating GPU backend: %w", err)
		}
		g.gpu = gpu
		g.backend = gpu
		g.feed = renderer.NewFeed(cfg.Pool.MaxNPCs)
	}
	g.ring = compute.NewRing(g.backend, cfg.Readback)

	g.cam = camera.New(
		float32(cfg.Screen.Width), float32(cfg.Screen.Height),
		float32(cfg.World.Width), float32(cfg.World.Height),
	)

	var err error
	g.out, err = telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := g.out.WriteConfig(cfg); err != nil {
		return nil, err
	}

	g.spawnInitialPopulation(opts.Garrison)
	return g, nil
}

// spawnInitialPopulation enqueues the starting town garrison; spawners top
// the rest up over time.
func (g *Game) spawnInitialPopulation(garrison int) {
	vx := g.st.TownX[sim.FactionVillager]
	vy := g.st.TownY[sim.FactionVillager]
	for i := 0; i < garrison; i++ {
		g.st.EnqueueSpawn(sim.SpawnCommand{
			Job:          sim.JobGuard,
			HomeX:        vx + float32(i%4)*40 - 60,
			HomeY:        vy + float32(i/4)*40 - 20,
			Faction:      sim.FactionVillager,
			InitialState: sim.Idle,
		})
	}
}

// Update runs input plus one or more simulation steps based on speed.
func (g *Game) Update() error {
	g.handleInput()

	if g.paused || g.mode != ModePlaying {
		return nil
	}
	for i := 0; i < g.stepsPerFrame; i++ {
		if err := g.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step runs a single tick of the frame pipeline in fixed order. Recoverable
// errors are absorbed here; the returned error is fatal and ends the
// session.
func (g *Game) Step() error {
	st := g.st
	dt := g.cfg.Derived.DT32
	tickStart := time.Now()
	g.perf.StartTick()

	// 1. Drain despawn then spawn queues.
	g.perf.StartPhase(telemetry.PhaseQueues)
	for _, slot := range st.PendingDeathSlots() {
		g.economy.ReleaseWork(slot)
	}
	st.ReleaseDeaths()
	spawned, err := st.DrainSpawns()
	if err != nil {
		return fmt.Errorf("mandatory spawn failed: %w", err)
	}
	for _, slot := range spawned {
		g.economy.AssignWork(slot)
		g.collector.RecordSpawn()
	}

	// 2. Combat resolution of last frame's hits, then the behavior tick.
	// Both read only the previous frame's snapshot.
	g.perf.StartPhase(telemetry.PhaseBehavior)
	g.combat.ApplyProjectileHits()
	g.behavior.Update(dt)

	// 3. Economy: farm growth, harvests, spawner timers.
	g.perf.StartPhase(telemetry.PhaseEconomy)
	g.economy.Update(dt)

	// 4. Mirror CPU-written fields to the GPU.
	g.perf.StartPhase(telemetry.PhaseUpload)
	g.backend.Upload(st)

	// 5. Compute: NPC kernel then projectile kernel, three modes each.
	g.perf.StartPhase(telemetry.PhaseDispatch)
	n := st.NPCs.N()
	m := st.Proj.N()
	dispatchStart := time.Now()
	if err := g.backend.Dispatch(n, m, dt); err != nil {
		return fmt.Errorf("compute dispatch: %w", err)
	}
	dispatchDur := time.Since(dispatchStart)

	// 6. Throttled readbacks into the snapshot.
	g.perf.StartPhase(telemetry.PhaseReadback)
	readbackStart := time.Now()
	if err := g.ring.Collect(st); err != nil {
		if errors.Is(err, compute.ErrReadbackStale) {
			g.collector.RecordReadbackStale()
			telemetry.IncReadbackStale()
		} else {
			return fmt.Errorf("readback: %w", err)
		}
	}
	readbackDur := time.Since(readbackStart)

	// 7. Render feed upload (windowed mode only).
	g.perf.StartPhase(telemetry.PhaseFeed)
	if g.feed != nil {
		g.feed.Upload(st)
	}

	// 8. Telemetry window flush and event logging.
	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.logDeaths()
	g.flushTelemetry()

	g.perf.EndTick()
	telemetry.ObserveTick(time.Since(tickStart), dispatchDur, readbackDur)
	st.Frame++
	return nil
}

// Shutdown leaves playing mode: despawn all slots, reset resources, close
// outputs.
func (g *Game) Shutdown() {
	g.mode = ModeStopped
	g.st.DespawnAll()
	if g.feed != nil {
		g.feed.Unload()
	}
	g.backend.Close()
	if err := g.out.Close(); err != nil {
		Logf("closing telemetry output: %v", err)
	}
}

// State exposes the core state for queries and tests.
func (g *Game) State() *sim.State {
	return g.st
}

// Economy exposes the economy layer.
func (g *Game) Economy() *sim.Economy {
	return g.economy
}

// Frame returns the current simulation frame.
func (g *Game) Frame() int32 {
	return g.st.Frame
}

// PerfStats returns the current performance statistics.
func (g *Game) PerfStats() telemetry.PerfStats {
	return g.perf.Stats()
}
