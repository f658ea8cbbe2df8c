package game

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pthm-cable/holdfast/sim"
	"github.com/pthm-cable/holdfast/telemetry"
)

// logWriter is the destination for human-oriented log output.
var logWriter io.Writer

// SetLogWriter sets the log output destination.
func SetLogWriter(w io.Writer) {
	logWriter = w
}

// Logf writes a formatted log message.
func Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if logWriter != nil {
		fmt.Fprintln(logWriter, msg)
	} else {
		fmt.Println(msg)
	}
}

// logDeaths drains and logs this frame's death events.
func (g *Game) logDeaths() {
	for _, ev := range g.st.DrainDeathEvents() {
		if !g.logStats {
			continue
		}
		slog.Info("death",
			"slot", ev.Slot,
			"victim_job", ev.VictimJob.String(),
			"victim_level", ev.VictimLevel,
			"faction", ev.Faction,
			"killer_slot", ev.KillerSlot,
			"killer_job", ev.KillerJob.String(),
			"killer_level", ev.KillerLevel,
			"frame", ev.Frame,
		)
	}
}

// flushTelemetry flushes the stats window when due and feeds prometheus.
func (g *Game) flushTelemetry() {
	snap := g.st.Snap
	telemetry.SetPopulation(
		int(snap.AliveByFaction[sim.FactionVillager]),
		int(snap.AliveByFaction[sim.FactionRaider]),
		g.st.Proj.Alive(),
	)
	telemetry.AddGridDrops(g.backend.GridDrops() - g.lastGridDrops)
	g.lastGridDrops = g.backend.GridDrops()

	if !g.collector.ShouldFlush(g.st.Frame) {
		return
	}

	healthFracs, energies := g.sampleDistributions()
	stats := g.collector.Flush(
		g.st.Frame,
		int(snap.AliveByFaction[sim.FactionVillager]),
		int(snap.AliveByFaction[sim.FactionRaider]),
		healthFracs, energies,
		g.backend.GridDrops(), g.ring.Rebinds(),
		g.st.Stock[sim.FactionVillager],
	)

	if g.logStats {
		stats.LogStats()
		g.perf.Stats().LogStats()
	}
	if err := g.out.WriteTelemetry(stats); err != nil {
		slog.Error("telemetry write failed", "error", err)
	}
	if err := g.out.WritePerf(g.perf.Stats().ToCSV(g.st.Frame)); err != nil {
		slog.Error("perf write failed", "error", err)
	}
}

// sampleDistributions collects health fractions and energies for window
// statistics.
func (g *Game) sampleDistributions() (healthFracs, energies []float64) {
	st := g.st
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if st.Health[i] <= 0 || st.MaxHealth[i] <= 0 {
			continue
		}
		healthFracs = append(healthFracs, float64(st.Health[i]/st.MaxHealth[i]))
		energies = append(energies, float64(st.Energy[i]))
	}
	return healthFracs, energies
}

// logPerfStats logs the per-phase timing breakdown.
func (g *Game) logPerfStats() {
	stats := g.perf.Stats()
	Logf("=== Perf @ Frame %d (speed %dx) ===", g.st.Frame, g.stepsPerFrame)
	Logf("Avg tick: %s  (%.0f ticks/sec)",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond)
	for phase, avg := range stats.PhaseAvg {
		Logf("  %-12s %10s  %5.1f%%", phase, avg.Round(time.Microsecond), stats.PhasePct[phase])
	}
	Logf("")
}
