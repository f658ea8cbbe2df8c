package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	p := NewPerfCollector(10)

	p.StartTick()
	p.StartPhase(PhaseBehavior)
	time.Sleep(2 * time.Millisecond)
	p.StartPhase(PhaseDispatch)
	time.Sleep(1 * time.Millisecond)
	p.EndTick()

	stats := p.Stats()
	if stats.AvgTickDuration < 3*time.Millisecond {
		t.Errorf("tick duration too short: %v", stats.AvgTickDuration)
	}
	if stats.PhaseAvg[PhaseBehavior] < time.Millisecond {
		t.Errorf("behavior phase not recorded: %v", stats.PhaseAvg[PhaseBehavior])
	}
	if stats.PhaseAvg[PhaseDispatch] <= 0 {
		t.Error("dispatch phase not recorded")
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	p := NewPerfCollector(10)
	stats := p.Stats()
	if stats.AvgTickDuration != 0 || stats.TicksPerSecond != 0 {
		t.Error("empty collector should report zeros")
	}
}

func TestPerfCollectorRollingWindow(t *testing.T) {
	p := NewPerfCollector(2)
	for i := 0; i < 5; i++ {
		p.StartTick()
		p.EndTick()
	}
	// Window holds at most 2 samples; Stats must not panic or overcount.
	stats := p.Stats()
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive throughput from rolling window")
	}
}

func TestPerfStatsToCSV(t *testing.T) {
	p := NewPerfCollector(4)
	p.StartTick()
	p.StartPhase(PhaseReadback)
	p.EndTick()

	row := p.Stats().ToCSV(600)
	if row.WindowEnd != 600 {
		t.Errorf("window end = %d, want 600", row.WindowEnd)
	}
}
