package telemetry

import (
	"math"
	"testing"
)

func TestDistribution(t *testing.T) {
	values := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0}
	mean, p10, p50, p90 := Distribution(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if p10 > 0.21 || p10 < 0.09 {
		t.Errorf("p10 = %v, want ~0.1-0.2", p10)
	}
	if p50 < 0.45 || p50 > 0.65 {
		t.Errorf("p50 = %v, want ~0.5-0.6", p50)
	}
	if p90 < 0.85 {
		t.Errorf("p90 = %v, want >= 0.9", p90)
	}
}

func TestDistributionEmpty(t *testing.T) {
	mean, p10, p50, p90 := Distribution(nil)
	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty input should return all zeros")
	}
}

func TestDistributionDoesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Distribution(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Error("input slice was reordered")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 1.0/60.0)

	c.RecordSpawn()
	c.RecordSpawn()
	c.RecordMelee()
	c.RecordShot()
	c.RecordShot()
	c.RecordProjectileHit()
	c.RecordKill(factionVillager)
	c.RecordKill(factionRaider)
	c.RecordReadbackStale()

	stats := c.Flush(60, 10, 5, []float64{0.5, 1.0}, []float64{0.8}, 7, 2, 42)

	if stats.Spawns != 2 {
		t.Errorf("spawns = %d, want 2", stats.Spawns)
	}
	if stats.MeleeStrikes != 1 || stats.ShotsFired != 2 || stats.ProjectileHits != 1 {
		t.Errorf("combat counters wrong: %+v", stats)
	}
	if stats.VillagerDeaths != 1 || stats.RaiderDeaths != 1 || stats.Kills != 2 {
		t.Errorf("death counters wrong: %+v", stats)
	}
	if math.Abs(stats.HitRate-0.5) > 0.001 {
		t.Errorf("hit rate = %v, want 0.5", stats.HitRate)
	}
	if stats.GridDrops != 7 || stats.Rebinds != 2 || stats.ReadbackStales != 1 {
		t.Errorf("degradation counters wrong: %+v", stats)
	}
	if stats.Villagers != 10 || stats.Raiders != 5 {
		t.Errorf("population wrong: %+v", stats)
	}
	if stats.Stock != 42 {
		t.Errorf("stock = %v, want 42", stats.Stock)
	}

	// Counters reset after flush.
	stats2 := c.Flush(120, 10, 5, nil, nil, 7, 2, 42)
	if stats2.Spawns != 0 || stats2.Kills != 0 || stats2.ReadbackStales != 0 {
		t.Error("counters did not reset after flush")
	}
}

func TestCollectorShouldFlush(t *testing.T) {
	c := NewCollector(1.0, 1.0/60.0)

	if c.ShouldFlush(30) {
		t.Error("should not flush mid-window")
	}
	if !c.ShouldFlush(60) {
		t.Error("should flush at window end")
	}
	c.Flush(60, 0, 0, nil, nil, 0, 0, 0)
	if c.ShouldFlush(90) {
		t.Error("window start should reset on flush")
	}
}
