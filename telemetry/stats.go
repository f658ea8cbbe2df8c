package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end
	Villagers int `csv:"villagers"`
	Raiders   int `csv:"raiders"`

	// Events during window
	Spawns         int `csv:"spawns"`
	VillagerDeaths int `csv:"villager_deaths"`
	RaiderDeaths   int `csv:"raider_deaths"`

	// Combat
	MeleeStrikes   int     `csv:"melee_strikes"`
	ShotsFired     int     `csv:"shots_fired"`
	ProjectileHits int     `csv:"projectile_hits"`
	Kills          int     `csv:"kills"`
	ShotsSkipped   int     `csv:"shots_skipped"`
	HitRate        float64 `csv:"hit_rate"`

	// Degradation counters
	GridDrops      int64 `csv:"grid_drops"`
	ReadbackStales int   `csv:"readback_stales"`
	Rebinds        int64 `csv:"rebinds"`

	// Health distribution (fraction of max, sampled at window end)
	HealthMean float64 `csv:"health_mean"`
	HealthP10  float64 `csv:"health_p10"`
	HealthP50  float64 `csv:"health_p50"`
	HealthP90  float64 `csv:"health_p90"`

	// Energy distribution
	EnergyMean float64 `csv:"energy_mean"`
	EnergyP50  float64 `csv:"energy_p50"`

	// Economy
	Stock float64 `csv:"stock"`
}

// Distribution computes mean and quantiles of a sample set. Values are
// copied and sorted; empty input returns zeros.
func Distribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"villagers", s.Villagers,
		"raiders", s.Raiders,
		"spawns", s.Spawns,
		"villager_deaths", s.VillagerDeaths,
		"raider_deaths", s.RaiderDeaths,
		"melee_strikes", s.MeleeStrikes,
		"shots_fired", s.ShotsFired,
		"projectile_hits", s.ProjectileHits,
		"kills", s.Kills,
		"shots_skipped", s.ShotsSkipped,
		"hit_rate", s.HitRate,
		"grid_drops", s.GridDrops,
		"readback_stales", s.ReadbackStales,
		"rebinds", s.Rebinds,
		"health_mean", s.HealthMean,
		"health_p10", s.HealthP10,
		"health_p50", s.HealthP50,
		"health_p90", s.HealthP90,
		"energy_mean", s.EnergyMean,
		"energy_p50", s.EnergyP50,
		"stock", s.Stock,
	)
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("villagers", s.Villagers),
		slog.Int("raiders", s.Raiders),
		slog.Int("spawns", s.Spawns),
		slog.Int("villager_deaths", s.VillagerDeaths),
		slog.Int("raider_deaths", s.RaiderDeaths),
		slog.Int("melee_strikes", s.MeleeStrikes),
		slog.Int("shots_fired", s.ShotsFired),
		slog.Int("projectile_hits", s.ProjectileHits),
		slog.Int("kills", s.Kills),
		slog.Float64("hit_rate", s.HitRate),
		slog.Int64("grid_drops", s.GridDrops),
		slog.Int("readback_stales", s.ReadbackStales),
		slog.Float64("health_mean", s.HealthMean),
		slog.Float64("stock", s.Stock),
	)
}
