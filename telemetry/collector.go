package telemetry

// Faction indices as the collector sees them (mirrors the sim package
// without importing it; the core must not depend on telemetry internals).
const (
	factionVillager = 0
	factionRaider   = 1
)

// Collector accumulates events within time windows and produces WindowStats.
// It implements the sim package's CombatEvents sink.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	// Event counters for current window
	spawns         int
	deaths         [2]int
	meleeStrikes   int
	shotsFired     int
	projectileHits int
	kills          int
	shotsSkipped   int
	readbackStales int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordSpawn records an NPC spawn.
func (c *Collector) RecordSpawn() {
	c.spawns++
}

// RecordMelee records a melee strike.
func (c *Collector) RecordMelee() {
	c.meleeStrikes++
}

// RecordShot records a fired projectile.
func (c *Collector) RecordShot() {
	c.shotsFired++
}

// RecordProjectileHit records a projectile connecting.
func (c *Collector) RecordProjectileHit() {
	c.projectileHits++
}

// RecordProjectileExhausted records a shot skipped for lack of a slot.
func (c *Collector) RecordProjectileExhausted() {
	c.shotsSkipped++
}

// RecordKill records a death by victim faction.
func (c *Collector) RecordKill(faction int32) {
	c.kills++
	if faction == factionVillager || faction == factionRaider {
		c.deaths[faction]++
	}
}

// RecordReadbackStale records a frame that reused the previous snapshot.
func (c *Collector) RecordReadbackStale() {
	c.readbackStales++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// Population counts, distributions and degradation totals come from the
// caller's snapshot of the core.
func (c *Collector) Flush(
	currentTick int32,
	villagers, raiders int,
	healthFracs, energies []float64,
	gridDrops, rebinds int64,
	stock float64,
) WindowStats {
	var hitRate float64
	if c.shotsFired > 0 {
		hitRate = float64(c.projectileHits) / float64(c.shotsFired)
	}

	healthMean, healthP10, healthP50, healthP90 := Distribution(healthFracs)
	energyMean, _, energyP50, _ := Distribution(energies)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Villagers: villagers,
		Raiders:   raiders,

		Spawns:         c.spawns,
		VillagerDeaths: c.deaths[factionVillager],
		RaiderDeaths:   c.deaths[factionRaider],

		MeleeStrikes:   c.meleeStrikes,
		ShotsFired:     c.shotsFired,
		ProjectileHits: c.projectileHits,
		Kills:          c.kills,
		ShotsSkipped:   c.shotsSkipped,
		HitRate:        hitRate,

		GridDrops:      gridDrops,
		ReadbackStales: c.readbackStales,
		Rebinds:        rebinds,

		HealthMean: healthMean,
		HealthP10:  healthP10,
		HealthP50:  healthP50,
		HealthP90:  healthP90,

		EnergyMean: energyMean,
		EnergyP50:  energyP50,

		Stock: stock,
	}

	c.windowStartTick = currentTick
	c.spawns = 0
	c.deaths = [2]int{}
	c.meleeStrikes = 0
	c.shotsFired = 0
	c.projectileHits = 0
	c.kills = 0
	c.shotsSkipped = 0
	c.readbackStales = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
