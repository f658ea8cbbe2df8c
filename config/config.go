// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Physics    PhysicsConfig    `yaml:"physics"`
	World      WorldConfig      `yaml:"world"`
	Pool       PoolConfig       `yaml:"pool"`
	Grid       GridConfig       `yaml:"grid"`
	Separation SeparationConfig `yaml:"separation"`
	Movement   MovementConfig   `yaml:"movement"`
	Combat     CombatConfig     `yaml:"combat"`
	Projectile ProjectileConfig `yaml:"projectile"`
	Behavior   BehaviorConfig   `yaml:"behavior"`
	Economy    EconomyConfig    `yaml:"economy"`
	Readback   ReadbackConfig   `yaml:"readback"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds simulation physics parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// WorldConfig holds world bounds.
type WorldConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// PoolConfig holds slot pool capacities.
type PoolConfig struct {
	MaxNPCs        int `yaml:"max_npcs"`
	MaxProjectiles int `yaml:"max_projectiles"`
}

// GridConfig holds spatial grid dimensions shared by both kernels.
type GridConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	CellSize   float64 `yaml:"cell_size"`
	MaxPerCell int     `yaml:"max_per_cell"`
}

// SeparationConfig holds crowd separation and dodge parameters.
type SeparationConfig struct {
	Radius            float64 `yaml:"radius"`
	Strength          float64 `yaml:"strength"`
	StationaryPush    float64 `yaml:"stationary_push"`
	SameFaction       float64 `yaml:"same_faction"`
	MoverVsSettled    float64 `yaml:"mover_vs_settled"`
	SettledShoved     float64 `yaml:"settled_shoved"`
	DodgeOvertake     float64 `yaml:"dodge_overtake"`
	DodgeCross        float64 `yaml:"dodge_cross"`
	DodgeHeadOn       float64 `yaml:"dodge_head_on"`
	DodgeCap          float64 `yaml:"dodge_cap"`
	AvoidanceSpeedCap float64 `yaml:"avoidance_speed_cap"`
}

// MovementConfig holds goal-seeking movement parameters.
type MovementConfig struct {
	ArrivalThreshold float64 `yaml:"arrival_threshold"`
	BackoffMax       int     `yaml:"backoff_max"`
	BackoffDecay     int     `yaml:"backoff_decay"`
	LateralSteer     float64 `yaml:"lateral_steer"`
}

// CombatConfig holds combat tuning.
type CombatConfig struct {
	Range              float64 `yaml:"range"`
	AttackRangeDefault float64 `yaml:"attack_range_default"`
	Leash              float64 `yaml:"leash"`
	RaiderLeashMult    float64 `yaml:"raider_leash_mult"`
	AlertRadius        float64 `yaml:"alert_radius"`
	BaseAttackCooldown float64 `yaml:"base_attack_cooldown"`
	MeleeFlash         float64 `yaml:"melee_flash"`
	XPPerLevelKill     int     `yaml:"xp_per_level_kill"`
}

// ProjectileConfig holds projectile flight and collision parameters.
type ProjectileConfig struct {
	HitHalfLength  float64 `yaml:"hit_half_length"`
	HitHalfWidth   float64 `yaml:"hit_half_width"`
	Speed          float64 `yaml:"speed"`
	Lifetime       float64 `yaml:"lifetime"`
	DodgeRange     float64 `yaml:"dodge_range"`
	DodgeAlignment float64 `yaml:"dodge_alignment"`
}

// BehaviorConfig holds decision-layer tuning.
type BehaviorConfig struct {
	ScanStagger      int     `yaml:"scan_stagger"`
	LogicStagger     int     `yaml:"logic_stagger"`
	RestThreshold    float64 `yaml:"rest_threshold"`
	EnergyDrain      float64 `yaml:"energy_drain"`
	EnergyRegen      float64 `yaml:"energy_regen"`
	FleeThreshold    float64 `yaml:"flee_threshold"`
	RecoverThreshold float64 `yaml:"recover_threshold"`
	HealRate         float64 `yaml:"heal_rate"`
}

// EconomyConfig holds farm and spawner parameters.
type EconomyConfig struct {
	FarmCount          int     `yaml:"farm_count"`
	FarmGrowthRate     float64 `yaml:"farm_growth_rate"`
	FarmFertilityScale float64 `yaml:"farm_fertility_scale"`
	HarvestYield       float64 `yaml:"harvest_yield"`
	RespawnSeconds     float64 `yaml:"respawn_seconds"`
	FarmerTarget       int     `yaml:"farmer_target"`
	ArcherTarget       int     `yaml:"archer_target"`
	RaiderTarget       int     `yaml:"raider_target"`
}

// ReadbackConfig holds GPU readback cadence parameters.
type ReadbackConfig struct {
	FactionInterval int `yaml:"faction_interval"`
	StatsInterval   int `yaml:"stats_interval"`
	RebindBoundary  int `yaml:"rebind_boundary"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
	PerfWindow  int     `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Physics.DT as float32
	CellCount int     // Grid.Width * Grid.Height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	return cfg, nil
}

// WriteYAML saves the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.CellCount = c.Grid.Width * c.Grid.Height
}
