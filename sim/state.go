// Package sim holds the CPU side of the NPC simulation core: the slot pool,
// the per-slot scalar arrays mirrored to GPU storage buffers, the behavior
// and combat layers, and the town economy that feeds the spawn queue.
package sim

import (
	"math/rand"

	"github.com/pthm-cable/holdfast/config"
	"github.com/pthm-cable/holdfast/traits"
)

// Tombstone marks a dead or free slot. Kernels skip any slot whose position
// satisfies x < TombstoneThreshold.
const (
	TombstoneX         float32 = -10000
	TombstoneThreshold float32 = -9000
)

// Faction identifiers. Hostility is the closed symmetric pair
// {Villager, Raider}; Neutral is never hostile to anyone.
const (
	FactionNeutral  int32 = -1
	FactionVillager int32 = 0
	FactionRaider   int32 = 1
)

// NoTarget is the combat-target sentinel for "no hostile in range".
const NoTarget int32 = -1

// Projectile hit-record sentinels.
const (
	HitNone    int32 = -1 // in flight, nothing hit yet
	HitExpired int32 = -2 // lifetime ran out
)

// Activity is the behavior state tag. Closed enumeration; per-state behavior
// is table lookup, never dynamic dispatch.
type Activity uint8

const (
	Idle Activity = iota
	Walking
	Fighting
	Fleeing
	Patrolling
	Returning
	Raiding
	Farming
	Resting
	OnDuty
	OffDuty
)

var activityNames = [...]string{
	"Idle", "Walking", "Fighting", "Fleeing", "Patrolling",
	"Returning", "Raiding", "Farming", "Resting", "OnDuty", "OffDuty",
}

// String returns the activity name.
func (a Activity) String() string {
	if int(a) < len(activityNames) {
		return activityNames[a]
	}
	return "Unknown"
}

// Visual side-channel layout: 8 floats per slot.
const (
	VisualStride = 8
	VisCol       = 0
	VisRow       = 1
	VisAtlas     = 2
	VisTintR     = 3
	VisTintG     = 4
	VisTintB     = 5
	VisTintA     = 6
	VisFlash     = 7
)

// Equipment side-channel layout: 6 layers x 4 floats (col, row, atlas, pad).
// A negative col hides the layer.
const (
	EquipLayers = 6
	EquipStride = EquipLayers * 4
)

// Equipment layer indices.
const (
	LayerWeapon = iota
	LayerShield
	LayerHelmet
	LayerCloak
	LayerCarried
	LayerStatus
)

// State owns every CPU-side per-slot array. Fields the GPU consumes (goals,
// speeds, factions, healths, the visual side-channel) are mirrored up each
// frame; positions and combat targets flow back through the readback ring.
type State struct {
	Cfg *config.Config
	RNG *rand.Rand

	NPCs *Pool
	Proj *Pool

	// CPU-authoritative NPC fields, mirrored to GPU.
	GoalX, GoalY []float32
	Speed        []float32
	Health       []float32
	MaxHealth    []float32
	Faction      []int32

	// CPU-only NPC fields.
	Job            []JobID
	Trait          []traits.Trait
	Activity       []Activity
	Level          []int32
	XP             []int32
	HomeX, HomeY   []float32
	WorkX, WorkY   []float32
	Energy         []float32
	AttackCooldown []float32
	ScanCooldown   []float32
	LastLogicFrame []int32
	FarmIndex      []int32 // farm assignment for farmers, -1 otherwise
	ForcedTarget   []int32 // alert-broadcast target override, NoTarget when unset

	// Spawn-time positions, used to seed the GPU position buffer. After the
	// spawn upload the GPU owns positions; CPU reads come from the snapshot.
	SpawnX, SpawnY []float32

	// Render side-channel.
	Visual []float32 // N x VisualStride
	Equip  []float32 // N x EquipStride

	// CPU-authoritative projectile fields, mirrored to GPU on spawn.
	PPosX, PPosY []float32
	PVelX, PVelY []float32
	PDamage      []float32
	PFaction     []int32
	PShooter     []int32
	PLifetime    []float32
	PActive      []int32

	// Slots whose GPU position/health must be rewritten this frame
	// (spawns and deaths).
	DirtyNPCs []int32
	DirtyProj []int32

	// Per-faction upgrade multipliers, indexed by faction.
	Upgrades [2]Upgrades

	// Faction resource stock (harvest deposits), indexed by faction.
	Stock [2]float64

	// Town centers per faction (flee/recover destinations).
	TownX, TownY [2]float32

	Frame int32

	// Snapshot of the previous frame's readback; behavior reads only this.
	Snap *Snapshot

	pendingSpawns []SpawnCommand
	pendingDeaths []int32
	deathEvents   []DeathEvent
}

// Upgrades scale a whole faction's NPCs; bought by collaborators, applied in
// speed/damage/cooldown resolution.
type Upgrades struct {
	Damage   float32
	Speed    float32
	Cooldown float32
}

// Snapshot is the CPU view of GPU-owned buffers, one frame stale by design.
// All vectors are preallocated to MAX and range-filled to the live counts.
type Snapshot struct {
	PosX, PosY []float32
	Health     []float32
	Target     []int32
	Faction    []int32

	HitTarget    []int32
	HitProcessed []int32

	// Aggregates, refreshed on the stats cadence.
	AliveByFaction [2]int32
	Engaged        int32 // slots with a combat target

	Frame int32 // frame the snapshot was captured on
	Stale bool  // true when the last readback had to be skipped
}

// NewState allocates every per-slot array at full capacity.
func NewState(cfg *config.Config, rng *rand.Rand) *State {
	maxN := cfg.Pool.MaxNPCs
	maxP := cfg.Pool.MaxProjectiles

	st := &State{
		Cfg:  cfg,
		RNG:  rng,
		NPCs: NewPool(maxN),
		Proj: NewPool(maxP),

		GoalX:     make([]float32, maxN),
		GoalY:     make([]float32, maxN),
		Speed:     make([]float32, maxN),
		Health:    make([]float32, maxN),
		MaxHealth: make([]float32, maxN),
		Faction:   make([]int32, maxN),

		Job:            make([]JobID, maxN),
		Trait:          make([]traits.Trait, maxN),
		Activity:       make([]Activity, maxN),
		Level:          make([]int32, maxN),
		XP:             make([]int32, maxN),
		HomeX:          make([]float32, maxN),
		HomeY:          make([]float32, maxN),
		WorkX:          make([]float32, maxN),
		WorkY:          make([]float32, maxN),
		Energy:         make([]float32, maxN),
		AttackCooldown: make([]float32, maxN),
		ScanCooldown:   make([]float32, maxN),
		LastLogicFrame: make([]int32, maxN),
		FarmIndex:      make([]int32, maxN),
		ForcedTarget:   make([]int32, maxN),

		SpawnX: make([]float32, maxN),
		SpawnY: make([]float32, maxN),

		Visual: make([]float32, maxN*VisualStride),
		Equip:  make([]float32, maxN*EquipStride),

		PPosX:     make([]float32, maxP),
		PPosY:     make([]float32, maxP),
		PVelX:     make([]float32, maxP),
		PVelY:     make([]float32, maxP),
		PDamage:   make([]float32, maxP),
		PFaction:  make([]int32, maxP),
		PShooter:  make([]int32, maxP),
		PLifetime: make([]float32, maxP),
		PActive:   make([]int32, maxP),

		Snap: NewSnapshot(maxN, maxP),
	}

	for i := range st.Faction {
		st.Faction[i] = FactionNeutral
	}
	for i := range st.FarmIndex {
		st.FarmIndex[i] = -1
	}
	for i := range st.ForcedTarget {
		st.ForcedTarget[i] = NoTarget
	}
	for f := range st.Upgrades {
		st.Upgrades[f] = Upgrades{Damage: 1, Speed: 1, Cooldown: 1}
	}
	return st
}

// NewSnapshot preallocates readback destinations at full capacity.
func NewSnapshot(maxN, maxP int) *Snapshot {
	s := &Snapshot{
		PosX:         make([]float32, maxN),
		PosY:         make([]float32, maxN),
		Health:       make([]float32, maxN),
		Target:       make([]int32, maxN),
		Faction:      make([]int32, maxN),
		HitTarget:    make([]int32, maxP),
		HitProcessed: make([]int32, maxP),
	}
	for i := range s.Target {
		s.Target[i] = NoTarget
	}
	for i := range s.HitTarget {
		s.HitTarget[i] = HitNone
	}
	return s
}

// Alive reports whether a slot is live according to the CPU mirror.
func (st *State) Alive(slot int32) bool {
	return slot >= 0 && slot < st.NPCs.N() && st.Health[slot] > 0
}

// ResolvedSpeed returns the slot's movement speed after trait and faction
// upgrade multipliers.
func (st *State) ResolvedSpeed(slot int32) float32 {
	base := JobTemplates[st.Job[slot]].Speed
	s := base * traits.SpeedMultiplier(st.Trait[slot])
	if f := st.Faction[slot]; f == FactionVillager || f == FactionRaider {
		s *= st.Upgrades[f].Speed
	}
	return s
}

// Hostile reports whether two factions attack each other. Neutral (-1) is
// universally non-hostile; the hostile relation is the symmetric pair
// {villager, raider}.
func Hostile(a, b int32) bool {
	if a == FactionNeutral || b == FactionNeutral {
		return false
	}
	return (a == FactionVillager && b == FactionRaider) ||
		(a == FactionRaider && b == FactionVillager)
}

// SetGoal writes a movement target for a slot. Ignored for dead slots.
func (st *State) SetGoal(slot int32, x, y float32) {
	if !st.Alive(slot) {
		return
	}
	st.GoalX[slot] = x
	st.GoalY[slot] = y
}

// MarkDirty records that a slot's GPU position/health must be rewritten.
func (st *State) MarkDirty(slot int32) {
	st.DirtyNPCs = append(st.DirtyNPCs, slot)
}

// MarkProjDirty records that a projectile slot must be rewritten on GPU.
func (st *State) MarkProjDirty(slot int32) {
	st.DirtyProj = append(st.DirtyProj, slot)
}

// NPCView is the UI query surface: a copy of the last-known fields for one
// slot, stamped with the frame the position was read back on.
type NPCView struct {
	Slot     int32
	X, Y     float32
	Health   float32
	Max      float32
	Activity Activity
	Job      JobID
	Faction  int32
	Level    int32
	XP       int32
	Trait    traits.Trait
	Frame    int32
}

// View snapshots one slot for UI queries. The position is one frame stale;
// callers tolerate that.
func (st *State) View(slot int32) (NPCView, bool) {
	if !st.Alive(slot) {
		return NPCView{}, false
	}
	return NPCView{
		Slot:     slot,
		X:        st.Snap.PosX[slot],
		Y:        st.Snap.PosY[slot],
		Health:   st.Health[slot],
		Max:      st.MaxHealth[slot],
		Activity: st.Activity[slot],
		Job:      st.Job[slot],
		Faction:  st.Faction[slot],
		Level:    st.Level[slot],
		XP:       st.XP[slot],
		Trait:    st.Trait[slot],
		Frame:    st.Snap.Frame,
	}, true
}

// Status layer sprites. Atlas 2 holds flat icons, atlas 3 glow effects; the
// vertex shader picks color and scale from the atlas id.
var (
	sleepIcon = SpriteRef{Col: 6, Row: 6, Atlas: 2}
	healHalo  = SpriteRef{Col: 7, Row: 6, Atlas: 3}
)

// setStatusLayer writes the status equipment layer; a negative col hides it.
func (st *State) setStatusLayer(slot int32, ref SpriteRef) {
	base := int(slot)*EquipStride + LayerStatus*4
	st.Equip[base] = ref.Col
	st.Equip[base+1] = ref.Row
	st.Equip[base+2] = ref.Atlas
}

// EquipmentLayer returns the sprite triple for one equipment layer of a slot.
func (st *State) EquipmentLayer(slot int32, layer int) (col, row, atlas float32) {
	base := int(slot)*EquipStride + layer*4
	return st.Equip[base], st.Equip[base+1], st.Equip[base+2]
}
