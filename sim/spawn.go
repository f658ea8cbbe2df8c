package sim

import (
	"math"

	"github.com/pthm-cable/holdfast/traits"
)

// SpawnCommand requests one NPC. Spawners and world gen enqueue these; the
// queue drains at the top of each tick.
type SpawnCommand struct {
	Job          JobID
	HomeX, HomeY float32
	Faction      int32
	InitialState Activity
}

// EnqueueSpawn queues an NPC spawn for the next drain.
func (st *State) EnqueueSpawn(cmd SpawnCommand) {
	st.pendingSpawns = append(st.pendingSpawns, cmd)
}

// PendingSpawns returns the number of queued spawn commands.
func (st *State) PendingSpawns() int {
	return len(st.pendingSpawns)
}

// DrainSpawns acquires a slot per queued command and initializes every
// per-slot array from the job template. Spawns are mandatory: pool
// exhaustion aborts the frame with ErrPoolExhausted.
func (st *State) DrainSpawns() (spawned []int32, err error) {
	for _, cmd := range st.pendingSpawns {
		slot, aerr := st.NPCs.Acquire()
		if aerr != nil {
			st.pendingSpawns = st.pendingSpawns[:0]
			return spawned, aerr
		}
		st.initSlot(slot, cmd)
		spawned = append(spawned, slot)
	}
	st.pendingSpawns = st.pendingSpawns[:0]
	return spawned, nil
}

// PendingDeathSlots returns the slots awaiting release at the next tick
// boundary. The slice aliases internal storage; read only.
func (st *State) PendingDeathSlots() []int32 {
	return st.pendingDeaths
}

// ReleaseDeaths returns last frame's dead slots to the pool. Runs at the top
// of the tick, after the death frame's XP and logging side effects completed
// and its tombstone upload excluded the slots from compute.
func (st *State) ReleaseDeaths() {
	for _, slot := range st.pendingDeaths {
		st.NPCs.Release(slot)
	}
	st.pendingDeaths = st.pendingDeaths[:0]
}

// initSlot seeds every array for a freshly acquired slot.
func (st *State) initSlot(slot int32, cmd SpawnCommand) {
	tpl := &JobTemplates[cmd.Job]

	st.Job[slot] = cmd.Job
	st.Faction[slot] = cmd.Faction
	st.Trait[slot] = st.rollTrait()
	st.Activity[slot] = cmd.InitialState
	st.Level[slot] = 1
	st.XP[slot] = 0
	st.HomeX[slot] = cmd.HomeX
	st.HomeY[slot] = cmd.HomeY
	st.WorkX[slot] = cmd.HomeX
	st.WorkY[slot] = cmd.HomeY
	st.Energy[slot] = tpl.Energy
	st.AttackCooldown[slot] = 0
	st.ScanCooldown[slot] = 0
	st.LastLogicFrame[slot] = st.Frame
	st.FarmIndex[slot] = -1
	st.ForcedTarget[slot] = NoTarget

	st.MaxHealth[slot] = tpl.MaxHealth
	st.Health[slot] = tpl.MaxHealth
	st.Speed[slot] = st.ResolvedSpeed(slot)

	st.SpawnX[slot] = cmd.HomeX
	st.SpawnY[slot] = cmd.HomeY
	st.GoalX[slot] = cmd.HomeX
	st.GoalY[slot] = cmd.HomeY

	// Seed the snapshot so behavior and UI see a sane position before the
	// first readback lands.
	st.Snap.PosX[slot] = cmd.HomeX
	st.Snap.PosY[slot] = cmd.HomeY
	st.Snap.Health[slot] = tpl.MaxHealth
	st.Snap.Target[slot] = NoTarget
	st.Snap.Faction[slot] = cmd.Faction

	st.writeVisual(slot, tpl)
	st.MarkDirty(slot)
}

// writeVisual fills the render side-channel strips from the template.
func (st *State) writeVisual(slot int32, tpl *JobTemplate) {
	v := st.Visual[int(slot)*VisualStride:]
	v[VisCol] = tpl.Body.Col
	v[VisRow] = tpl.Body.Row
	v[VisAtlas] = tpl.Body.Atlas
	v[VisTintR] = tpl.Tint[0]
	v[VisTintG] = tpl.Tint[1]
	v[VisTintB] = tpl.Tint[2]
	v[VisTintA] = tpl.Tint[3]
	v[VisFlash] = 0

	e := st.Equip[int(slot)*EquipStride:]
	for layer := 0; layer < EquipLayers; layer++ {
		ref := tpl.Equipment[layer]
		e[layer*4+0] = ref.Col
		e[layer*4+1] = ref.Row
		e[layer*4+2] = ref.Atlas
		e[layer*4+3] = 0
	}
}

// rollTrait picks at most one weighted trait for a fresh spawn.
func (st *State) rollTrait() traits.Trait {
	r := st.RNG.Float32()
	var acc float32
	for _, tr := range traits.All {
		acc += traits.TraitWeights[tr]
		if r < acc {
			return tr
		}
	}
	return 0
}

// SpawnerKind identifies a building spawner type.
type SpawnerKind uint8

const (
	SpawnerFarmerHome SpawnerKind = iota
	SpawnerArcherHome
	SpawnerRaiderTent
)

// Spawner tracks one building that keeps a job population topped up.
type Spawner struct {
	Kind    SpawnerKind
	Job     JobID
	Faction int32
	X, Y    float32
	Target  int32
	Timer   float32 // seconds until the next spawn is allowed
}

// TickSpawners counts live NPCs per spawner job/faction and enqueues one
// spawn per spawner whose population is below target and whose respawn timer
// elapsed.
func (st *State) TickSpawners(spawners []Spawner, dt float32) {
	var alive [numJobs][2]int
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if st.Health[i] <= 0 {
			continue
		}
		f := st.Faction[i]
		if f != FactionVillager && f != FactionRaider {
			continue
		}
		alive[st.Job[i]][f]++
	}

	respawn := float32(st.Cfg.Economy.RespawnSeconds)
	for k := range spawners {
		sp := &spawners[k]
		if sp.Timer > 0 {
			sp.Timer -= dt
			continue
		}
		if alive[sp.Job][sp.Faction] >= int(sp.Target) {
			continue
		}
		initial := Idle
		if sp.Job == JobRaider {
			initial = Raiding
		}
		st.EnqueueSpawn(SpawnCommand{
			Job:          sp.Job,
			HomeX:        sp.X + jitter(st, 12),
			HomeY:        sp.Y + jitter(st, 12),
			Faction:      sp.Faction,
			InitialState: initial,
		})
		alive[sp.Job][sp.Faction]++
		sp.Timer = respawn
	}
}

// DespawnAll tombstones every live slot and resets both pools. Used when the
// host leaves a playing mode.
func (st *State) DespawnAll() {
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		st.Health[i] = 0
		st.Activity[i] = Idle
		st.Faction[i] = FactionNeutral
		st.SpawnX[i] = TombstoneX
		st.SpawnY[i] = TombstoneX
	}
	m := st.Proj.N()
	for j := int32(0); j < m; j++ {
		st.PActive[j] = 0
		st.PPosX[j] = TombstoneX
		st.PPosY[j] = TombstoneX
	}
	st.NPCs.Restore(0, nil)
	st.Proj.Restore(0, nil)
	st.pendingSpawns = st.pendingSpawns[:0]
	st.pendingDeaths = st.pendingDeaths[:0]
	st.deathEvents = st.deathEvents[:0]
	st.DirtyNPCs = st.DirtyNPCs[:0]
	st.DirtyProj = st.DirtyProj[:0]
	st.Stock = [2]float64{}
}

func jitter(st *State, r float32) float32 {
	return (st.RNG.Float32() - 0.5) * 2 * r
}

// dist returns the Euclidean distance between two points.
func dist(x1, y1, x2, y2 float32) float32 {
	dx := x2 - x1
	dy := y2 - y1
	return float32(math.Sqrt(float64(dx*dx + dy*dy)))
}
