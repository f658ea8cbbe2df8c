package sim

import (
	"math"

	"github.com/pthm-cable/holdfast/traits"
)

// Behavior runs the utility-AI decision layer once per frame, after the
// readback snapshot for the previous frame is in place. It only reads
// snapshot positions/health/targets and writes goals, speeds and activity.
type Behavior struct {
	st     *State
	combat *Combat

	// Patrol ring radius around the town center for guards.
	patrolRadius float32
}

// NewBehavior creates the decision layer over the shared state.
func NewBehavior(st *State, combat *Combat) *Behavior {
	return &Behavior{st: st, combat: combat, patrolRadius: 180}
}

// flashDecay is the damage-flash fade rate per second.
const flashDecay = 3.0

// Update advances every live slot's decision state by one frame.
func (b *Behavior) Update(dt float32) {
	st := b.st
	cfg := st.Cfg
	n := st.NPCs.N()
	scanK := int32(cfg.Behavior.ScanStagger)
	logicK := int32(cfg.Behavior.LogicStagger)

	for i := int32(0); i < n; i++ {
		if st.Health[i] <= 0 {
			continue
		}

		b.tickTimers(i, dt)

		scanGate := i%scanK == st.Frame%scanK
		logicGate := i%logicK == st.Frame%logicK

		// Combat and flee triggers preempt whatever the slot was doing.
		if scanGate {
			b.checkFlee(i)
			if st.Activity[i] != Fleeing {
				b.checkEngage(i)
			}
		}

		switch st.Activity[i] {
		case Idle:
			if logicGate {
				b.decide(i)
			}
		case Walking, Patrolling, Returning, Raiding:
			b.tickTravel(i)
		case Farming, OnDuty:
			b.tickWork(i, dt)
		case Resting:
			b.tickRest(i, dt)
		case Fighting:
			b.tickFight(i)
		case Fleeing:
			b.tickFlee(i)
		case OffDuty:
			b.tickRecover(i, dt)
		}

		if logicGate {
			st.Speed[i] = b.activitySpeed(i)
			st.LastLogicFrame[i] = st.Frame
		}
	}
}

// tickTimers advances the per-slot cooldowns and visual flash.
func (b *Behavior) tickTimers(i int32, dt float32) {
	st := b.st
	if st.AttackCooldown[i] > 0 {
		st.AttackCooldown[i] -= dt
	}
	if st.ScanCooldown[i] > 0 {
		st.ScanCooldown[i] -= dt
	}
	fi := int(i)*VisualStride + VisFlash
	if st.Visual[fi] > 0 {
		st.Visual[fi] -= flashDecay * dt
		if st.Visual[fi] < 0 {
			st.Visual[fi] = 0
		}
	}
}

// checkFlee drops a slot into Fleeing when health crosses its trait-adjusted
// threshold. Brave NPCs never flee.
func (b *Behavior) checkFlee(i int32) {
	st := b.st
	if st.Activity[i] == Fleeing || st.Activity[i] == OffDuty {
		return
	}
	threshold := traits.FleeThreshold(st.Trait[i], float32(st.Cfg.Behavior.FleeThreshold))
	if threshold <= 0 {
		return
	}
	if st.Health[i] < threshold*st.MaxHealth[i] {
		st.Activity[i] = Fleeing
		st.ForcedTarget[i] = NoTarget
		tx, ty := b.safePoint(i)
		st.SetGoal(i, tx, ty)
	}
}

// engageRescanDelay spaces out fruitless target scans, in seconds.
const engageRescanDelay = 0.25

// checkEngage promotes a slot to Fighting when the kernel picked a target or
// an alert forced one. Empty scans back off via the scan cooldown.
func (b *Behavior) checkEngage(i int32) {
	st := b.st
	if st.Activity[i] == Fighting || st.Activity[i] == Resting {
		return
	}
	if st.ScanCooldown[i] > 0 {
		return
	}
	target := st.ForcedTarget[i]
	if target < 0 {
		target = st.Snap.Target[i]
	}
	if target >= 0 && st.Alive(target) && Hostile(st.Faction[i], st.Faction[target]) {
		st.Activity[i] = Fighting
		return
	}
	st.ScanCooldown[i] = engageRescanDelay
}

// currentTarget resolves the slot's combat target: alert override first,
// then the kernel's nearest-hostile pick.
func (b *Behavior) currentTarget(i int32) int32 {
	st := b.st
	if t := st.ForcedTarget[i]; t >= 0 {
		if st.Alive(t) {
			return t
		}
		st.ForcedTarget[i] = NoTarget
	}
	return st.Snap.Target[i]
}

// decide picks the next activity for an idle slot by utility score.
func (b *Behavior) decide(i int32) {
	st := b.st
	cfg := st.Cfg

	restScore := (1 - st.Energy[i]) * 2
	workScore := st.Energy[i]
	// Long commutes make work less attractive; the weights keep a tired NPC
	// heading to bed instead of across the map.
	wd := dist(st.Snap.PosX[i], st.Snap.PosY[i], st.WorkX[i], st.WorkY[i])
	workScore -= wd / 2000

	if st.Energy[i] <= float32(cfg.Behavior.RestThreshold) || restScore > workScore+0.8 {
		st.Activity[i] = Resting
		st.setStatusLayer(i, sleepIcon)
		st.SetGoal(i, st.HomeX[i], st.HomeY[i])
		return
	}

	switch st.Job[i] {
	case JobFarmer:
		st.Activity[i] = Walking
		st.SetGoal(i, st.WorkX[i], st.WorkY[i])
	case JobGuard:
		st.Activity[i] = Patrolling
		px, py := b.patrolPoint(i)
		st.SetGoal(i, px, py)
	case JobArcher:
		st.Activity[i] = Walking
		st.SetGoal(i, st.WorkX[i], st.WorkY[i])
	case JobRaider:
		st.Activity[i] = Raiding
		enemy := FactionVillager
		if st.Faction[i] == FactionVillager {
			enemy = FactionRaider
		}
		st.SetGoal(i, st.TownX[enemy], st.TownY[enemy])
	}
}

// tickTravel watches for arrival and routes to the follow-up activity.
func (b *Behavior) tickTravel(i int32) {
	st := b.st
	if !b.arrived(i) {
		return
	}
	switch st.Activity[i] {
	case Walking:
		switch st.Job[i] {
		case JobFarmer:
			st.Activity[i] = Farming
		case JobArcher:
			st.Activity[i] = OnDuty
		default:
			st.Activity[i] = Idle
		}
	case Patrolling, Returning, Raiding:
		st.Activity[i] = Idle
	}
}

// tickWork drains energy while on station; exhaustion sends the slot home.
func (b *Behavior) tickWork(i int32, dt float32) {
	st := b.st
	st.Energy[i] -= float32(st.Cfg.Behavior.EnergyDrain) * dt
	if st.Energy[i] <= float32(st.Cfg.Behavior.RestThreshold) {
		st.Activity[i] = Resting
		st.setStatusLayer(i, sleepIcon)
		st.SetGoal(i, st.HomeX[i], st.HomeY[i])
	}
}

// tickRest regenerates energy once the slot reaches its bed.
func (b *Behavior) tickRest(i int32, dt float32) {
	st := b.st
	if !b.arrived(i) {
		return
	}
	st.Energy[i] += float32(st.Cfg.Behavior.EnergyRegen) * dt
	if st.Energy[i] >= 1 {
		st.Energy[i] = 1
		st.Activity[i] = Idle
		st.setStatusLayer(i, hiddenLayer)
	}
}

// tickFight closes to attack range and swings when the cooldown allows.
// Past the leash the slot disengages and walks home.
func (b *Behavior) tickFight(i int32) {
	st := b.st
	cfg := st.Cfg
	target := b.currentTarget(i)
	if target < 0 || !st.Alive(target) || !Hostile(st.Faction[i], st.Faction[target]) {
		st.ForcedTarget[i] = NoTarget
		st.Activity[i] = Idle
		st.SetGoal(i, st.Snap.PosX[i], st.Snap.PosY[i])
		return
	}

	leash := float32(cfg.Combat.Leash)
	if st.Job[i] == JobRaider {
		leash *= float32(cfg.Combat.RaiderLeashMult)
	}
	if dist(st.Snap.PosX[i], st.Snap.PosY[i], st.HomeX[i], st.HomeY[i]) > leash {
		st.ForcedTarget[i] = NoTarget
		st.Activity[i] = Returning
		st.SetGoal(i, st.HomeX[i], st.HomeY[i])
		return
	}

	tx := st.Snap.PosX[target]
	ty := st.Snap.PosY[target]
	rng := st.AttackRange(i)
	d := dist(st.Snap.PosX[i], st.Snap.PosY[i], tx, ty)
	if d > rng {
		st.SetGoal(i, tx, ty)
		return
	}

	// In range: hold position and swing on cooldown.
	st.SetGoal(i, st.Snap.PosX[i], st.Snap.PosY[i])
	if st.AttackCooldown[i] <= 0 {
		b.combat.Attack(i, target)
		cd := float32(cfg.Combat.BaseAttackCooldown) * traits.CooldownMultiplier(st.Trait[i])
		if f := st.Faction[i]; f == FactionVillager || f == FactionRaider {
			cd *= st.Upgrades[f].Cooldown
		}
		st.AttackCooldown[i] = cd
	}
}

// tickFlee runs home; on arrival the slot switches to recovering.
func (b *Behavior) tickFlee(i int32) {
	st := b.st
	if b.arrived(i) {
		st.Activity[i] = OffDuty
		st.setStatusLayer(i, healHalo)
	}
}

// tickRecover heals near town until the policy threshold, then releases the
// slot back to Idle.
func (b *Behavior) tickRecover(i int32, dt float32) {
	st := b.st
	st.Health[i] += float32(st.Cfg.Behavior.HealRate) * st.MaxHealth[i] * dt
	if st.Health[i] >= float32(st.Cfg.Behavior.RecoverThreshold)*st.MaxHealth[i] {
		if st.Health[i] > st.MaxHealth[i] {
			st.Health[i] = st.MaxHealth[i]
		}
		st.Activity[i] = Idle
		st.setStatusLayer(i, hiddenLayer)
	}
}

// arrived checks the snapshot position against the current goal.
func (b *Behavior) arrived(i int32) bool {
	st := b.st
	return dist(st.Snap.PosX[i], st.Snap.PosY[i], st.GoalX[i], st.GoalY[i]) <=
		float32(st.Cfg.Movement.ArrivalThreshold)
}

// safePoint is the flee destination: the slot's own town center.
func (b *Behavior) safePoint(i int32) (float32, float32) {
	st := b.st
	f := st.Faction[i]
	if f != FactionVillager && f != FactionRaider {
		return st.HomeX[i], st.HomeY[i]
	}
	return st.TownX[f], st.TownY[f]
}

// patrolPoint picks a deterministic-ish point on the patrol ring.
func (b *Behavior) patrolPoint(i int32) (float32, float32) {
	st := b.st
	f := st.Faction[i]
	cx, cy := st.HomeX[i], st.HomeY[i]
	if f == FactionVillager || f == FactionRaider {
		cx, cy = st.TownX[f], st.TownY[f]
	}
	angle := st.RNG.Float64() * 2 * math.Pi
	return cx + b.patrolRadius*float32(math.Cos(angle)), cy + b.patrolRadius*float32(math.Sin(angle))
}

// activitySpeed resolves the movement speed for the slot's current state.
// Working and resting slots sit still; the GPU treats speed 0 as settled.
func (b *Behavior) activitySpeed(i int32) float32 {
	st := b.st
	switch st.Activity[i] {
	case Farming, OnDuty:
		return 0
	case Resting:
		if b.arrived(i) {
			return 0
		}
	}
	return st.ResolvedSpeed(i)
}
