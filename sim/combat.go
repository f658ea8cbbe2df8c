package sim

import (
	"math"

	"github.com/pthm-cable/holdfast/traits"
)

// CombatEvents is the per-frame counter sink the combat layer reports into.
type CombatEvents interface {
	RecordMelee()
	RecordShot()
	RecordProjectileHit()
	RecordKill(victimFaction int32)
	RecordProjectileExhausted()
}

// Combat applies melee damage, fires projectiles, and resolves deaths.
type Combat struct {
	st     *State
	events CombatEvents
}

// NewCombat creates the combat layer over the shared state.
func NewCombat(st *State, events CombatEvents) *Combat {
	return &Combat{st: st, events: events}
}

// damage resolves an attacker's per-hit damage from job, traits, level and
// faction upgrades.
func (c *Combat) damage(attacker int32) float32 {
	st := c.st
	base := JobTemplates[st.Job[attacker]].Damage
	frac := float32(1)
	if st.MaxHealth[attacker] > 0 {
		frac = st.Health[attacker] / st.MaxHealth[attacker]
	}
	d := base * traits.DamageMultiplier(st.Trait[attacker], frac) * LevelDamage(st.Level[attacker])
	if f := st.Faction[attacker]; f == FactionVillager || f == FactionRaider {
		d *= st.Upgrades[f].Damage
	}
	return d
}

// Attack performs one melee strike or ranged shot from attacker to target.
// The caller has already verified range and cooldown.
func (c *Combat) Attack(attacker, target int32) {
	st := c.st
	if !st.Alive(attacker) || !st.Alive(target) {
		return
	}
	if !Hostile(st.Faction[attacker], st.Faction[target]) {
		return
	}
	if JobTemplates[st.Job[attacker]].Ranged {
		c.fire(attacker, target)
	} else {
		c.melee(attacker, target)
	}
	if st.Faction[attacker] == FactionRaider {
		c.alertRaiders(attacker, target)
	}
}

// melee applies scaled damage immediately and triggers the damage flash.
func (c *Combat) melee(attacker, target int32) {
	st := c.st
	st.Health[target] -= c.damage(attacker)
	st.Visual[int(target)*VisualStride+VisFlash] = float32(st.Cfg.Combat.MeleeFlash)
	if c.events != nil {
		c.events.RecordMelee()
	}
	if st.Health[target] <= 0 {
		c.Kill(target, attacker)
	}
}

// fire allocates a projectile slot toward the target's last-known position.
// Projectile exhaustion skips the shot; the cooldown was already spent.
func (c *Combat) fire(attacker, target int32) {
	st := c.st
	slot, err := st.Proj.Acquire()
	if err != nil {
		if c.events != nil {
			c.events.RecordProjectileExhausted()
		}
		return
	}

	sx := st.Snap.PosX[attacker]
	sy := st.Snap.PosY[attacker]
	tx := st.Snap.PosX[target]
	ty := st.Snap.PosY[target]
	dx := tx - sx
	dy := ty - sy
	d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if d < 1e-4 {
		dx, dy, d = 1, 0, 1
	}
	speed := float32(st.Cfg.Projectile.Speed)

	st.PPosX[slot] = sx
	st.PPosY[slot] = sy
	st.PVelX[slot] = dx / d * speed
	st.PVelY[slot] = dy / d * speed
	st.PDamage[slot] = c.damage(attacker)
	st.PFaction[slot] = st.Faction[attacker]
	st.PShooter[slot] = attacker
	st.PLifetime[slot] = float32(st.Cfg.Projectile.Lifetime)
	st.PActive[slot] = 1
	st.MarkProjDirty(slot)

	if c.events != nil {
		c.events.RecordShot()
	}
}

// ApplyProjectileHits consumes the hit records observed in this frame's
// snapshot: damage on hit, slot recycling for both hits and expiries.
func (c *Combat) ApplyProjectileHits() {
	st := c.st
	m := st.Proj.N()
	for j := int32(0); j < m; j++ {
		if st.Snap.HitProcessed[j] != 0 {
			continue
		}
		hit := st.Snap.HitTarget[j]
		switch {
		case hit == HitNone:
			continue
		case hit == HitExpired:
			// Lifetime expiry: the kernel already tombstoned it.
		case hit >= 0:
			c.resolveHit(j, hit)
		}
		st.Snap.HitProcessed[j] = 1
		c.retireProjectile(j)
	}
}

// resolveHit applies one projectile's damage to its recorded target.
func (c *Combat) resolveHit(proj, target int32) {
	st := c.st
	if !st.Alive(target) || !Hostile(st.PFaction[proj], st.Faction[target]) {
		return
	}
	st.Health[target] -= st.PDamage[proj]
	st.Visual[int(target)*VisualStride+VisFlash] = float32(st.Cfg.Combat.MeleeFlash)
	if c.events != nil {
		c.events.RecordProjectileHit()
	}
	if st.Health[target] <= 0 {
		c.Kill(target, st.PShooter[proj])
	}
	shooter := st.PShooter[proj]
	if st.Alive(shooter) && st.Faction[shooter] == FactionRaider {
		c.alertRaiders(shooter, target)
	}
}

// retireProjectile deactivates the CPU mirror and recycles the slot. The
// dirty upload rewrites the GPU record to (HitNone, 0) before the next
// dispatch can observe the stale hit.
func (c *Combat) retireProjectile(j int32) {
	st := c.st
	st.PActive[j] = 0
	st.PPosX[j] = TombstoneX
	st.PPosY[j] = TombstoneX
	st.MarkProjDirty(j)
	st.Proj.Release(j)
}

// Kill resolves a death: zero health, tombstone, XP grant, event record.
// The slot returns to the free list at the top of the next tick, after this
// frame's side effects are done.
func (c *Combat) Kill(victim, killer int32) {
	st := c.st
	if st.Health[victim] > 0 {
		st.Health[victim] = 0
	}
	ev := DeathEvent{
		Slot:        victim,
		VictimJob:   st.Job[victim],
		VictimLevel: st.Level[victim],
		Faction:     st.Faction[victim],
		KillerSlot:  killer,
		Frame:       st.Frame,
	}

	st.Health[victim] = 0
	st.Activity[victim] = Idle
	st.ForcedTarget[victim] = NoTarget
	st.SpawnX[victim] = TombstoneX
	st.SpawnY[victim] = TombstoneX
	st.Snap.Target[victim] = NoTarget
	st.MarkDirty(victim)
	st.pendingDeaths = append(st.pendingDeaths, victim)

	if killer >= 0 && st.Alive(killer) {
		ev.KillerJob = st.Job[killer]
		ev.KillerLevel = st.Level[killer]
		st.GrantXP(killer, ev.VictimLevel*int32(st.Cfg.Combat.XPPerLevelKill))
	} else {
		ev.KillerSlot = -1
	}
	st.deathEvents = append(st.deathEvents, ev)

	if c.events != nil {
		c.events.RecordKill(ev.Faction)
	}
}

// alertRaiders broadcasts a raider engagement: nearby raiders in non-combat
// states acquire the victim and switch to Fighting.
func (c *Combat) alertRaiders(attacker, victim int32) {
	st := c.st
	radius := float32(st.Cfg.Combat.AlertRadius)
	ax := st.Snap.PosX[attacker]
	ay := st.Snap.PosY[attacker]
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if i == attacker || !st.Alive(i) || st.Faction[i] != FactionRaider {
			continue
		}
		switch st.Activity[i] {
		case Fighting, Fleeing:
			continue
		}
		if dist(st.Snap.PosX[i], st.Snap.PosY[i], ax, ay) > radius {
			continue
		}
		st.ForcedTarget[i] = victim
		st.Activity[i] = Fighting
	}
}
