package compute

import (
	"math"

	"github.com/pthm-cable/holdfast/sim"
)

// stepProjectile is the projectile kernel mode 2 for one slot: lifetime,
// integration, and oriented-rectangle collision against the NPC grid built
// earlier this dispatch.
func (b *CPUBackend) stepProjectile(j int32, dt float32) {
	if b.pActive[j] == 0 {
		return
	}

	b.pLifetime[j] -= dt
	if b.pLifetime[j] <= 0 {
		b.hitTarget[j] = sim.HitExpired
		b.hitProcessed[j] = 0
		b.deactivate(j)
		return
	}

	b.pPosX[j] += b.pVelX[j] * dt
	b.pPosY[j] += b.pVelY[j] * dt

	if b.hitTarget[j] != sim.HitNone {
		return
	}
	if hit := b.collide(j); hit >= 0 {
		b.hitTarget[j] = hit
		b.hitProcessed[j] = 0
		b.deactivate(j)
	}
}

// deactivate tombstones a projectile so grid builds and dodge scans skip it.
func (b *CPUBackend) deactivate(j int32) {
	b.pActive[j] = 0
	b.pPosX[j] = sim.TombstoneX
	b.pPosY[j] = sim.TombstoneX
}

// collide tests the oriented hit rectangle against NPCs in the 3x3 cell
// neighbourhood. Near-zero velocity falls back to a disk of radius
// half-length.
func (b *CPUBackend) collide(j int32) int32 {
	p := &b.p
	px := b.pPosX[j]
	py := b.pPosY[j]
	cx := clampCell(int32(px/p.CellSize), p.GridW)
	cy := clampCell(int32(py/p.CellSize), p.GridH)

	vx := b.pVelX[j]
	vy := b.pVelY[j]
	v2 := vx*vx + vy*vy
	var fx, fy float32
	disk := v2 < 0.001
	if !disk {
		vl := float32(math.Sqrt(float64(v2)))
		fx = vx / vl
		fy = vy / vl
	}

	for gy := cy - 1; gy <= cy+1; gy++ {
		if gy < 0 || gy >= p.GridH {
			continue
		}
		for gx := cx - 1; gx <= cx+1; gx++ {
			if gx < 0 || gx >= p.GridW {
				continue
			}
			for _, k := range b.npcGrid.CellEntries(gy*p.GridW + gx) {
				if b.health[k] <= 0 || !sim.Hostile(b.pFaction[j], b.faction[k]) {
					continue
				}
				tx := b.posX[k] - px
				ty := b.posY[k] - py
				if disk {
					if tx*tx+ty*ty < p.ProjHalfLength*p.ProjHalfLength {
						return k
					}
					continue
				}
				along := tx*fx + ty*fy
				across := tx*-fy + ty*fx
				if absf(along) < p.ProjHalfLength && absf(across) < p.ProjHalfWidth {
					return k
				}
			}
		}
	}
	return -1
}

func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
