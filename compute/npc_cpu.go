package compute

import (
	"math"

	"github.com/pthm-cable/holdfast/sim"
)

// goldenAngle breaks the tie when two slots occupy the same point: the push
// direction comes from slot indices instead of a degenerate normalize.
const goldenAngle = 2.39996323

// simulateNPC is kernel mode 2 for one slot: separation, dodge, projectile
// dodge, goal seeking with backoff, integration, and combat target
// selection. The GLSL kernel mirrors this function step for step.
func (b *CPUBackend) simulateNPC(i int32, dt float32) {
	p := &b.p
	px := b.posX[i]
	py := b.posY[i]
	if px < sim.TombstoneThreshold {
		return
	}

	gx := b.goalX[i]
	gy := b.goalY[i]
	speed := b.speed[i]

	dvx := gx - px
	dvy := gy - py
	dlen := float32(math.Sqrt(float64(dvx*dvx + dvy*dvy)))
	moving := speed > 0 && dlen > p.ArrivalThreshold

	var hx, hy float32
	if dlen > 1e-5 {
		hx = dvx / dlen
		hy = dvy / dlen
	}

	sepX, sepY, dodgeX, dodgeY := b.neighborForces(i, px, py, hx, hy, moving)

	// Dodge contributes a fixed-magnitude lateral nudge.
	if dl := float32(math.Sqrt(float64(dodgeX*dodgeX + dodgeY*dodgeY))); dl > 1e-5 {
		scale := p.DodgeCap * p.SepStrength / dl
		dodgeX *= scale
		dodgeY *= scale
	}

	avX := sepX + dodgeX
	avY := sepY + dodgeY
	if limit := p.AvoidCap * speed; limit > 0 {
		if al := float32(math.Sqrt(float64(avX*avX + avY*avY))); al > limit {
			avX *= limit / al
			avY *= limit / al
		}
	} else {
		avX, avY = 0, 0
	}

	pdX, pdY := b.projectileDodge(i, px, py, speed)

	// Goal seeking with lateral steer when avoidance opposes the heading.
	var mvX, mvY float32
	if moving {
		mvX = hx * speed
		mvY = hy * speed
		totAvX := avX + pdX
		totAvY := avY + pdY
		al := float32(math.Sqrt(float64(totAvX*totAvX + totAvY*totAvY)))
		if al > 1e-5 && (totAvX*hx+totAvY*hy)/al < -0.3 {
			side := hx*totAvY - hy*totAvX
			sign := float32(1)
			if side < 0 {
				sign = -1
			}
			mvX += -hy * sign * p.LateralSteer * speed
			mvY += hx * sign * p.LateralSteer * speed
			if b.backoff[i] < p.BackoffMax {
				b.backoff[i]++
			}
		} else {
			b.backoff[i] -= p.BackoffDecay
			if b.backoff[i] < 0 {
				b.backoff[i] = 0
			}
		}
		b.arrived[i] = 0
	} else {
		if speed > 0 {
			b.arrived[i] = 1
		}
		b.backoff[i] -= p.BackoffDecay
		if b.backoff[i] < 0 {
			b.backoff[i] = 0
		}
	}

	b.posX[i] = px + (mvX+avX+pdX)*dt
	b.posY[i] = py + (mvY+avY+pdY)*dt

	if b.health[i] > 0 {
		b.targets[i] = b.selectTarget(i, b.posX[i], b.posY[i])
	} else {
		b.targets[i] = sim.NoTarget
	}
}


// clampCell clamps a cell coordinate to the grid, matching the kernels.
func clampCell(v, max int32) int32 {
	if v < 0 {
		return 0
	}
	if v >= max {
		return max - 1
	}
	return v
}

// neighborForces scans the 3x3 NPC-grid neighbourhood and accumulates the
// separation push and the anticipatory dodge steering.
func (b *CPUBackend) neighborForces(i int32, px, py, hx, hy float32, moving bool) (sepX, sepY, dodgeX, dodgeY float32) {
	p := &b.p
	cx := clampCell(int32(px/p.CellSize), p.GridW)
	cy := clampCell(int32(py/p.CellSize), p.GridH)

	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			gx := cx + dx
			gy := cy + dy
			if gx < 0 || gx >= p.GridW || gy < 0 || gy >= p.GridH {
				continue
			}
			for _, j := range b.npcGrid.CellEntries(gy*p.GridW + gx) {
				if j == i {
					continue
				}
				ox := b.posX[j] - px
				oy := b.posY[j] - py
				d2 := ox*ox + oy*oy

				if d2 < 1e-4 {
					// Coincident: deterministic golden-angle push.
					angle := goldenAngle * float64(i+j*31)
					sepX += float32(math.Cos(angle)) * p.SepStrength
					sepY += float32(math.Sin(angle)) * p.SepStrength
					continue
				}

				d := float32(math.Sqrt(float64(d2)))
				otherMoving := b.npcMoving(j)

				if d < p.SepRadius {
					overlap := p.SepRadius - d
					strength := overlap / d * p.SepStrength
					mult := float32(1)
					if !otherMoving && moving {
						mult *= p.StationaryPush
					}
					if b.faction[j] == b.faction[i] {
						mult *= p.SameFaction
					}
					if moving && b.arrived[j] != 0 {
						mult *= p.MoverVsSettled
					}
					if !moving && otherMoving {
						mult *= p.SettledShoved
					}
					sepX -= ox / d * strength * mult
					sepY -= oy / d * strength * mult
				}

				if moving {
					toX := ox / d
					toY := oy / d
					if hx*toX+hy*toY > 0.3 {
						// Heading roughly at the neighbour: steer aside.
						ohx, ohy := b.npcHeading(j)
						align := hx*ohx + hy*ohy
						var mag float32
						switch {
						case align > 0.5:
							mag = p.DodgeOvertake
						case align < -0.5:
							mag = p.DodgeHeadOn
						default:
							mag = p.DodgeCross
						}
						sign := float32(1)
						if i >= j {
							sign = -1
						}
						dodgeX += -hy * sign * mag
						dodgeY += hx * sign * mag
					}
				}
			}
		}
	}
	return sepX, sepY, dodgeX, dodgeY
}

// npcMoving reports whether a slot is actively goal seeking.
func (b *CPUBackend) npcMoving(j int32) bool {
	if b.speed[j] <= 0 || b.arrived[j] != 0 {
		return false
	}
	dx := b.goalX[j] - b.posX[j]
	dy := b.goalY[j] - b.posY[j]
	return dx*dx+dy*dy > b.p.ArrivalThreshold*b.p.ArrivalThreshold
}

// npcHeading returns a slot's normalized goal direction, zero when settled.
func (b *CPUBackend) npcHeading(j int32) (float32, float32) {
	dx := b.goalX[j] - b.posX[j]
	dy := b.goalY[j] - b.posY[j]
	d := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if d < 1e-5 {
		return 0, 0
	}
	return dx / d, dy / d
}

// projectileDodge scans the 3x3 projectile-grid neighbourhood for incoming
// hostile arrows and steers perpendicular to their flight path.
func (b *CPUBackend) projectileDodge(i int32, px, py, speed float32) (dx, dy float32) {
	p := &b.p
	if speed <= 0 {
		return 0, 0
	}
	cx := clampCell(int32(px/p.CellSize), p.GridW)
	cy := clampCell(int32(py/p.CellSize), p.GridH)
	myFaction := b.faction[i]

	for gy := cy - 1; gy <= cy+1; gy++ {
		for gx := cx - 1; gx <= cx+1; gx++ {
			if gx < 0 || gx >= p.GridW || gy < 0 || gy >= p.GridH {
				continue
			}
			for _, j := range b.projGrid.CellEntries(gy*p.GridW + gx) {
				if b.pActive[j] == 0 || !sim.Hostile(b.pFaction[j], myFaction) {
					continue
				}
				tx := px - b.pPosX[j]
				ty := py - b.pPosY[j]
				d := float32(math.Sqrt(float64(tx*tx + ty*ty)))
				if d < 1e-4 || d > p.ProjDodgeRange {
					continue
				}
				vx := b.pVelX[j]
				vy := b.pVelY[j]
				vl := float32(math.Sqrt(float64(vx*vx + vy*vy)))
				if vl < 1e-4 {
					continue
				}
				pdx := vx / vl
				pdy := vy / vl
				if pdx*tx/d+pdy*ty/d <= p.ProjDodgeAlignment {
					continue
				}
				urgency := (1 - d/p.ProjDodgeRange) * 1.5 * speed
				// Step off to whichever side of the flight path we are on.
				side := pdx*ty - pdy*tx
				sign := float32(1)
				if side < 0 {
					sign = -1
				}
				dx += -pdy * sign * urgency
				dy += pdx * sign * urgency
			}
		}
	}
	return dx, dy
}

// selectTarget is kernel step 7: nearest hostile live slot within combat
// range, scanning ceil(range/cell)+1 cells around the slot.
func (b *CPUBackend) selectTarget(i int32, px, py float32) int32 {
	p := &b.p
	myFaction := b.faction[i]
	if myFaction == sim.FactionNeutral {
		return sim.NoTarget
	}

	r := int32(math.Ceil(float64(p.CombatRange/p.CellSize))) + 1
	cx := clampCell(int32(px/p.CellSize), p.GridW)
	cy := clampCell(int32(py/p.CellSize), p.GridH)

	best := sim.NoTarget
	bestD2 := p.CombatRange * p.CombatRange

	for gy := cy - r; gy <= cy+r; gy++ {
		if gy < 0 || gy >= p.GridH {
			continue
		}
		for gx := cx - r; gx <= cx+r; gx++ {
			if gx < 0 || gx >= p.GridW {
				continue
			}
			for _, j := range b.npcGrid.CellEntries(gy*p.GridW + gx) {
				if j == i || b.health[j] <= 0 || !sim.Hostile(myFaction, b.faction[j]) {
					continue
				}
				dx := b.posX[j] - px
				dy := b.posY[j] - py
				d2 := dx*dx + dy*dy
				if d2 <= bestD2 {
					best = j
					bestD2 = d2
				}
			}
		}
	}
	return best
}
