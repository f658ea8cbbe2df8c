package sim

import (
	opensimplex "github.com/ojrac/opensimplex-go"
)

// Farm is one growable plot. Growth advances toward 1.0 and resets on
// harvest.
type Farm struct {
	X, Y      float32
	Growth    float32
	Fertility float32 // static noise sample, scales growth rate
	Workers   int32
}

// Economy owns farms, faction stock deposits and the building spawners.
type Economy struct {
	st       *State
	Farms    []Farm
	Spawners []Spawner
	noise    opensimplex.Noise
}

// NewEconomy lays out farms east of the villager town center and registers
// the three building spawners. Fertility comes from a static noise field so
// farm yield varies across the map.
func NewEconomy(st *State, seed int64) *Economy {
	e := &Economy{
		st:    st,
		noise: opensimplex.New(seed),
	}

	cfg := st.Cfg
	scale := cfg.Economy.FarmFertilityScale
	vx, vy := st.TownX[FactionVillager], st.TownY[FactionVillager]
	for i := 0; i < cfg.Economy.FarmCount; i++ {
		// Block of farms east of town, six per row.
		col := float32(i % 6)
		row := float32(i / 6)
		fx := vx + 120 + col*64
		fy := vy - 160 + row*64
		fert := float32(e.noise.Eval2(float64(fx)*scale, float64(fy)*scale))
		e.Farms = append(e.Farms, Farm{
			X:         fx,
			Y:         fy,
			Fertility: 0.75 + 0.5*(fert+1)/2,
		})
	}

	e.Spawners = []Spawner{
		{Kind: SpawnerFarmerHome, Job: JobFarmer, Faction: FactionVillager,
			X: vx - 140, Y: vy + 80, Target: int32(cfg.Economy.FarmerTarget)},
		{Kind: SpawnerArcherHome, Job: JobArcher, Faction: FactionVillager,
			X: vx + 60, Y: vy + 120, Target: int32(cfg.Economy.ArcherTarget)},
		{Kind: SpawnerRaiderTent, Job: JobRaider, Faction: FactionRaider,
			X: st.TownX[FactionRaider], Y: st.TownY[FactionRaider], Target: int32(cfg.Economy.RaiderTarget)},
	}
	return e
}

// AssignWork binds a freshly spawned slot to its workplace: farmers get the
// least-crowded farm, everyone else works from home.
func (e *Economy) AssignWork(slot int32) {
	st := e.st
	if st.Job[slot] != JobFarmer || len(e.Farms) == 0 {
		return
	}
	best := 0
	for f := 1; f < len(e.Farms); f++ {
		if e.Farms[f].Workers < e.Farms[best].Workers {
			best = f
		}
	}
	e.Farms[best].Workers++
	st.FarmIndex[slot] = int32(best)
	st.WorkX[slot] = e.Farms[best].X
	st.WorkY[slot] = e.Farms[best].Y
}

// ReleaseWork unbinds a dead slot from its farm.
func (e *Economy) ReleaseWork(slot int32) {
	st := e.st
	if fi := st.FarmIndex[slot]; fi >= 0 && int(fi) < len(e.Farms) {
		if e.Farms[fi].Workers > 0 {
			e.Farms[fi].Workers--
		}
		st.FarmIndex[slot] = -1
	}
}

// Update advances farm growth, harvests ripe farms with a farmer on site,
// and ticks the building spawners.
func (e *Economy) Update(dt float32) {
	st := e.st
	rate := float32(st.Cfg.Economy.FarmGrowthRate)
	for f := range e.Farms {
		farm := &e.Farms[f]
		if farm.Growth < 1 {
			farm.Growth += rate * farm.Fertility * dt
			if farm.Growth > 1 {
				farm.Growth = 1
			}
		}
	}

	// Harvest: a farmer in Farming state on a ripe farm deposits yield.
	yield := st.Cfg.Economy.HarvestYield
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if st.Health[i] <= 0 || st.Activity[i] != Farming {
			continue
		}
		fi := st.FarmIndex[i]
		if fi < 0 || int(fi) >= len(e.Farms) {
			continue
		}
		farm := &e.Farms[fi]
		if farm.Growth >= 1 {
			farm.Growth = 0
			st.Stock[FactionVillager] += yield
			e.markCarrying(i, true)
		} else if farm.Growth > 0.5 {
			e.markCarrying(i, false)
		}
	}

	st.TickSpawners(e.Spawners, dt)
}

// markCarrying toggles the carried-item equipment layer for harvest feedback.
func (e *Economy) markCarrying(slot int32, carrying bool) {
	base := int(slot)*EquipStride + LayerCarried*4
	if carrying {
		e.st.Equip[base] = 5 // sheaf sprite
		e.st.Equip[base+1] = 6
		e.st.Equip[base+2] = 1
	} else {
		e.st.Equip[base] = -1
	}
}
