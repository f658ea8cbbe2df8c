package compute

import (
	"github.com/pthm-cable/holdfast/sim"
)

// CPUBackend executes the kernel semantics on the CPU. It is the reference
// implementation: the GLSL kernels mirror these functions step for step.
// Used for headless runs, tests, and machines without compute support.
type CPUBackend struct {
	p Params

	// NPC buffers. Positions, arrivals, backoff and targets are owned here;
	// the rest is uploaded each frame.
	posX, posY   []float32
	goalX, goalY []float32
	speed        []float32
	health       []float32
	faction      []int32
	arrived      []int32
	backoff      []int32
	targets      []int32

	// Projectile buffers.
	pPosX, pPosY []float32
	pVelX, pVelY []float32
	pFaction     []int32
	pLifetime    []float32
	pActive      []int32
	hitTarget    []int32
	hitProcessed []int32

	npcGrid  *Grid
	projGrid *Grid
}

// NewCPUBackend allocates all buffers at full capacity.
func NewCPUBackend(p Params) *CPUBackend {
	maxN := int(p.MaxNPCs)
	maxP := int(p.MaxProj)
	b := &CPUBackend{
		p:       p,
		posX:    make([]float32, maxN),
		posY:    make([]float32, maxN),
		goalX:   make([]float32, maxN),
		goalY:   make([]float32, maxN),
		speed:   make([]float32, maxN),
		health:  make([]float32, maxN),
		faction: make([]int32, maxN),
		arrived: make([]int32, maxN),
		backoff: make([]int32, maxN),
		targets: make([]int32, maxN),

		pPosX:        make([]float32, maxP),
		pPosY:        make([]float32, maxP),
		pVelX:        make([]float32, maxP),
		pVelY:        make([]float32, maxP),
		pFaction:     make([]int32, maxP),
		pLifetime:    make([]float32, maxP),
		hitTarget:    make([]int32, maxP),
		hitProcessed: make([]int32, maxP),
		pActive:      make([]int32, maxP),

	}
	b.npcGrid = NewGrid(&b.p)
	b.projGrid = NewGrid(&b.p)
	for i := range b.posX {
		b.posX[i] = sim.TombstoneX
		b.posY[i] = sim.TombstoneX
		b.targets[i] = sim.NoTarget
		b.faction[i] = sim.FactionNeutral
	}
	for j := range b.pPosX {
		b.pPosX[j] = sim.TombstoneX
		b.pPosY[j] = sim.TombstoneX
		b.hitTarget[j] = sim.HitNone
	}
	return b
}

// Upload implements Backend.
func (b *CPUBackend) Upload(st *sim.State) {
	n := int(st.NPCs.N())
	copy(b.goalX[:n], st.GoalX[:n])
	copy(b.goalY[:n], st.GoalY[:n])
	copy(b.speed[:n], st.Speed[:n])
	copy(b.health[:n], st.Health[:n])
	copy(b.faction[:n], st.Faction[:n])

	for _, slot := range st.DirtyNPCs {
		b.posX[slot] = st.SpawnX[slot]
		b.posY[slot] = st.SpawnY[slot]
		b.arrived[slot] = 0
		b.backoff[slot] = 0
		b.targets[slot] = sim.NoTarget
	}
	st.DirtyNPCs = st.DirtyNPCs[:0]

	for _, slot := range st.DirtyProj {
		b.pPosX[slot] = st.PPosX[slot]
		b.pPosY[slot] = st.PPosY[slot]
		b.pVelX[slot] = st.PVelX[slot]
		b.pVelY[slot] = st.PVelY[slot]
		b.pFaction[slot] = st.PFaction[slot]
		b.pLifetime[slot] = st.PLifetime[slot]
		b.pActive[slot] = st.PActive[slot]
		b.hitTarget[slot] = sim.HitNone
		b.hitProcessed[slot] = 0
	}
	st.DirtyProj = st.DirtyProj[:0]
}

// Dispatch implements Backend: NPC modes 0-2, then projectile modes 0-2.
func (b *CPUBackend) Dispatch(n, m int32, dt float32) error {
	b.npcGrid.Clear()
	for i := int32(0); i < n; i++ {
		if b.posX[i] < sim.TombstoneThreshold {
			continue
		}
		b.npcGrid.Insert(i, b.posX[i], b.posY[i])
	}
	for i := int32(0); i < n; i++ {
		b.simulateNPC(i, dt)
	}
	b.projGrid.Clear()
	for j := int32(0); j < m; j++ {
		if b.pActive[j] == 0 || b.pPosX[j] < sim.TombstoneThreshold {
			continue
		}
		b.projGrid.Insert(j, b.pPosX[j], b.pPosY[j])
	}
	for j := int32(0); j < m; j++ {
		b.stepProjectile(j, dt)
	}
	return nil
}

// ReadPositions implements Backend.
func (b *CPUBackend) ReadPositions(dstX, dstY []float32, n int32) error {
	copy(dstX[:n], b.posX[:n])
	copy(dstY[:n], b.posY[:n])
	return nil
}

// ReadHealths implements Backend.
func (b *CPUBackend) ReadHealths(dst []float32, n int32) error {
	copy(dst[:n], b.health[:n])
	return nil
}

// ReadTargets implements Backend.
func (b *CPUBackend) ReadTargets(dst []int32, n int32) error {
	copy(dst[:n], b.targets[:n])
	return nil
}

// ReadFactions implements Backend.
func (b *CPUBackend) ReadFactions(dst []int32, n int32) error {
	copy(dst[:n], b.faction[:n])
	return nil
}

// ReadHits implements Backend.
func (b *CPUBackend) ReadHits(dstTarget, dstProcessed []int32, m int32) error {
	copy(dstTarget[:m], b.hitTarget[:m])
	copy(dstProcessed[:m], b.hitProcessed[:m])
	return nil
}

// GridDrops implements Backend.
func (b *CPUBackend) GridDrops() int64 {
	return b.npcGrid.Drops + b.projGrid.Drops
}

// Close implements Backend.
func (b *CPUBackend) Close() {}
