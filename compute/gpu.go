package compute

import (
	"fmt"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/sim"
)

// GL enums rlgl expects but does not name.
const (
	glComputeShader int32 = 0x91B9
	glDynamicCopy   int32 = 0x88EA
)

// GPUBackend runs both kernels as rlgl compute shaders over a shared SSBO
// set. Scalar SoA arrays are interleaved into vec2/ivec2 buffers at the
// upload boundary; the Backend surface stays scalar.
type GPUBackend struct {
	p Params

	npcProgram  uint32
	projProgram uint32

	// NPC buffers.
	posBuf       uint32 // vec2
	goalBuf      uint32 // vec2
	speedBuf     uint32
	healthBuf    uint32
	factionBuf   uint32
	moveStateBuf uint32 // ivec2: arrived, backoff
	targetBuf    uint32

	// Grids.
	npcGridCountBuf  uint32
	npcGridDataBuf   uint32
	projGridCountBuf uint32
	projGridDataBuf  uint32

	// Projectile buffers.
	projPosBuf  uint32 // vec2
	projVelBuf  uint32 // vec2
	projMetaBuf uint32 // ivec2: faction, active
	projLifeBuf uint32
	hitBuf      uint32 // ivec2: target, processed

	simBuf  uint32
	dropBuf uint32

	// Interleave scratch, reused every frame.
	vec2Scratch  []float32
	ivec2Scratch []int32
	dropScratch  [2]uint32

	drops int64
}

// simUniforms matches the SimBuf block in both kernels.
type simUniforms struct {
	Mode  uint32
	NPCN  uint32
	ProjN uint32
	DT    float32
}

// NewGPUBackend compiles both kernels and allocates every buffer at MAX.
// Requires an active raylib GL context. Compilation failure returns
// ErrShaderValidation.
func NewGPUBackend(p Params) (*GPUBackend, error) {
	b := &GPUBackend{p: p}

	npcShader := rl.CompileShader(NPCShaderSource(&p), glComputeShader)
	if npcShader == 0 {
		return nil, fmt.Errorf("%w: npc kernel", ErrShaderValidation)
	}
	b.npcProgram = rl.LoadComputeShaderProgram(npcShader)
	if b.npcProgram == 0 {
		return nil, fmt.Errorf("%w: npc kernel link", ErrShaderValidation)
	}

	projShader := rl.CompileShader(ProjShaderSource(&p), glComputeShader)
	if projShader == 0 {
		return nil, fmt.Errorf("%w: projectile kernel", ErrShaderValidation)
	}
	b.projProgram = rl.LoadComputeShaderProgram(projShader)
	if b.projProgram == 0 {
		return nil, fmt.Errorf("%w: projectile kernel link", ErrShaderValidation)
	}

	maxN := uint32(p.MaxNPCs)
	maxP := uint32(p.MaxProj)
	cells := uint32(p.CellCount())
	perCell := uint32(p.MaxPerCell)

	b.posBuf = allocBuf(maxN * 8)
	b.goalBuf = allocBuf(maxN * 8)
	b.speedBuf = allocBuf(maxN * 4)
	b.healthBuf = allocBuf(maxN * 4)
	b.factionBuf = allocBuf(maxN * 4)
	b.moveStateBuf = allocBuf(maxN * 8)
	b.targetBuf = allocBuf(maxN * 4)

	b.npcGridCountBuf = allocBuf(cells * 4)
	b.npcGridDataBuf = allocBuf(cells * perCell * 4)
	b.projGridCountBuf = allocBuf(cells * 4)
	b.projGridDataBuf = allocBuf(cells * perCell * 4)

	b.projPosBuf = allocBuf(maxP * 8)
	b.projVelBuf = allocBuf(maxP * 8)
	b.projMetaBuf = allocBuf(maxP * 8)
	b.projLifeBuf = allocBuf(maxP * 4)
	b.hitBuf = allocBuf(maxP * 8)

	b.simBuf = allocBuf(uint32(unsafe.Sizeof(simUniforms{})))
	b.dropBuf = allocBuf(8)

	scratch := int(maxN)
	if int(maxP) > scratch {
		scratch = int(maxP)
	}
	b.vec2Scratch = make([]float32, scratch*2)
	b.ivec2Scratch = make([]int32, scratch*2)

	b.seedTombstones()
	return b, nil
}

func allocBuf(size uint32) uint32 {
	return rl.LoadShaderBuffer(size, nil, glDynamicCopy)
}

// seedTombstones parks every slot so dispatches over unspawned ranges no-op.
func (b *GPUBackend) seedTombstones() {
	for i := range b.vec2Scratch {
		b.vec2Scratch[i] = sim.TombstoneX
	}
	nN := uint32(b.p.MaxNPCs) * 8
	rl.UpdateShaderBuffer(b.posBuf, unsafe.Pointer(&b.vec2Scratch[0]), nN, 0)
	rl.UpdateShaderBuffer(b.goalBuf, unsafe.Pointer(&b.vec2Scratch[0]), nN, 0)
	rl.UpdateShaderBuffer(b.projPosBuf, unsafe.Pointer(&b.vec2Scratch[0]), uint32(b.p.MaxProj)*8, 0)

	nP := int(b.p.MaxProj) * 2
	for i := 0; i < nP; i += 2 {
		b.ivec2Scratch[i] = sim.HitNone
		b.ivec2Scratch[i+1] = 0
	}
	rl.UpdateShaderBuffer(b.hitBuf, unsafe.Pointer(&b.ivec2Scratch[0]), uint32(nP)*4, 0)
}

// Upload implements Backend.
func (b *GPUBackend) Upload(st *sim.State) {
	n := st.NPCs.N()
	if n > 0 {
		interleave2(b.vec2Scratch, st.GoalX, st.GoalY, int(n))
		rl.UpdateShaderBuffer(b.goalBuf, unsafe.Pointer(&b.vec2Scratch[0]), uint32(n)*8, 0)
		rl.UpdateShaderBuffer(b.speedBuf, unsafe.Pointer(&st.Speed[0]), uint32(n)*4, 0)
		rl.UpdateShaderBuffer(b.healthBuf, unsafe.Pointer(&st.Health[0]), uint32(n)*4, 0)
		rl.UpdateShaderBuffer(b.factionBuf, unsafe.Pointer(&st.Faction[0]), uint32(n)*4, 0)
	}

	// Dirty slots: spawn/tombstone position rewrites plus state resets.
	for _, slot := range st.DirtyNPCs {
		pair := [2]float32{st.SpawnX[slot], st.SpawnY[slot]}
		rl.UpdateShaderBuffer(b.posBuf, unsafe.Pointer(&pair[0]), 8, uint32(slot)*8)
		ms := [2]int32{0, 0}
		rl.UpdateShaderBuffer(b.moveStateBuf, unsafe.Pointer(&ms[0]), 8, uint32(slot)*8)
		tgt := sim.NoTarget
		rl.UpdateShaderBuffer(b.targetBuf, unsafe.Pointer(&tgt), 4, uint32(slot)*4)
	}
	st.DirtyNPCs = st.DirtyNPCs[:0]

	for _, slot := range st.DirtyProj {
		pos := [2]float32{st.PPosX[slot], st.PPosY[slot]}
		rl.UpdateShaderBuffer(b.projPosBuf, unsafe.Pointer(&pos[0]), 8, uint32(slot)*8)
		vel := [2]float32{st.PVelX[slot], st.PVelY[slot]}
		rl.UpdateShaderBuffer(b.projVelBuf, unsafe.Pointer(&vel[0]), 8, uint32(slot)*8)
		meta := [2]int32{st.PFaction[slot], st.PActive[slot]}
		rl.UpdateShaderBuffer(b.projMetaBuf, unsafe.Pointer(&meta[0]), 8, uint32(slot)*8)
		rl.UpdateShaderBuffer(b.projLifeBuf, unsafe.Pointer(&st.PLifetime[slot]), 4, uint32(slot)*4)
		hit := [2]int32{sim.HitNone, 0}
		rl.UpdateShaderBuffer(b.hitBuf, unsafe.Pointer(&hit[0]), 8, uint32(slot)*8)
	}
	st.DirtyProj = st.DirtyProj[:0]
}

// bindCommon binds the buffers both kernels share.
func (b *GPUBackend) bindCommon() {
	rl.BindShaderBuffer(b.posBuf, 0)
	rl.BindShaderBuffer(b.healthBuf, 3)
	rl.BindShaderBuffer(b.factionBuf, 4)
	rl.BindShaderBuffer(b.npcGridCountBuf, 7)
	rl.BindShaderBuffer(b.npcGridDataBuf, 8)
	rl.BindShaderBuffer(b.projGridCountBuf, 9)
	rl.BindShaderBuffer(b.projGridDataBuf, 10)
	rl.BindShaderBuffer(b.projPosBuf, 11)
	rl.BindShaderBuffer(b.projVelBuf, 12)
	rl.BindShaderBuffer(b.projMetaBuf, 13)
	rl.BindShaderBuffer(b.simBuf, 14)
	rl.BindShaderBuffer(b.dropBuf, 15)
}

// Dispatch implements Backend: NPC modes 0-2 then projectile modes 0-2.
// Each mode is its own dispatch so storage writes of one pass are flushed
// before the next pass reads them.
func (b *GPUBackend) Dispatch(n, m int32, dt float32) error {
	if b.npcProgram == 0 || b.projProgram == 0 {
		return ErrDeviceLost
	}

	cells := b.p.CellCount()

	rl.EnableShader(b.npcProgram)
	b.bindCommon()
	rl.BindShaderBuffer(b.goalBuf, 1)
	rl.BindShaderBuffer(b.speedBuf, 2)
	rl.BindShaderBuffer(b.moveStateBuf, 5)
	rl.BindShaderBuffer(b.targetBuf, 6)

	b.setUniforms(0, n, m, dt)
	rl.ComputeShaderDispatch(groups(cells), 1, 1)
	b.setUniforms(1, n, m, dt)
	rl.ComputeShaderDispatch(groups(n), 1, 1)
	b.setUniforms(2, n, m, dt)
	rl.ComputeShaderDispatch(groups(n), 1, 1)
	rl.DisableShader()

	rl.EnableShader(b.projProgram)
	b.bindCommon()
	rl.BindShaderBuffer(b.projLifeBuf, 16)
	rl.BindShaderBuffer(b.hitBuf, 17)

	b.setUniforms(0, n, m, dt)
	rl.ComputeShaderDispatch(groups(cells), 1, 1)
	b.setUniforms(1, n, m, dt)
	rl.ComputeShaderDispatch(groups(m), 1, 1)
	b.setUniforms(2, n, m, dt)
	rl.ComputeShaderDispatch(groups(m), 1, 1)
	rl.DisableShader()

	// Accumulate grid overflow counters.
	rl.ReadShaderBuffer(b.dropBuf, unsafe.Pointer(&b.dropScratch[0]), 8, 0)
	b.drops = int64(b.dropScratch[0]) + int64(b.dropScratch[1])
	return nil
}

// setUniforms rewrites the sim uniform block for the next dispatch.
func (b *GPUBackend) setUniforms(mode uint32, n, m int32, dt float32) {
	u := simUniforms{Mode: mode, NPCN: uint32(n), ProjN: uint32(m), DT: dt}
	rl.UpdateShaderBuffer(b.simBuf, unsafe.Pointer(&u), uint32(unsafe.Sizeof(u)), 0)
}

func groups(count int32) uint32 {
	if count <= 0 {
		return 1
	}
	return uint32((count + workgroupSize - 1) / workgroupSize)
}

// ReadPositions implements Backend.
func (b *GPUBackend) ReadPositions(dstX, dstY []float32, n int32) error {
	if n <= 0 {
		return nil
	}
	rl.ReadShaderBuffer(b.posBuf, unsafe.Pointer(&b.vec2Scratch[0]), uint32(n)*8, 0)
	deinterleave2(dstX, dstY, b.vec2Scratch, int(n))
	return nil
}

// ReadHealths implements Backend.
func (b *GPUBackend) ReadHealths(dst []float32, n int32) error {
	if n <= 0 {
		return nil
	}
	rl.ReadShaderBuffer(b.healthBuf, unsafe.Pointer(&dst[0]), uint32(n)*4, 0)
	return nil
}

// ReadTargets implements Backend.
func (b *GPUBackend) ReadTargets(dst []int32, n int32) error {
	if n <= 0 {
		return nil
	}
	rl.ReadShaderBuffer(b.targetBuf, unsafe.Pointer(&dst[0]), uint32(n)*4, 0)
	return nil
}

// ReadFactions implements Backend.
func (b *GPUBackend) ReadFactions(dst []int32, n int32) error {
	if n <= 0 {
		return nil
	}
	rl.ReadShaderBuffer(b.factionBuf, unsafe.Pointer(&dst[0]), uint32(n)*4, 0)
	return nil
}

// ReadHits implements Backend.
func (b *GPUBackend) ReadHits(dstTarget, dstProcessed []int32, m int32) error {
	if m <= 0 {
		return nil
	}
	rl.ReadShaderBuffer(b.hitBuf, unsafe.Pointer(&b.ivec2Scratch[0]), uint32(m)*8, 0)
	for j := 0; j < int(m); j++ {
		dstTarget[j] = b.ivec2Scratch[j*2]
		dstProcessed[j] = b.ivec2Scratch[j*2+1]
	}
	return nil
}

// GridDrops implements Backend.
func (b *GPUBackend) GridDrops() int64 {
	return b.drops
}

// Close implements Backend.
func (b *GPUBackend) Close() {
	for _, id := range []uint32{
		b.posBuf, b.goalBuf, b.speedBuf, b.healthBuf, b.factionBuf,
		b.moveStateBuf, b.targetBuf,
		b.npcGridCountBuf, b.npcGridDataBuf, b.projGridCountBuf, b.projGridDataBuf,
		b.projPosBuf, b.projVelBuf, b.projMetaBuf, b.projLifeBuf, b.hitBuf,
		b.simBuf, b.dropBuf,
	} {
		rl.UnloadShaderBuffer(id)
	}
}

// PositionBuffer exposes the GPU-owned position SSBO for the render feed.
func (b *GPUBackend) PositionBuffer() uint32 { return b.posBuf }

// HealthBuffer exposes the health SSBO for the render feed.
func (b *GPUBackend) HealthBuffer() uint32 { return b.healthBuf }

func interleave2(dst, x, y []float32, n int) {
	for i := 0; i < n; i++ {
		dst[i*2] = x[i]
		dst[i*2+1] = y[i]
	}
}

func deinterleave2(dstX, dstY, src []float32, n int) {
	for i := 0; i < n; i++ {
		dstX[i] = src[i*2]
		dstY[i] = src[i*2+1]
	}
}
