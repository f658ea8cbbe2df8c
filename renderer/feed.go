package renderer

import (
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/camera"
	"github.com/pthm-cable/holdfast/sim"
)

// GL usage hint rlgl does not name.
const glDynamicDraw int32 = 0x88E8

// Binding points for the render side-channel; position/health reuse the
// compute bindings.
const (
	visualBinding = 20
	equipBinding  = 21
)

// drawLayers is body plus the six equipment layers.
const drawLayers = 1 + sim.EquipLayers

// Feed owns the render side-channel buffers and issues the instanced draws.
// Positions and healths are bound straight from the compute buffer set; the
// CPU only uploads visual[N*8] and equip[N*24] each frame.
type Feed struct {
	shader rl.Shader

	visualBuf uint32
	equipBuf  uint32

	mesh       rl.Mesh
	material   rl.Material
	transforms []rl.Matrix

	locCamOrigin int32
	locCamZoom   int32
	locViewport  int32
	locLayer     int32

	maxSlots int
}

// NewFeed compiles the instanced NPC shader and allocates the side-channel
// buffers at full capacity.
func NewFeed(maxSlots int) *Feed {
	f := &Feed{maxSlots: maxSlots}

	f.shader = rl.LoadShaderFromMemory(npcVertexShader, npcFragmentShader)
	f.locCamOrigin = rl.GetShaderLocation(f.shader, "camOrigin")
	f.locCamZoom = rl.GetShaderLocation(f.shader, "camZoom")
	f.locViewport = rl.GetShaderLocation(f.shader, "viewport")
	f.locLayer = rl.GetShaderLocation(f.shader, "layerIndex")

	f.visualBuf = rl.LoadShaderBuffer(uint32(maxSlots*sim.VisualStride)*4, nil, glDynamicDraw)
	f.equipBuf = rl.LoadShaderBuffer(uint32(maxSlots*sim.EquipStride)*4, nil, glDynamicDraw)

	// Unit quad; the vertex shader derives the actual corners from the
	// texcoords, the transforms are identity and unused.
	f.mesh = rl.GenMeshPlane(1, 1, 1, 1)
	f.material = rl.LoadMaterialDefault()
	f.material.Shader = f.shader
	f.transforms = make([]rl.Matrix, maxSlots)
	identity := rl.MatrixIdentity()
	for i := range f.transforms {
		f.transforms[i] = identity
	}

	return f
}

// Upload pushes this frame's visual and equipment strips: two buffer writes
// sized to [0, N).
func (f *Feed) Upload(st *sim.State) {
	n := int(st.NPCs.N())
	if n == 0 {
		return
	}
	rl.UpdateShaderBuffer(f.visualBuf, unsafe.Pointer(&st.Visual[0]), uint32(n*sim.VisualStride)*4, 0)
	rl.UpdateShaderBuffer(f.equipBuf, unsafe.Pointer(&st.Equip[0]), uint32(n*sim.EquipStride)*4, 0)
}

// Draw issues one instanced draw per layer: layer 0 is the body from the
// visual strip, layers 1..6 the equipment strip. Each draw runs N instances;
// the shader derives the slot from the instance index.
func (f *Feed) Draw(cam *camera.Camera, posBuf, healthBuf uint32, n int32) {
	if n <= 0 {
		return
	}

	rl.BindShaderBuffer(posBuf, 0)
	rl.BindShaderBuffer(healthBuf, 3)
	rl.BindShaderBuffer(f.visualBuf, visualBinding)
	rl.BindShaderBuffer(f.equipBuf, equipBinding)

	u := cam.UniformBlock(n)
	origin := []float32{u.OriginX, u.OriginY}
	viewport := []float32{u.ViewportW, u.ViewportH}
	zoom := []float32{u.Zoom}
	rl.SetShaderValue(f.shader, f.locCamOrigin, origin, rl.ShaderUniformVec2)
	rl.SetShaderValue(f.shader, f.locCamZoom, zoom, rl.ShaderUniformFloat)
	rl.SetShaderValue(f.shader, f.locViewport, viewport, rl.ShaderUniformVec2)

	for layer := 0; layer < drawLayers; layer++ {
		rl.SetShaderValue(f.shader, f.locLayer, []float32{float32(layer)}, rl.ShaderUniformFloat)
		rl.DrawMeshInstanced(f.mesh, f.material, f.transforms[:n], int(n))
	}
}

// Unload releases GPU resources.
func (f *Feed) Unload() {
	rl.UnloadShaderBuffer(f.visualBuf)
	rl.UnloadShaderBuffer(f.equipBuf)
	rl.UnloadMesh(&f.mesh)
	rl.UnloadShader(f.shader)
}
