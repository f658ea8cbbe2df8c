package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/sim"
)

// cameraPanSpeed is in screen pixels per frame at 1x zoom.
const cameraPanSpeed = 12.0

// selectRadius is the click pick radius in world units.
const selectRadius = 16.0

// handleInput processes keyboard and mouse input. No-op in headless mode.
func (g *Game) handleInput() {
	if g.feed == nil {
		return
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}

	// Speed control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerFrame > 1 {
		g.stepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerFrame < 10 {
		g.stepsPerFrame++
	}

	if rl.IsKeyPressed(rl.KeyD) {
		g.debugMode = !g.debugMode
	}
	if g.debugMode && rl.IsKeyPressed(rl.KeyG) {
		g.debugGrid = !g.debugGrid
	}

	// Camera pan
	if rl.IsKeyDown(rl.KeyRight) {
		g.cam.Pan(cameraPanSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.cam.Pan(-cameraPanSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.cam.Pan(0, cameraPanSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.cam.Pan(0, -cameraPanSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseMiddleButton) {
		delta := rl.GetMouseDelta()
		g.cam.Pan(-delta.X, -delta.Y)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		g.cam.Reset()
	}

	// Click selection against the one-frame-stale snapshot.
	if rl.IsMouseButtonPressed(rl.MouseLeftButton) {
		mouse := rl.GetMousePosition()
		wx, wy := g.cam.ScreenToWorld(mouse.X, mouse.Y)
		g.selected = g.pickNPC(wx, wy)
	}
}

// pickNPC returns the nearest live slot within selectRadius of a world
// point, or -1. Positions are one frame stale by design.
func (g *Game) pickNPC(wx, wy float32) int32 {
	st := g.st
	best := int32(-1)
	bestD2 := float32(selectRadius * selectRadius)
	n := st.NPCs.N()
	for i := int32(0); i < n; i++ {
		if !st.Alive(i) {
			continue
		}
		dx := st.Snap.PosX[i] - wx
		dy := st.Snap.PosY[i] - wy
		if d2 := dx*dx + dy*dy; d2 < bestD2 {
			best = i
			bestD2 = d2
		}
	}
	return best
}

// SelectedView returns the query-surface view of the selected NPC.
func (g *Game) SelectedView() (sim.NPCView, bool) {
	if g.selected < 0 {
		return sim.NPCView{}, false
	}
	return g.st.View(g.selected)
}
