package game

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// drawDebugPanel renders the raygui control panel with pipeline stats and
// overlay toggles.
func (g *Game) drawDebugPanel() {
	panelX := g.cam.ViewportW - 230
	panelY := float32(10)

	rl.DrawRectangle(int32(panelX)-10, int32(panelY)-5, 235, 185, rl.Color{R: 0, G: 0, B: 0, A: 180})
	rl.DrawText("DEBUG [D to close]", int32(panelX), int32(panelY), 14, rl.Yellow)

	g.paused = gui.CheckBox(
		rl.Rectangle{X: panelX, Y: panelY + 25, Width: 16, Height: 16},
		"Paused", g.paused)
	g.debugGrid = gui.CheckBox(
		rl.Rectangle{X: panelX, Y: panelY + 50, Width: 16, Height: 16},
		"Grid overlay [G]", g.debugGrid)

	speed := gui.SliderBar(
		rl.Rectangle{X: panelX, Y: panelY + 75, Width: 120, Height: 16},
		"", fmt.Sprintf("speed %dx", g.stepsPerFrame),
		float32(g.stepsPerFrame), 1, 10)
	g.stepsPerFrame = int(speed)
	if g.stepsPerFrame < 1 {
		g.stepsPerFrame = 1
	}

	stats := g.perf.Stats()
	rl.DrawText(fmt.Sprintf("tick %v  tps %.0f",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond),
		int32(panelX), int32(panelY)+100, 12, rl.White)
	rl.DrawText(fmt.Sprintf("pool %d/%d  free %d",
		g.st.NPCs.Alive(), g.st.NPCs.Max(), g.st.NPCs.FreeCount()),
		int32(panelX), int32(panelY)+118, 12, rl.White)
	rl.DrawText(fmt.Sprintf("grid drops %d", g.backend.GridDrops()),
		int32(panelX), int32(panelY)+136, 12, rl.White)
	rl.DrawText(fmt.Sprintf("rebinds %d  stale run %d",
		g.ring.Rebinds(), g.ring.StaleRun()),
		int32(panelX), int32(panelY)+154, 12, rl.White)

	if gui.Button(rl.Rectangle{X: panelX, Y: panelY + 172, Width: 100, Height: 22}, "Perf log") {
		g.logPerfStats()
	}
}
