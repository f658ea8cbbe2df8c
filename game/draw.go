package game

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/holdfast/sim"
)

// groundColor is the town map backdrop.
var groundColor = rl.Color{R: 34, G: 48, B: 36, A: 255}

// Draw renders one frame: backdrop, farms, the instanced NPC layers, HUD and
// debug overlays. No-op in headless mode.
func (g *Game) Draw() {
	if g.feed == nil {
		return
	}
	g.perf.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(groundColor)

	g.drawFarms()
	g.feed.Draw(g.cam, g.gpu.PositionBuffer(), g.gpu.HealthBuffer(), g.st.NPCs.N())

	if g.debugGrid {
		g.drawGridOverlay()
	}
	g.drawSelection()
	g.drawHUD()
	if g.debugMode {
		g.drawDebugPanel()
	}

	rl.EndDrawing()
}

// drawFarms renders farm plots tinted by growth.
func (g *Game) drawFarms() {
	for i := range g.economy.Farms {
		farm := &g.economy.Farms[i]
		if !g.cam.IsVisible(farm.X, farm.Y, 32) {
			continue
		}
		sx, sy := g.cam.WorldToScreen(farm.X, farm.Y)
		size := 48 * g.cam.Zoom
		green := uint8(60 + farm.Growth*140)
		rl.DrawRectangle(int32(sx-size/2), int32(sy-size/2), int32(size), int32(size),
			rl.Color{R: 52, G: green, B: 40, A: 255})
	}
}

// drawGridOverlay shows the spatial grid cells in view.
func (g *Game) drawGridOverlay() {
	cell := float32(g.cfg.Grid.CellSize)
	minX, minY, maxX, maxY := g.cam.VisibleWorldBounds()
	for x := float32(int(minX/cell)) * cell; x < maxX; x += cell {
		sx, _ := g.cam.WorldToScreen(x, 0)
		rl.DrawLine(int32(sx), 0, int32(sx), int32(g.cam.ViewportH), rl.Color{R: 255, G: 255, B: 255, A: 24})
	}
	for y := float32(int(minY/cell)) * cell; y < maxY; y += cell {
		_, sy := g.cam.WorldToScreen(0, y)
		rl.DrawLine(0, int32(sy), int32(g.cam.ViewportW), int32(sy), rl.Color{R: 255, G: 255, B: 255, A: 24})
	}
}

// drawSelection highlights the selected NPC and prints its query view.
func (g *Game) drawSelection() {
	view, ok := g.SelectedView()
	if !ok {
		return
	}
	sx, sy := g.cam.WorldToScreen(view.X, view.Y)
	rl.DrawCircleLines(int32(sx), int32(sy), 12*g.cam.Zoom, rl.Yellow)

	info := fmt.Sprintf("%s L%d  %s  hp %.0f/%.0f  xp %d",
		view.Job, view.Level, view.Activity, view.Health, view.Max, view.XP)
	rl.DrawText(info, 10, int32(g.cam.ViewportH)-30, 18, rl.Yellow)
}

// drawHUD renders the always-on status line.
func (g *Game) drawHUD() {
	snap := g.st.Snap
	rl.DrawText(fmt.Sprintf("Frame: %d", g.st.Frame), 10, 10, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Villagers: %d  Raiders: %d  Arrows: %d",
		snap.AliveByFaction[sim.FactionVillager],
		snap.AliveByFaction[sim.FactionRaider],
		g.st.Proj.Alive()), 10, 35, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Stock: %.0f  Speed: %dx [</>]",
		g.st.Stock[sim.FactionVillager], g.stepsPerFrame), 10, 60, 20, rl.White)
	if g.paused {
		rl.DrawText("PAUSED", 10, 85, 20, rl.Yellow)
	}
}
