package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/ui"
)

const controlsLegend = "[space] pause  [p] panels  [lmb] push  [rmb] pan  [wheel] zoom  [home] recenter"

// Draw renders the published particle buffer and the HUD.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.backgroundRenderer.Draw()

	if floor := g.cfg.Sim.Floor; floor.Enabled {
		g.particleRenderer.DrawFloor(g.camera, float32(floor.Y))
	}

	e := g.engine
	g.particleRenderer.Draw(g.camera, e.Current(), e.Density(), e.Params().Rho0)

	if g.pointer.pressed {
		g.particleRenderer.DrawPointer(g.camera, g.pointer.x, g.pointer.y, float32(g.cfg.Interaction.Radius))
	}

	p := e.Params()
	g.hud.Draw(ui.HUDData{
		Law:          e.Law().Name(),
		Frame:        g.Frame(),
		SimTime:      e.SimTime(),
		Count:        p.Count,
		GridDim:      p.GridDim,
		Substeps:     g.substeps,
		FPS:          rl.GetFPS(),
		OutOfDomain:  e.OutOfDomain(),
		Paused:       g.paused,
		ScreenHeight: int32(g.screenHeight),
	})
	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	if g.showPanels {
		g.perfPanel.Draw(g.perfCollector.Stats())
		if e.Density() != nil {
			g.densityPanel.Draw(g.lastStats, p.Rho0)
		}
	}

	rl.EndDrawing()
}
