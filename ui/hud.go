package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Law          string
	Frame        int64
	SimTime      float64
	Count        uint32
	GridDim      uint32
	Substeps     int
	FPS          int32
	OutOfDomain  uint32
	Paused       bool
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct{}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(fmt.Sprintf("Frame: %d  t=%.2fs", data.Frame, data.SimTime), 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("%s | particles: %d | grid: %d", data.Law, data.Count, data.GridDim),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Substeps: %d [</>] | FPS: %d", data.Substeps, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	if data.OutOfDomain > 0 {
		rl.DrawText(fmt.Sprintf("Outside hash domain: %d", data.OutOfDomain), 10, 75, 16, rl.Orange)
	}

	if data.Paused {
		rl.DrawText("PAUSED  [space] run  [n] step  [r] reset", 10, data.ScreenHeight-30, 20, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-50, 14, rl.Gray)
}

// PerfPanel renders per-phase solver timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel. Phases appear in pipeline order;
// phases the active law never runs are skipped.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	pad := r.Theme.Padding

	rows := 0
	for _, phase := range telemetry.Phases {
		if _, ok := stats.PhaseAvg[phase]; ok {
			rows++
		}
	}
	height := pad*2 + r.Theme.LineHeight*int32(rows+3) + 4
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + pad
	y := r.DrawSectionHeader(x, p.y+pad, "Solver Performance")
	y = r.DrawLabelValue(x, y, "frame", fmt.Sprintf("%s (%.0f/s)", stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond))
	y = r.DrawLabelValue(x, y, "min/max", fmt.Sprintf("%s / %s",
		stats.MinTickDuration.Round(time.Microsecond), stats.MaxTickDuration.Round(time.Microsecond)))

	for _, phase := range telemetry.Phases {
		avg, ok := stats.PhaseAvg[phase]
		if !ok {
			continue
		}
		pct := stats.PhasePct[phase]

		color := r.Theme.ValueColor
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}
		rl.DrawText(phase+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
		rl.DrawText(fmt.Sprintf("%8s %5.1f%%", avg.Round(time.Microsecond), pct),
			x+r.Theme.LabelWidth, y, r.Theme.FontSize, color)
		y += r.Theme.LineHeight
	}
}

// DensityPanel renders the density distribution of the latest frame.
type DensityPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewDensityPanel creates a new density panel.
func NewDensityPanel(x, y, width int32) *DensityPanel {
	return &DensityPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (d *DensityPanel) SetPosition(x, y int32) {
	d.x = x
	d.y = y
}

// Draw renders the panel for stats computed against rest density rho0.
func (d *DensityPanel) Draw(stats telemetry.FrameStats, rho0 float32) {
	r := d.renderer
	pad := r.Theme.Padding
	r.DrawPanel(d.x, d.y, d.width, pad*2+r.Theme.LineHeight*7+6)

	x := d.x + pad
	y := r.DrawSectionHeader(x, d.y+pad, "Density")

	ratio := func(v float64) string {
		if rho0 <= 0 {
			return "-"
		}
		return fmt.Sprintf("%.3f", v/float64(rho0))
	}
	y = r.DrawLabelValue(x, y, "p10/rho0", ratio(stats.DensityP10))
	y = r.DrawLabelValue(x, y, "p50/rho0", ratio(stats.DensityP50))
	y = r.DrawLabelValue(x, y, "p90/rho0", ratio(stats.DensityP90))
	y = r.DrawBar(x, y, "compressed", float32(stats.CompressedFrac), 0.5, 0.8, d.width-2*pad)
	r.DrawLabelValue(x, y, "kinetic", fmt.Sprintf("%.4g", stats.KineticEnergy))
}
