// Package game drives the solver: it builds the initial scene, steps the
// engine, records telemetry and, in viewer mode, handles input and drawing.
package game

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/fluid/camera"
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/renderer"
	"github.com/pthm-cable/fluid/scene"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
	"github.com/pthm-cable/fluid/ui"
)

// Options configures a run.
type Options struct {
	Seed          int64
	Law           string // overrides sim.law when set
	LogStats      bool
	SnapshotDir   string
	SnapshotEvery int64 // frames between periodic snapshots, 0 disables
	OutputDir     string
	LoadPath      string // snapshot to resume from
	Headless      bool
}

// Game holds the complete run state.
type Game struct {
	cfg    *config.Config
	engine *sim.Engine

	// Initial state, restored by Reset
	initial []components.Particle

	// Rendering (nil when headless)
	camera             *camera.Camera
	backgroundRenderer *renderer.BackgroundRenderer
	particleRenderer   *renderer.ParticleRenderer

	// UI (nil when headless)
	hud          *ui.HUD
	perfPanel    *ui.PerfPanel
	densityPanel *ui.DensityPanel
	showPanels   bool

	// Telemetry
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager
	logStats         bool
	statsEvery       int64
	lastStats        telemetry.FrameStats

	// Snapshots
	snapshotDir   string
	snapshotEvery int64
	rngSeed       int64

	// frameBase is the frame the run resumed from
	frameBase int64

	// State
	paused   bool
	headless bool
	substeps int
	pointer  struct {
		x, y    float32
		pressed bool
	}

	// Window dimensions
	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a run from the global configuration.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := config.Cfg()

	g := &Game{
		cfg:              cfg,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		logStats:         opts.LogStats,
		statsEvery:       int64(cfg.Telemetry.StatsEvery),
		snapshotDir:      opts.SnapshotDir,
		snapshotEvery:    opts.SnapshotEvery,
		rngSeed:          opts.Seed,
		headless:         opts.Headless,
		paused:           cfg.Screen.StartPaused && !opts.Headless,
		substeps:         max(cfg.Sim.Substeps, 1),
		screenWidth:      cfg.Derived.ScreenW32,
		screenHeight:     cfg.Derived.ScreenH32,
	}

	law := cfg.Sim.Law
	if opts.Law != "" {
		law = opts.Law
	}

	var params components.SimParams
	if opts.LoadPath != "" {
		snap, err := telemetry.LoadSnapshot(opts.LoadPath)
		if err != nil {
			return nil, err
		}
		g.initial = snap.RestoreParticles()
		params = snap.Params
		g.frameBase = snap.Frame
		g.rngSeed = snap.Seed
		if opts.Law == "" && snap.Law != "" {
			law = snap.Law
		}
		slog.Info("resuming from snapshot", "path", opts.LoadPath, "frame", snap.Frame, "particles", len(g.initial))
	} else {
		b := scene.FromConfig(&cfg.Scene, g.rngSeed)
		g.initial = b.Build()
		params = sim.ParamsFromConfig(cfg, len(g.initial))
	}

	capacity := cfg.Sim.Capacity
	if capacity == 0 {
		capacity = len(g.initial)
	}

	engineOpts := sim.OptionsFromConfig(cfg, capacity)
	engineOpts.Law = law
	engineOpts.Logger = slog.Default()
	engineOpts.Perf = g.perfCollector

	engine, err := sim.New(engineOpts)
	if err != nil {
		return nil, fmt.Errorf("creating engine: %w", err)
	}
	if err := engine.SetParams(params); err != nil {
		engine.Close()
		return nil, fmt.Errorf("setting params: %w", err)
	}
	if err := engine.Reset(g.initial); err != nil {
		engine.Close()
		return nil, fmt.Errorf("uploading initial state: %w", err)
	}
	g.engine = engine

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		engine.Close()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	if err := om.WriteParams(params); err != nil {
		slog.Error("failed to write params", "error", err)
	}

	if !opts.Headless {
		g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.Screen.Zoom))
		g.backgroundRenderer = renderer.NewBackgroundRenderer(int32(g.screenWidth), int32(g.screenHeight))
		g.particleRenderer = renderer.NewParticleRenderer(float32(cfg.Screen.ParticleRadius))
		g.hud = ui.NewHUD()
		g.perfPanel = ui.NewPerfPanel(int32(g.screenWidth)-270, 10, 260)
		g.densityPanel = ui.NewDensityPanel(int32(g.screenWidth)-270, 200, 260)
	}

	return g, nil
}

// Frame returns the current frame number, counting frames before a resume.
func (g *Game) Frame() int64 { return g.frameBase + g.engine.Frame() }

// Engine returns the solver engine.
func (g *Game) Engine() *sim.Engine { return g.engine }

// UpdateHeadless advances one rendered frame's worth of solver frames.
func (g *Game) UpdateHeadless() error {
	return g.step()
}

// Update handles input and, unless paused, advances the solver. A failed
// frame pauses the viewer on the last published state.
func (g *Game) Update() error {
	g.handleInput()

	if g.paused {
		return nil
	}
	if err := g.step(); err != nil {
		g.paused = true
		return err
	}
	return nil
}

// step runs the configured substeps, recording telemetry after each frame.
func (g *Game) step() error {
	g.engine.SetPointer(g.pointer.x, g.pointer.y, g.pointer.pressed)
	for i := 0; i < g.substeps; i++ {
		if err := g.engine.Step(); err != nil {
			return err
		}
		g.afterFrame()
	}
	return nil
}

// afterFrame runs the per-frame telemetry cadence.
func (g *Game) afterFrame() {
	frame := g.Frame()
	if g.statsEvery > 0 && frame%g.statsEvery == 0 {
		g.flushTelemetry()
	}
	if g.snapshotDir != "" && g.snapshotEvery > 0 && frame%g.snapshotEvery == 0 {
		g.saveSnapshot(nil)
	}
}

// Reset restores the initial state.
func (g *Game) Reset() {
	if err := g.engine.Reset(g.initial); err != nil {
		slog.Error("failed to reset", "error", err)
		return
	}
	g.frameBase = 0
	slog.Info("reset", "particles", len(g.initial))
}

// Unload releases resources and flushes output.
func (g *Game) Unload() {
	g.engine.Close()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
