package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/game"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	snapshotDir := flag.String("snapshot-dir", "", "Directory for snapshot files")
	snapshotEvery := flag.Int64("snapshot-every", 0, "Save a snapshot every N frames (0 = bookmarks only)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	loadPath := flag.String("load", "", "Resume from a snapshot file")
	law := flag.String("law", "", "Force law: sph or nbody (empty = use config)")
	seed := flag.Int64("seed", 0, "Scene jitter seed (0 = time-based)")
	maxFrames := flag.Int64("max-frames", 0, "Stop after N solver frames (0 = unlimited)")

	flag.Parse()

	// Set up slog: JSON to stdout headless, text to stderr in the viewer
	var logger *slog.Logger
	if *headless {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:          rngSeed,
		Law:           *law,
		LogStats:      *logStats,
		SnapshotDir:   *snapshotDir,
		SnapshotEvery: *snapshotEvery,
		OutputDir:     *outputDir,
		LoadPath:      *loadPath,
		Headless:      *headless,
	}

	if *headless {
		// Headless mode - no window, runs until max frames or failure
		g, err := game.NewGameWithOptions(opts)
		if err != nil {
			slog.Error("failed to start", "error", err)
			os.Exit(1)
		}
		defer g.Unload()

		slog.Info("starting headless simulation",
			"seed", rngSeed,
			"law", g.Engine().Law().Name(),
			"particles", len(g.Engine().Current()),
			"max_frames", *maxFrames,
			"substeps", cfg.Sim.Substeps,
		)

		for {
			if err := g.UpdateHeadless(); err != nil {
				slog.Error("simulation failed", "frame", g.Frame(), "error", err)
				return
			}

			if *maxFrames > 0 && g.Frame() >= *maxFrames {
				slog.Info("max frames reached", "frame", g.Frame())
				return
			}
		}
	}

	// Graphical mode
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Fluid")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGameWithOptions(opts)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		if err := g.Update(); err != nil {
			slog.Error("frame failed, paused", "frame", g.Frame(), "error", err)
		}
		g.Draw()

		if *maxFrames > 0 && g.Frame() >= *maxFrames {
			break
		}
	}
}
