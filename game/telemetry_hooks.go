package game

import (
	"log/slog"

	"github.com/pthm-cable/fluid/telemetry"
)

// flushTelemetry records frame stats and perf, then checks for bookmarks.
func (g *Game) flushTelemetry() {
	e := g.engine
	frame := g.Frame()

	stats := telemetry.ComputeFrameStats(frame, e.SimTime(), e.Current(), e.Density(), e.Params().Rho0)
	stats.OutOfDomain = e.OutOfDomain()
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Log stats if enabled (console output)
	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if err := g.outputManager.WriteFrame(stats); err != nil {
		slog.Error("failed to write frame stats", "error", err)
	}
	if err := g.outputManager.WritePerf(perfStats, int32(frame)); err != nil {
		slog.Error("failed to write perf", "error", err)
	}

	// Check for bookmarks
	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.logStats {
			bm.LogBookmark()
		}
		if err := g.outputManager.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}

		// Save snapshot on bookmark
		if g.snapshotDir != "" {
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot creates and saves a snapshot to disk.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	path, err := telemetry.SaveSnapshot(g.createSnapshot(bookmark), g.snapshotDir)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "frame", g.Frame())
}

// createSnapshot builds a snapshot from the published state.
func (g *Game) createSnapshot(bookmark *telemetry.Bookmark) *telemetry.Snapshot {
	e := g.engine
	return &telemetry.Snapshot{
		Version:    telemetry.SnapshotVersion,
		Seed:       g.rngSeed,
		Law:        e.Law().Name(),
		Frame:      g.Frame(),
		SimTimeSec: e.SimTime(),
		Params:     e.Params(),
		Particles:  telemetry.CaptureParticles(e.Current()),
		Bookmark:   bookmark,
	}
}
