package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkSplash      BookmarkType = "splash"
	BookmarkCompression BookmarkType = "compression_peak"
	BookmarkSettled     BookmarkType = "settled"
	BookmarkEscape      BookmarkType = "domain_escape"
	BookmarkBlowup      BookmarkType = "blowup"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Frame       int64        `csv:"frame"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	level := slog.LevelInfo
	if b.Type == BookmarkBlowup || b.Type == BookmarkEscape {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "bookmark",
		"type", string(b.Type),
		"frame", b.Frame,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in a run from its frame stats.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []FrameStats
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	stableCount int  // consecutive records with steady kinetic energy
	escaped     bool // domain escape already reported
	blownUp     bool // blowup already reported
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for settle detection
	}
	return &BookmarkDetector{
		history:     make([]FrameStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats FrameStats) []Bookmark {
	var bookmarks []Bookmark

	// Non-finite energy means the step diverged
	if b := bd.checkBlowup(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if b := bd.checkEscape(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	if bd.historyFull || bd.historyIdx > 0 {
		// Splash: kinetic energy > 2x rolling average
		if b := bd.checkSplash(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Compression peak: max density > 2x rolling average
		if b := bd.checkCompression(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}

		// Settled: kinetic energy steady over 5 records
		if b := bd.checkSettled(stats); b != nil {
			bookmarks = append(bookmarks, *b)
		}
	}

	bd.addToHistory(stats)
	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats FrameStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []FrameStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkBlowup(stats FrameStats) *Bookmark {
	if bd.blownUp {
		return nil
	}
	ke := stats.KineticEnergy
	if !math.IsNaN(ke) && !math.IsInf(ke, 0) {
		return nil
	}
	bd.blownUp = true
	return &Bookmark{
		Type:        BookmarkBlowup,
		Frame:       stats.Frame,
		Description: fmt.Sprintf("Kinetic energy is %v", ke),
	}
}

func (bd *BookmarkDetector) checkEscape(stats FrameStats) *Bookmark {
	if bd.escaped || stats.OutOfDomain == 0 {
		return nil
	}
	bd.escaped = true
	return &Bookmark{
		Type:        BookmarkEscape,
		Frame:       stats.Frame,
		Description: fmt.Sprintf("%d particles left the hashable domain", stats.OutOfDomain),
	}
}

func (bd *BookmarkDetector) checkSplash(stats FrameStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.KineticEnergy
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.KineticEnergy > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkSplash,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Kinetic energy %.3g is %.1fx average (%.3g)", stats.KineticEnergy, stats.KineticEnergy/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkCompression(stats FrameStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.DensityMax
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if stats.DensityMax > avg*2.0 {
		return &Bookmark{
			Type:        BookmarkCompression,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Max density %.3g is %.1fx average (%.3g)", stats.DensityMax, stats.DensityMax/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSettled(stats FrameStats) *Bookmark {
	if stats.Count == 0 {
		bd.stableCount = 0
		return nil
	}

	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := history[len(history)-4:]
	var sum float64
	for _, h := range recent {
		sum += h.KineticEnergy
	}
	mean := sum / 4

	var variance float64
	for _, h := range recent {
		d := h.KineticEnergy - mean
		variance += d * d
	}
	variance /= 4

	// CV^2 < 0.01 means CV < 0.1
	cv2 := 0.0
	if mean > 0 {
		cv2 = variance / (mean * mean)
	}
	if cv2 < 0.01 {
		bd.stableCount++
	} else {
		bd.stableCount = 0
	}

	if bd.stableCount == 5 { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkSettled,
			Frame:       stats.Frame,
			Description: fmt.Sprintf("Kinetic energy steady near %.3g over 5+ records", mean),
		}
	}
	return nil
}
