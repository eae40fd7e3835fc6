package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/fluid/components"
)

func TestSnapshotSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()

	ps := []components.Particle{
		components.NewParticle(-480, -300, 0, 1),
		components.NewParticle(0.1, 1e-7, 3.3333333, 2.5),
	}
	ps[1].SetVelocity(-12.75, 0.333, 1e6)

	params := components.SimParams{DT: 0.005, H: 25, Rho0: 0.01, Stiffness: 2000, Viscosity: 200, Count: 2, GridDim: 16384}
	params.SetPointer(10, -20, true)

	snapshot := &Snapshot{
		Version:    SnapshotVersion,
		Seed:       42,
		Law:        "sph",
		Frame:      1000,
		SimTimeSec: 5,
		Params:     params,
		Particles:  CaptureParticles(ps),
		Bookmark: &Bookmark{
			Type:        BookmarkSplash,
			Frame:       1000,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Snapshot file not created at %s", path)
	}

	loaded, err := LoadSnapshot(path)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}

	if loaded.Seed != snapshot.Seed || loaded.Frame != snapshot.Frame || loaded.Law != snapshot.Law {
		t.Errorf("header mismatch: got %+v", loaded)
	}
	if loaded.Params != params {
		t.Errorf("Params mismatch: got %+v, want %+v", loaded.Params, params)
	}
	if loaded.Bookmark == nil || loaded.Bookmark.Type != BookmarkSplash {
		t.Errorf("Bookmark not restored: %+v", loaded.Bookmark)
	}

	// float32 values survive the JSON text form exactly
	restored := loaded.RestoreParticles()
	if len(restored) != len(ps) {
		t.Fatalf("restored %d particles, want %d", len(restored), len(ps))
	}
	for i := range ps {
		if restored[i] != ps[i] {
			t.Errorf("particle %d: got %+v, want %+v", i, restored[i], ps[i])
		}
	}
}

func TestSnapshotFilename(t *testing.T) {
	tmpDir := t.TempDir()

	snapshot := &Snapshot{
		Version: SnapshotVersion,
		Frame:   5000,
		Bookmark: &Bookmark{
			Type:  BookmarkCompression,
			Frame: 5000,
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected := filepath.Join(tmpDir, "snapshot_5000_compression_peak.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}

	path, err = SaveSnapshot(&Snapshot{Version: SnapshotVersion, Frame: 3000}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expected = filepath.Join(tmpDir, "snapshot_3000.json")
	if path != expected {
		t.Errorf("Path mismatch: got %s, want %s", path, expected)
	}
}

func TestLoadSnapshot_RejectsOtherVersion(t *testing.T) {
	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion + 1, Frame: 1}, t.TempDir())
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if _, err := LoadSnapshot(path); err == nil {
		t.Error("LoadSnapshot accepted a future version")
	}
}

func TestOutputManager(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := om.WriteFrame(FrameStats{Frame: int64(i), Count: 10}); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{PhasePct: map[string]float64{PhaseSort: 50}}, 60); err != nil {
		t.Fatalf("WritePerf: %v", err)
	}
	if err := om.WriteBookmark(Bookmark{Type: BookmarkSettled, Frame: 2}); err != nil {
		t.Fatalf("WriteBookmark: %v", err)
	}
	if err := om.WriteParams(components.SimParams{DT: 0.005}); err != nil {
		t.Fatalf("WriteParams: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	frames, err := os.ReadFile(filepath.Join(dir, "frames.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// Header plus three rows
	if lines := countLines(frames); lines != 4 {
		t.Errorf("frames.csv has %d lines, want 4", lines)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "params.bin"))
	if err != nil {
		t.Fatal(err)
	}
	var p components.SimParams
	if err := p.UnmarshalBinary(raw); err != nil {
		t.Fatalf("params.bin: %v", err)
	}
	if p.DT != 0.005 {
		t.Errorf("params.bin DT = %g, want 0.005", p.DT)
	}
}

func TestOutputManager_DisabledIsNil(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("NewOutputManager(\"\") = %v, %v; want nil, nil", om, err)
	}
	// Every method is safe on nil
	if err := om.WriteFrame(FrameStats{}); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
	if om.Dir() != "" {
		t.Error("nil manager has a directory")
	}
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
