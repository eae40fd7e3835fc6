package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/fluid/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete solver state for replay.
type Snapshot struct {
	Version int    `json:"version"`
	Seed    int64  `json:"seed"`
	Law     string `json:"law"`

	Frame      int64   `json:"frame"`
	SimTimeSec float64 `json:"sim_time"`

	Params    components.SimParams `json:"params"`
	Particles []ParticleState      `json:"particles"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// ParticleState holds one particle's complete state.
type ParticleState struct {
	X    float32 `json:"x"`
	Y    float32 `json:"y"`
	Z    float32 `json:"z"`
	Mass float32 `json:"mass"`

	VelX float32 `json:"vel_x"`
	VelY float32 `json:"vel_y"`
	VelZ float32 `json:"vel_z"`
}

// CaptureParticles converts a particle buffer to its JSON form.
func CaptureParticles(ps []components.Particle) []ParticleState {
	out := make([]ParticleState, len(ps))
	for i := range ps {
		p := &ps[i]
		out[i] = ParticleState{
			X: p.Pos[0], Y: p.Pos[1], Z: p.Pos[2], Mass: p.Pos[3],
			VelX: p.Vel[0], VelY: p.Vel[1], VelZ: p.Vel[2],
		}
	}
	return out
}

// RestoreParticles converts the snapshot state back to a particle buffer.
func (s *Snapshot) RestoreParticles() []components.Particle {
	out := make([]components.Particle, len(s.Particles))
	for i, ps := range s.Particles {
		out[i] = components.NewParticle(ps.X, ps.Y, ps.Z, ps.Mass)
		out[i].SetVelocity(ps.VelX, ps.VelY, ps.VelZ)
	}
	return out
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Frame)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Frame, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d: want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
