// Package components defines the buffer records shared by the solver passes
// and the consumers that read them (viewer, telemetry, snapshots).
//
// Layouts are fixed: every record mirrors a device-side storage or uniform
// buffer and is encoded little-endian with no implicit padding.
package components

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ParticleSize is the encoded size of one Particle in bytes.
const ParticleSize = 32

// ErrShortBuffer is returned when decoding from a buffer that is too small.
var ErrShortBuffer = errors.New("components: buffer too short")

// Particle is one fluid sample. Identity is its index in the buffer.
type Particle struct {
	Pos [4]float32 // x, y, z, mass
	Vel [4]float32 // vx, vy, vz, padding
}

// NewParticle creates a particle at rest.
func NewParticle(x, y, z, mass float32) Particle {
	return Particle{Pos: [4]float32{x, y, z, mass}}
}

// Mass returns the particle mass (packed in the fourth position component).
func (p *Particle) Mass() float32 { return p.Pos[3] }

// Position returns x, y, z.
func (p *Particle) Position() (x, y, z float32) { return p.Pos[0], p.Pos[1], p.Pos[2] }

// Velocity returns vx, vy, vz.
func (p *Particle) Velocity() (vx, vy, vz float32) { return p.Vel[0], p.Vel[1], p.Vel[2] }

// SetVelocity overwrites the velocity, leaving padding zeroed.
func (p *Particle) SetVelocity(vx, vy, vz float32) {
	p.Vel = [4]float32{vx, vy, vz, 0}
}

// EncodeParticles appends the binary form of ps to dst.
func EncodeParticles(dst []byte, ps []Particle) []byte {
	out, err := binary.Append(dst, binary.LittleEndian, ps)
	if err != nil {
		// Particle is fixed-size; Append cannot fail for it.
		panic(fmt.Sprintf("components: encoding particles: %v", err))
	}
	return out
}

// DecodeParticles decodes len(ps) particles from data into ps.
func DecodeParticles(data []byte, ps []Particle) error {
	need := len(ps) * ParticleSize
	if len(data) < need {
		return fmt.Errorf("decoding %d particles from %d bytes: %w", len(ps), len(data), ErrShortBuffer)
	}
	if _, err := binary.Decode(data[:need], binary.LittleEndian, ps); err != nil {
		return fmt.Errorf("decoding particles: %w", err)
	}
	return nil
}
