package components

import "math"

// Sentinels used by the grid buffers.
const (
	// SentinelCell pads the pair buffer up to a power of two. It is larger
	// than any valid hash slot so padded entries always sort last.
	SentinelCell = math.MaxUint32

	// SentinelParticle marks a padded pair that refers to no particle.
	SentinelParticle = math.MaxUint32

	// NoOffset marks an empty slot in the cell offset table.
	NoOffset = math.MaxUint32
)

// GridPair maps a particle to the hash slot of the cell it occupies.
type GridPair struct {
	Cell     uint32
	Particle uint32
}

// SentinelPair returns the padding pair.
func SentinelPair() GridPair {
	return GridPair{Cell: SentinelCell, Particle: SentinelParticle}
}

// IsSentinel reports whether the pair is padding.
func (g GridPair) IsSentinel() bool {
	return g.Cell == SentinelCell && g.Particle == SentinelParticle
}
