package components

// Scene emitters are ECS components. Each emitter entity carries one shape
// plus Material and Motion; the scene builder expands them into particles.

// Block is an axis-aligned lattice of particles.
type Block struct {
	Origin  [3]float32 // minimum corner
	Cols    int        // along x
	Rows    int        // along y
	Layers  int        // along z, 0 or 1 means a single layer
	Spacing float32
}

// Sphere is a ball of particles sampled on a lattice.
type Sphere struct {
	Center  [3]float32
	Radius  float32
	Spacing float32
	Flat    bool // sample only the z=center plane
}

// Material holds per-particle constants for an emitter.
type Material struct {
	Mass float32
}

// Motion holds the initial velocity of an emitter's particles.
type Motion struct {
	Vel [3]float32
}

// Count returns how many particles the block emits.
func (b *Block) Count() int {
	layers := b.Layers
	if layers < 1 {
		layers = 1
	}
	if b.Cols <= 0 || b.Rows <= 0 {
		return 0
	}
	return b.Cols * b.Rows * layers
}
