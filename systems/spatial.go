package systems

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/fluid/components"
)

// Grid errors.
var (
	// ErrZeroGridDim is returned when the hash table has no slots.
	ErrZeroGridDim = errors.New("systems: grid_dim must be greater than zero")

	// ErrGridDimTooLarge is returned when grid_dim would collide with the
	// sort sentinel.
	ErrGridDimTooLarge = errors.New("systems: grid_dim must be below the sentinel cell id")
)

// Grid holds the per-frame spatial index: the sorted (slot, particle) pair
// buffer and the slot offset table. Both are rebuilt from scratch every
// frame; nothing in them survives into the next frame.
type Grid struct {
	// Pairs has length NextPow2(Count). Entries at and beyond Count are
	// sentinel padding after the hash pass and stay there after sorting.
	Pairs []components.GridPair

	// Offsets has length GridDim. Offsets[s] is the first index in Pairs
	// whose slot is s, or components.NoOffset.
	Offsets []uint32

	Count   int
	GridDim uint32

	// Dedupe visits each table slot at most once per neighbor query even
	// when several of the 27 candidate cells hash to it. Disabling it
	// reproduces the reference walk, which double-counts under collision.
	Dedupe bool
}

// NewGrid allocates a grid for count particles and a gridDim-slot table.
func NewGrid(count int, gridDim uint32) (*Grid, error) {
	if gridDim == 0 {
		return nil, ErrZeroGridDim
	}
	if gridDim >= math.MaxUint32 {
		return nil, fmt.Errorf("grid_dim %d: %w", gridDim, ErrGridDimTooLarge)
	}
	g := &Grid{
		Pairs:   make([]components.GridPair, NextPow2(count)),
		Offsets: make([]uint32, gridDim),
		Count:   count,
		GridDim: gridDim,
		Dedupe:  true,
	}
	for i := range g.Pairs {
		g.Pairs[i] = components.SentinelPair()
	}
	for i := range g.Offsets {
		g.Offsets[i] = components.NoOffset
	}
	return g, nil
}

// Padded returns the pair-buffer length (the sort invocation count).
func (g *Grid) Padded() int { return len(g.Pairs) }
