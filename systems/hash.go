package systems

import (
	"sync/atomic"

	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// Hash primes for the cell hash. Multiplication wraps at 32 bits, matching
// device integer arithmetic.
const (
	HashP1 uint32 = 73856093
	HashP2 uint32 = 19349663
	HashP3 uint32 = 83492791
)

// CellCoordOffset shifts cell coordinates into the non-negative range before
// they are converted to unsigned. The supported domain is therefore
// [-CellCoordOffset, CellCoordOffset) cells per axis, i.e.
// ±CellCoordOffset*h world units. Positions outside it still hash, but two
// cells 2*CellCoordOffset apart become indistinguishable; the hash pass
// counts such particles so the host can report them.
const CellCoordOffset = 1 << 20

// cellCoordLimit bounds the float-to-int conversion.
const cellCoordLimit = 1 << 30

// Cell is an integer grid coordinate.
type Cell [3]int32

// CellOf returns floor(p / h) per axis.
func CellOf(x, y, z, h float32) Cell {
	return Cell{cellCoord(x / h), cellCoord(y / h), cellCoord(z / h)}
}

func cellCoord(v float32) int32 {
	f := floor32(v)
	switch {
	case f >= cellCoordLimit:
		return cellCoordLimit
	case f <= -cellCoordLimit:
		return -cellCoordLimit
	case f != f: // NaN
		return 0
	}
	return int32(f)
}

// InDomain reports whether every coordinate lies in the supported range.
func (c Cell) InDomain() bool {
	for _, v := range c {
		if v < -CellCoordOffset || v >= CellCoordOffset {
			return false
		}
	}
	return true
}

// HashCell maps a cell to a table slot in [0, gridDim).
func HashCell(c Cell, gridDim uint32) uint32 {
	ux := uint32(c[0] + CellCoordOffset)
	uy := uint32(c[1] + CellCoordOffset)
	uz := uint32(c[2] + CellCoordOffset)
	return ((ux * HashP1) ^ (uy * HashP2) ^ (uz * HashP3)) % gridDim
}

// HashParticle returns the table slot of the cell containing p.
func HashParticle(p *components.Particle, h float32, gridDim uint32) uint32 {
	return HashCell(CellOf(p.Pos[0], p.Pos[1], p.Pos[2], h), gridDim)
}

// HashKernel writes one GridPair per pair-buffer slot: (slot, i) for live
// particles and the sentinel pair for the power-of-two padding. Particles
// whose cell lies outside the supported domain are counted in outOfDomain.
// Invocations: len(g.Pairs).
func (g *Grid) HashKernel(src []components.Particle, h float32, outOfDomain *atomic.Uint32) device.Kernel {
	pairs := g.Pairs
	count := g.Count
	gridDim := g.GridDim

	return func(i0, i1 int) {
		var outside uint32
		for i := i0; i < i1; i++ {
			if i >= count {
				pairs[i] = components.SentinelPair()
				continue
			}
			p := &src[i]
			c := CellOf(p.Pos[0], p.Pos[1], p.Pos[2], h)
			if !c.InDomain() {
				outside++
			}
			pairs[i] = components.GridPair{Cell: HashCell(c, gridDim), Particle: uint32(i)}
		}
		if outside > 0 && outOfDomain != nil {
			outOfDomain.Add(outside)
		}
	}
}
