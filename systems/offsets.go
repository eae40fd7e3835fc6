package systems

import (
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// ClearOffsetsKernel resets every table slot to NoOffset.
// Invocations: g.GridDim.
func (g *Grid) ClearOffsetsKernel() device.Kernel {
	offsets := g.Offsets
	return func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			offsets[i] = components.NoOffset
		}
	}
}

// FindOffsetsKernel records, for each slot, the index where its run starts
// in the sorted pair buffer. Only the first entry of a run writes, so every
// table slot has a single writer. Invocations: g.Count.
func (g *Grid) FindOffsetsKernel() device.Kernel {
	pairs := g.Pairs
	offsets := g.Offsets
	return func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			cell := pairs[i].Cell
			prev := uint32(components.NoOffset)
			if i > 0 {
				prev = pairs[i-1].Cell
			}
			if cell != prev {
				offsets[cell] = uint32(i)
			}
		}
	}
}

// Rebuild runs the whole index pipeline (hash, sort, clear, find) serially.
// It is the host reference for tests and tools; the engine schedules the
// same kernels as separate passes.
func (g *Grid) Rebuild(src []components.Particle, h float32) {
	g.HashKernel(src, h, nil)(0, len(g.Pairs))
	for _, st := range BitonicStages(g.Count) {
		BitonicStageKernel(g.Pairs, st)(0, len(g.Pairs))
	}
	g.ClearOffsetsKernel()(0, int(g.GridDim))
	g.FindOffsetsKernel()(0, g.Count)
}
