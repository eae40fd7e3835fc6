package systems

import (
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// SortStage parameterizes one bitonic dispatch.
type SortStage struct {
	K uint32 // block height: length of the monotonic runs being merged
	J uint32 // block width: compare distance
}

// NextPow2 returns the smallest power of two >= n (1 for n <= 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// BitonicStages returns the full stage schedule for n elements padded to
// the next power of two: k doubles from 2 to P, and for each k, j halves
// from k/2 down to 1. Each stage depends on the complete result of the
// previous one, so each must be its own dispatch.
func BitonicStages(n int) []SortStage {
	p := uint32(NextPow2(n))
	var stages []SortStage
	for k := uint32(2); k <= p; k <<= 1 {
		for j := k >> 1; j > 0; j >>= 1 {
			stages = append(stages, SortStage{K: k, J: j})
		}
	}
	return stages
}

// compareSwap is the body of one sort invocation. Only the lower index of
// each (i, i^j) pair acts, so no two invocations touch the same slot.
func compareSwap(pairs []components.GridPair, i uint32, st SortStage) {
	ixj := i ^ st.J
	if ixj <= i {
		return
	}
	a, b := pairs[i], pairs[ixj]
	if i&st.K == 0 {
		// Ascending
		if a.Cell > b.Cell {
			pairs[i], pairs[ixj] = b, a
		}
	} else if a.Cell < b.Cell {
		pairs[i], pairs[ixj] = b, a
	}
}

// BitonicStageKernel returns the kernel for one sort stage.
// Invocations: len(pairs), which must be a power of two.
func BitonicStageKernel(pairs []components.GridPair, st SortStage) device.Kernel {
	return func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			compareSwap(pairs, uint32(i), st)
		}
	}
}

// SortPairs sorts pairs by cell id with the full bitonic network, running
// stages serially on the calling goroutine. Inputs that are not a power of
// two long are padded with sentinel pairs, which sort last and are dropped.
func SortPairs(pairs []components.GridPair) {
	n := len(pairs)
	p := NextPow2(n)

	work := pairs
	if p != n {
		work = make([]components.GridPair, p)
		copy(work, pairs)
		for i := n; i < p; i++ {
			work[i] = components.SentinelPair()
		}
	}

	for _, st := range BitonicStages(n) {
		BitonicStageKernel(work, st)(0, p)
	}

	if p != n {
		copy(pairs, work[:n])
	}
}
