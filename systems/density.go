package systems

import (
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// DensityKernel sums Poly6-weighted neighbor masses into density[i],
// restricted to the 27 cells around particle i. The particle itself is part
// of its own cell, so every density includes the self term m_i*W(0).
// Invocations: g.Count.
func (g *Grid) DensityKernel(src []components.Particle, density []float32, k Kernels) device.Kernel {
	return func(i0, i1 int) {
		var runs [27]Run
		for i := i0; i < i1; i++ {
			density[i] = g.densityAt(src, i, &k, &runs)
		}
	}
}

func (g *Grid) densityAt(src []components.Particle, i int, k *Kernels, runs *[27]Run) float32 {
	pi := pos3(&src[i].Pos)
	c := CellOf(pi[0], pi[1], pi[2], k.H)

	var rho float32
	n := g.CandidateRuns(c, runs)
	for r := 0; r < n; r++ {
		for idx := runs[r].Start; idx < runs[r].End; idx++ {
			j := g.Pairs[idx].Particle
			pj := &src[j]
			d := sub3(pi, pos3(&pj.Pos))
			rho += pj.Pos[3] * k.Poly6(dot3(d, d))
		}
	}
	return rho
}

// BruteForceDensity computes the same sum over all particle pairs. It is
// the O(N^2) reference for the grid path.
func BruteForceDensity(src []components.Particle, h float32, density []float32) {
	k := NewKernels(h)
	n := len(density)
	for i := 0; i < n; i++ {
		pi := pos3(&src[i].Pos)
		var rho float32
		for j := 0; j < n; j++ {
			d := sub3(pi, pos3(&src[j].Pos))
			rho += src[j].Pos[3] * k.Poly6(dot3(d, d))
		}
		density[i] = rho
	}
}
