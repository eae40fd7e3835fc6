package systems

import (
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// NBodyParams configures the direct-summation gravity law.
type NBodyParams struct {
	DT        float32
	G         float32
	Softening float32 // added to the squared distance, 1 in the reference law
}

// NBodyKernel sums pairwise gravity over every other particle and applies
// the same symplectic Euler step as the SPH path. No spatial index is used.
// Invocations: len(dst).
func NBodyKernel(src, dst []components.Particle, np NBodyParams) device.Kernel {
	n := len(dst)
	return func(i0, i1 int) {
		for i := i0; i < i1; i++ {
			dst[i] = Integrate(src[i], nbodyAccel(src[:n], i, &np), np.DT)
		}
	}
}

// nbodyAccel returns sum_j G m_j / (d^2 + s) along the unit vector to j.
func nbodyAccel(src []components.Particle, i int, np *NBodyParams) [3]float32 {
	xi := pos3(&src[i].Pos)
	var a [3]float32
	for j := range src {
		if j == i {
			continue
		}
		d := sub3(pos3(&src[j].Pos), xi)
		r2 := dot3(d, d)
		if r2 < KernelEpsilon*KernelEpsilon {
			// Coincident: no defined direction
			continue
		}
		s := np.G * src[j].Pos[3] / ((r2 + np.Softening) * sqrt32(r2))
		a[0] += s * d[0]
		a[1] += s * d[1]
		a[2] += s * d[2]
	}
	return a
}
