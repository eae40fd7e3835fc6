package systems

import "math"

// Numerical guards.
const (
	// KernelEpsilon is the separation below which the pressure gradient
	// direction is undefined and the pair contributes no pressure.
	KernelEpsilon = 1e-6

	// DensityEpsilon floors densities before they are used as divisors.
	DensityEpsilon = 1e-6
)

// Kernels holds the smoothing-kernel coefficients for one radius h.
// Compute it once per frame; the coefficients involve h^9.
type Kernels struct {
	H          float32
	H2         float32
	Poly6Coeff float32 // 315 / (64 pi h^9)
	SpikyCoeff float32 // -45 / (pi h^6)
	ViscCoeff  float32 // 45 / (pi h^6)
}

// NewKernels precomputes the coefficients for radius h.
func NewKernels(h float32) Kernels {
	hd := float64(h)
	return Kernels{
		H:          h,
		H2:         h * h,
		Poly6Coeff: float32(315.0 / (64.0 * math.Pi * math.Pow(hd, 9))),
		SpikyCoeff: float32(-45.0 / (math.Pi * math.Pow(hd, 6))),
		ViscCoeff:  float32(45.0 / (math.Pi * math.Pow(hd, 6))),
	}
}

// Poly6 evaluates the density kernel at squared distance r2.
// Its value and first derivative both vanish at the support boundary.
func (k *Kernels) Poly6(r2 float32) float32 {
	if r2 > k.H2 {
		return 0
	}
	d := k.H2 - r2
	return k.Poly6Coeff * d * d * d
}

// SpikyGrad returns the magnitude of the Spiky kernel gradient along the
// unit separation vector. Unlike Poly6 it does not vanish as r -> 0, so
// overlapping particles are still pushed apart.
func (k *Kernels) SpikyGrad(r float32) float32 {
	if r >= k.H || r < KernelEpsilon {
		return 0
	}
	d := k.H - r
	return k.SpikyCoeff * d * d
}

// ViscLaplacian evaluates the viscosity kernel Laplacian at distance r.
func (k *Kernels) ViscLaplacian(r float32) float32 {
	if r >= k.H {
		return 0
	}
	return k.ViscCoeff * (k.H - r)
}

// Poly6 evaluates the density kernel for radius h without precomputation.
func Poly6(r2, h float32) float32 {
	k := NewKernels(h)
	return k.Poly6(r2)
}

// TaitPressure evaluates P = B * (max(rho/rho0, 1)^7 - 1). The clamp keeps
// particles below rest density from attracting each other.
func TaitPressure(rho, rho0, stiffness float32) float32 {
	ratio := rho / rho0
	if !(ratio > 1) {
		return 0
	}
	r2 := ratio * ratio
	r4 := r2 * r2
	return stiffness * (r4*r2*ratio - 1)
}
