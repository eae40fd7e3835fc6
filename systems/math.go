// Package systems implements the solver kernels: spatial hashing, the bitonic
// sort network, offset-table construction, SPH density and force passes, and
// the N-body baseline. Every exported *Kernel function returns a
// device.Kernel that processes a range of independent invocations.
package systems

import "math"

// sqrt32 is a float32 square root.
func sqrt32(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}

// floor32 is a float32 floor.
func floor32(v float32) float32 {
	return float32(math.Floor(float64(v)))
}

// sub3 returns a - b.
func sub3(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

// dot3 returns a · b.
func dot3(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// pos3 returns the xyz part of a packed position.
func pos3(p *[4]float32) [3]float32 {
	return [3]float32{p[0], p[1], p[2]}
}

// clampLength rescales v to length maxLen if it is longer.
// Returns true if v was clamped.
func clampLength(v *[3]float32, maxLen float32) bool {
	if maxLen <= 0 {
		return false
	}
	l2 := dot3(*v, *v)
	if l2 <= maxLen*maxLen {
		return false
	}
	scale := maxLen / sqrt32(l2)
	v[0] *= scale
	v[1] *= scale
	v[2] *= scale
	return true
}
