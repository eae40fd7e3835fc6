package systems

import (
	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/device"
)

// FloorParams describes the single floor plane.
type FloorParams struct {
	Enabled     bool
	Y           float32 // floor height
	Restitution float32 // fraction of vertical speed kept after a bounce
	Friction    float32 // fraction of horizontal speed kept after a bounce
}

// PointerParams describes the user interaction spring for one frame.
type PointerParams struct {
	Active   bool
	X, Y     float32 // already deprojected to world space
	Radius   float32
	Strength float32 // spring constant toward the pointer
	Damping  float32 // velocity damping inside the radius
}

// ForceParams is everything the force pass needs besides the buffers.
type ForceParams struct {
	DT        float32
	Rho0      float32
	Stiffness float32
	Viscosity float32
	Gravity   float32 // signed acceleration along y
	MaxAccel  float32 // acceleration ceiling, 0 disables the clamp
	Floor     FloorParams
	Pointer   PointerParams
}

// ForceKernel computes the acceleration of every particle from the density
// field, integrates it with symplectic Euler and applies the floor response,
// writing the result into dst. It reads src and density only.
// Invocations: g.Count.
func (g *Grid) ForceKernel(src, dst []components.Particle, density []float32, k Kernels, fp ForceParams) device.Kernel {
	return func(i0, i1 int) {
		var runs [27]Run
		for i := i0; i < i1; i++ {
			a := g.accelerationAt(src, density, i, &k, &fp, &runs)
			dst[i] = Integrate(src[i], a, fp.DT)
			fp.Floor.Apply(&dst[i])
		}
	}
}

func (g *Grid) accelerationAt(src []components.Particle, density []float32, i int, k *Kernels, fp *ForceParams, runs *[27]Run) [3]float32 {
	p := &src[i]
	xi := pos3(&p.Pos)
	vi := [3]float32{p.Vel[0], p.Vel[1], p.Vel[2]}

	rhoI := max(density[i], DensityEpsilon)
	termI := TaitPressure(density[i], fp.Rho0, fp.Stiffness) / (rhoI * rhoI)

	var a [3]float32
	c := CellOf(xi[0], xi[1], xi[2], k.H)
	n := g.CandidateRuns(c, runs)
	for r := 0; r < n; r++ {
		for idx := runs[r].Start; idx < runs[r].End; idx++ {
			j := g.Pairs[idx].Particle
			if j == uint32(i) {
				continue
			}
			q := &src[j]
			d := sub3(xi, pos3(&q.Pos))
			r2 := dot3(d, d)
			if r2 >= k.H2 {
				continue
			}
			dist := sqrt32(r2)
			mj := q.Pos[3]
			rhoJ := max(density[j], DensityEpsilon)

			// Symmetric pressure term along the separation
			if grad := k.SpikyGrad(dist); grad != 0 {
				termJ := TaitPressure(density[j], fp.Rho0, fp.Stiffness) / (rhoJ * rhoJ)
				s := -mj * (termI + termJ) * grad / dist
				a[0] += s * d[0]
				a[1] += s * d[1]
				a[2] += s * d[2]
			}

			// Viscosity pulls velocities together. Weighted by 1/rho_j, so the
			// pair exchange only cancels when rho_i == rho_j.
			vs := fp.Viscosity / rhoJ * mj * k.ViscLaplacian(dist)
			a[0] += vs * (q.Vel[0] - vi[0])
			a[1] += vs * (q.Vel[1] - vi[1])
			a[2] += vs * (q.Vel[2] - vi[2])
		}
	}

	a[1] += fp.Gravity
	fp.Pointer.apply(&a, xi, vi)
	clampLength(&a, fp.MaxAccel)
	return a
}

// apply adds the pointer spring and damping, fading to zero at the radius.
func (pp *PointerParams) apply(a *[3]float32, x, v [3]float32) {
	if !pp.Active || pp.Radius <= 0 {
		return
	}
	dx := pp.X - x[0]
	dy := pp.Y - x[1]
	d := sqrt32(dx*dx + dy*dy)
	if d >= pp.Radius {
		return
	}
	falloff := 1 - d/pp.Radius
	a[0] += falloff * (pp.Strength*dx - pp.Damping*v[0])
	a[1] += falloff * (pp.Strength*dy - pp.Damping*v[1])
	a[2] -= falloff * pp.Damping * v[2]
}

// Integrate applies one symplectic Euler step: velocity first from the
// acceleration at the current position, then position from the new velocity.
func Integrate(p components.Particle, a [3]float32, dt float32) components.Particle {
	out := p
	for c := 0; c < 3; c++ {
		v := p.Vel[c] + a[c]*dt
		out.Vel[c] = v
		out.Pos[c] = p.Pos[c] + v*dt
	}
	out.Vel[3] = 0
	return out
}

// Apply clamps a particle that ended below the floor back onto it, reflects
// and damps its vertical velocity and applies friction to the rest.
func (f *FloorParams) Apply(p *components.Particle) {
	if !f.Enabled || p.Pos[1] >= f.Y {
		return
	}
	p.Pos[1] = f.Y
	p.Vel[1] = -p.Vel[1] * f.Restitution
	p.Vel[0] *= f.Friction
	p.Vel[2] *= f.Friction
}
