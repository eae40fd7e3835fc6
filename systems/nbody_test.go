package systems

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/pthm-cable/fluid/components"
)

func TestNBody_PairAttracts(t *testing.T) {
	src := []components.Particle{
		components.NewParticle(0, 0, 0, 1),
		components.NewParticle(3, 0, 0, 1),
	}
	np := NBodyParams{DT: 0.1, G: 1, Softening: 1}
	dst := make([]components.Particle, len(src))
	NBodyKernel(src, dst, np)(0, len(dst))

	// a = G m / (d^2 + 1) = 0.1
	want := float32(0.1 * 0.1)
	if !scalar.EqualWithinRel(float64(dst[0].Vel[0]), float64(want), 1e-5) {
		t.Errorf("v0.x = %g, want %g", dst[0].Vel[0], want)
	}
	if !scalar.EqualWithinRel(float64(dst[1].Vel[0]), float64(-want), 1e-5) {
		t.Errorf("v1.x = %g, want %g", dst[1].Vel[0], -want)
	}
	if dst[0].Vel[1] != 0 || dst[0].Vel[2] != 0 {
		t.Errorf("off-axis velocity %v", dst[0].Vel)
	}
}

func TestNBody_CoincidentIgnored(t *testing.T) {
	src := []components.Particle{
		components.NewParticle(1, 1, 1, 5),
		components.NewParticle(1, 1, 1, 5),
	}
	dst := make([]components.Particle, len(src))
	NBodyKernel(src, dst, NBodyParams{DT: 0.1, G: 1, Softening: 1})(0, len(dst))

	for i := range dst {
		if dst[i].Vel != src[i].Vel {
			t.Errorf("particle %d: velocity %v, want unchanged", i, dst[i].Vel)
		}
	}
}

func TestNBody_MomentumConserved(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	src := randomCloud(rng, 64, 100)
	dst := make([]components.Particle, len(src))
	NBodyKernel(src, dst, NBodyParams{DT: 0.01, G: 50, Softening: 1})(0, len(dst))

	var dp, scale [3]float64
	for i := range dst {
		m := float64(src[i].Mass())
		for c := 0; c < 3; c++ {
			d := m * float64(dst[i].Vel[c]-src[i].Vel[c])
			dp[c] += d
			if d < 0 {
				d = -d
			}
			scale[c] += d
		}
	}
	for c := 0; c < 3; c++ {
		if rel := dp[c] / scale[c]; rel > 1e-4 || rel < -1e-4 {
			t.Errorf("axis %d: momentum change %g relative to %g", c, dp[c], scale[c])
		}
	}
}

func BenchmarkNBodyKernel(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	src := randomCloud(rng, 1024, 1000)
	dst := make([]components.Particle, len(src))
	kernel := NBodyKernel(src, dst, NBodyParams{DT: 0.005, G: 1, Softening: 1})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kernel(0, len(dst))
	}
}
