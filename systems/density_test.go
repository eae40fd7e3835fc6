package systems

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/pthm-cable/fluid/components"
)

func gridDensity(t *testing.T, ps []components.Particle, h float32, gridDim uint32, dedupe bool) []float32 {
	t.Helper()
	g, err := NewGrid(len(ps), gridDim)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	g.Dedupe = dedupe
	g.Rebuild(ps, h)
	density := make([]float32, len(ps))
	g.DensityKernel(ps, density, NewKernels(h))(0, len(ps))
	return density
}

func TestDensity_MatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	ps := randomCloud(rng, 400, 60)
	const h = 6

	want := make([]float32, len(ps))
	BruteForceDensity(ps, h, want)

	for _, gridDim := range []uint32{1, 7, 16384} {
		got := gridDensity(t, ps, h, gridDim, true)
		for i := range got {
			if !scalar.EqualWithinRel(float64(got[i]), float64(want[i]), 1e-5) {
				t.Fatalf("grid_dim=%d: density[%d] = %g, brute force %g", gridDim, i, got[i], want[i])
			}
		}
	}
}

// TestDensity_ReferenceWalkDoubleCounts pins the behavior of the walk
// without slot dedupe: with a single slot every candidate cell resolves to
// the same run, so each density is counted 27 times.
func TestDensity_ReferenceWalkDoubleCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	ps := randomCloud(rng, 64, 30)
	const h = 5

	want := make([]float32, len(ps))
	BruteForceDensity(ps, h, want)
	got := gridDensity(t, ps, h, 1, false)

	for i := range got {
		if !scalar.EqualWithinRel(float64(got[i]), 27*float64(want[i]), 1e-5) {
			t.Fatalf("density[%d] = %g, want 27 x %g", i, got[i], want[i])
		}
	}
}

func TestDensity_IsolatedParticleSelfTerm(t *testing.T) {
	ps := []components.Particle{
		components.NewParticle(0, 0, 0, 2),
		components.NewParticle(100, 0, 0, 3),
	}
	const h = 10
	got := gridDensity(t, ps, h, 16384, true)

	w0 := 315 / (64 * math.Pi * math.Pow(h, 9)) * math.Pow(h*h, 3)
	for i, m := range []float64{2, 3} {
		if !scalar.EqualWithinRel(float64(got[i]), m*w0, 1e-5) {
			t.Errorf("density[%d] = %g, want %g", i, got[i], m*w0)
		}
	}
}

func TestKernels(t *testing.T) {
	const h = 2
	k := NewKernels(h)

	w0 := 315 / (64 * math.Pi * math.Pow(h, 3))
	if !scalar.EqualWithinRel(float64(k.Poly6(0)), w0, 1e-6) {
		t.Errorf("Poly6(0) = %g, want %g", k.Poly6(0), w0)
	}
	if k.Poly6(h*h) != 0 {
		t.Errorf("Poly6(h^2) = %g, want 0", k.Poly6(h*h))
	}
	if k.Poly6(h*h+0.1) != 0 {
		t.Errorf("Poly6 outside support = %g, want 0", k.Poly6(h*h+0.1))
	}
	if Poly6(1, h) != k.Poly6(1) {
		t.Errorf("Poly6(1, h) = %g, want %g", Poly6(1, h), k.Poly6(1))
	}

	if k.SpikyGrad(0) != 0 {
		t.Errorf("SpikyGrad(0) = %g, want 0", k.SpikyGrad(0))
	}
	if k.SpikyGrad(h) != 0 {
		t.Errorf("SpikyGrad(h) = %g, want 0", k.SpikyGrad(h))
	}
	if g := k.SpikyGrad(1); g >= 0 {
		t.Errorf("SpikyGrad(1) = %g, want negative", g)
	}

	if k.ViscLaplacian(h) != 0 {
		t.Errorf("ViscLaplacian(h) = %g, want 0", k.ViscLaplacian(h))
	}
	wantLap := 45 / (math.Pi * math.Pow(h, 6)) * (h - 0.5)
	if !scalar.EqualWithinRel(float64(k.ViscLaplacian(0.5)), wantLap, 1e-6) {
		t.Errorf("ViscLaplacian(0.5) = %g, want %g", k.ViscLaplacian(0.5), wantLap)
	}
}

func TestTaitPressure(t *testing.T) {
	tests := []struct {
		name      string
		rho, rho0 float32
		want      float32
	}{
		{"below rest", 0.5, 1, 0},
		{"at rest", 1, 1, 0},
		{"zero density", 0, 1, 0},
		{"double rest", 2, 1, 2000 * 127},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TaitPressure(tt.rho, tt.rho0, 2000)
			if !scalar.EqualWithinAbsOrRel(float64(got), float64(tt.want), 1e-9, 1e-6) {
				t.Errorf("TaitPressure(%g, %g) = %g, want %g", tt.rho, tt.rho0, got, tt.want)
			}
		})
	}
}

func BenchmarkDensityKernel(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	ps := randomCloud(rng, 4096, 400)
	g, _ := NewGrid(len(ps), 16384)
	g.Rebuild(ps, 25)
	density := make([]float32, len(ps))
	kernel := g.DensityKernel(ps, density, NewKernels(25))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		kernel(0, len(ps))
	}
}
