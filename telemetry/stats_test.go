package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/fluid/components"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeDistribution(t *testing.T) {
	values := []float64{1.0, 0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}
	mean, p10, p50, p90 := ComputeDistribution(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(p10-0.19) > 0.01 {
		t.Errorf("p10 = %v, want ~0.19", p10)
	}
	if math.Abs(p50-0.55) > 0.01 {
		t.Errorf("p50 = %v, want ~0.55", p50)
	}
	if math.Abs(p90-0.91) > 0.01 {
		t.Errorf("p90 = %v, want ~0.91", p90)
	}

	// Input is left unsorted
	if values[0] != 1.0 {
		t.Error("ComputeDistribution sorted its input")
	}
}

func TestComputeDistributionEmpty(t *testing.T) {
	mean, p10, p50, p90 := ComputeDistribution([]float64{})

	if mean != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestComputeFrameStats(t *testing.T) {
	ps := []components.Particle{
		components.NewParticle(0, 0, 0, 1),
		components.NewParticle(1, 2, 0, 3),
	}
	ps[0].SetVelocity(2, 0, 0)
	ps[1].SetVelocity(0, -1, 0)
	density := []float32{0.5, 2}

	s := ComputeFrameStats(7, 0.035, ps, density, 1)

	if s.Frame != 7 || s.Count != 2 {
		t.Errorf("Frame/Count = %d/%d, want 7/2", s.Frame, s.Count)
	}
	// 0.5*1*4 + 0.5*3*1
	if math.Abs(s.KineticEnergy-3.5) > 1e-9 {
		t.Errorf("KineticEnergy = %v, want 3.5", s.KineticEnergy)
	}
	if s.MomentumX != 2 || s.MomentumY != -3 || s.MomentumZ != 0 {
		t.Errorf("momentum = (%v, %v, %v), want (2, -3, 0)", s.MomentumX, s.MomentumY, s.MomentumZ)
	}
	if s.SpeedMax != 2 || math.Abs(s.SpeedMean-1.5) > 1e-9 {
		t.Errorf("speed mean/max = %v/%v, want 1.5/2", s.SpeedMean, s.SpeedMax)
	}
	if math.Abs(s.DensityMean-1.25) > 1e-9 || s.DensityMax != 2 {
		t.Errorf("density mean/max = %v/%v, want 1.25/2", s.DensityMean, s.DensityMax)
	}
	if math.Abs(s.DensityStd-0.75) > 1e-9 {
		t.Errorf("DensityStd = %v, want 0.75", s.DensityStd)
	}
	if s.CompressedFrac != 0.5 {
		t.Errorf("CompressedFrac = %v, want 0.5", s.CompressedFrac)
	}
	// Mass-weighted: (0*1 + 2*3) / 4
	if math.Abs(s.CenterY-1.5) > 1e-9 {
		t.Errorf("CenterY = %v, want 1.5", s.CenterY)
	}
}

func TestComputeFrameStats_NoDensity(t *testing.T) {
	ps := []components.Particle{components.NewParticle(0, 5, 0, 1)}
	s := ComputeFrameStats(1, 0, ps, nil, 1)
	if s.DensityMean != 0 || s.DensityMax != 0 {
		t.Errorf("density stats without a field: %+v", s)
	}
	if s.MinY != 5 || s.MaxY != 5 {
		t.Errorf("MinY/MaxY = %v/%v, want 5/5", s.MinY, s.MaxY)
	}

	empty := ComputeFrameStats(2, 0, nil, nil, 1)
	if empty.Count != 0 || empty.KineticEnergy != 0 {
		t.Errorf("empty stats = %+v", empty)
	}
}
