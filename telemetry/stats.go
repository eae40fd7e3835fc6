package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/fluid/components"
)

// FrameStats summarizes one published particle buffer.
type FrameStats struct {
	Frame      int64   `csv:"frame"`
	SimTimeSec float64 `csv:"sim_time"`
	Count      int     `csv:"count"`

	// Conserved quantities
	KineticEnergy float64 `csv:"kinetic_energy"`
	MomentumX     float64 `csv:"momentum_x"`
	MomentumY     float64 `csv:"momentum_y"`
	MomentumZ     float64 `csv:"momentum_z"`

	// Speed distribution
	SpeedMean float64 `csv:"speed_mean"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Density distribution (zero for laws without a density field)
	DensityMean    float64 `csv:"density_mean"`
	DensityStd     float64 `csv:"density_std"`
	DensityP10     float64 `csv:"density_p10"`
	DensityP50     float64 `csv:"density_p50"`
	DensityP90     float64 `csv:"density_p90"`
	DensityMax     float64 `csv:"density_max"`
	CompressedFrac float64 `csv:"compressed_frac"` // Fraction above rest density

	// Shape of the body of fluid
	CenterY float64 `csv:"center_y"`
	MinY    float64 `csv:"min_y"`
	MaxY    float64 `csv:"max_y"`

	OutOfDomain uint32 `csv:"out_of_domain"`
}

// ComputeFrameStats gathers statistics over the particles and, when
// non-nil, the density field that produced them.
func ComputeFrameStats(frame int64, simTime float64, ps []components.Particle, density []float32, rho0 float32) FrameStats {
	s := FrameStats{Frame: frame, SimTimeSec: simTime, Count: len(ps)}
	n := len(ps)
	if n == 0 {
		return s
	}

	masses := make([]float64, n)
	speeds := make([]float64, n)
	ys := make([]float64, n)
	for i := range ps {
		p := &ps[i]
		m := float64(p.Mass())
		vx, vy, vz := float64(p.Vel[0]), float64(p.Vel[1]), float64(p.Vel[2])
		v2 := vx*vx + vy*vy + vz*vz

		masses[i] = m
		speeds[i] = math.Sqrt(v2)
		ys[i] = float64(p.Pos[1])

		s.KineticEnergy += 0.5 * m * v2
		s.MomentumX += m * vx
		s.MomentumY += m * vy
		s.MomentumZ += m * vz
	}

	s.SpeedMean = stat.Mean(speeds, nil)
	s.SpeedMax = floats.Max(speeds)
	sort.Float64s(speeds)
	s.SpeedP90 = Percentile(speeds, 0.90)

	s.CenterY = stat.Mean(ys, masses)
	s.MinY = floats.Min(ys)
	s.MaxY = floats.Max(ys)

	if len(density) >= n {
		rho := make([]float64, n)
		compressed := 0
		for i := 0; i < n; i++ {
			rho[i] = float64(density[i])
			if density[i] > rho0 {
				compressed++
			}
		}
		s.DensityMean, s.DensityP10, s.DensityP50, s.DensityP90 = ComputeDistribution(rho)
		s.DensityStd = stat.PopStdDev(rho, nil)
		s.DensityMax = floats.Max(rho)
		s.CompressedFrac = float64(compressed) / float64(n)
	}

	return s
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeDistribution calculates mean and percentiles from unsorted values.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	mean = stat.Mean(values, nil)

	// Sort a copy for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("frame", s.Frame),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("count", s.Count),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("momentum_x", s.MomentumX),
		slog.Float64("momentum_y", s.MomentumY),
		slog.Float64("momentum_z", s.MomentumZ),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("density_mean", s.DensityMean),
		slog.Float64("density_std", s.DensityStd),
		slog.Float64("density_max", s.DensityMax),
		slog.Float64("compressed_frac", s.CompressedFrac),
		slog.Float64("center_y", s.CenterY),
		slog.Uint64("out_of_domain", uint64(s.OutOfDomain)),
	)
}

// LogStats logs the frame stats using slog.
func (s FrameStats) LogStats() {
	slog.Info("stats",
		"frame", s.Frame,
		"sim_time", s.SimTimeSec,
		"count", s.Count,
		"kinetic_energy", s.KineticEnergy,
		"momentum_y", s.MomentumY,
		"speed_mean", s.SpeedMean,
		"speed_max", s.SpeedMax,
		"density_mean", s.DensityMean,
		"density_max", s.DensityMax,
		"compressed_frac", s.CompressedFrac,
		"center_y", s.CenterY,
		"min_y", s.MinY,
	)
}
