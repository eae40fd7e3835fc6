package main

import (
	"io"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/device"
	"github.com/pthm-cable/fluid/scene"
	"github.com/pthm-cable/fluid/sim"
	"github.com/pthm-cable/fluid/telemetry"
)

// Fitness weights.
const (
	// regularization pulls toward the starting values so an underdetermined
	// fit (h and mass trade off) stays close to the base config.
	regularization = 1e-3

	// compressionWeight penalizes the fraction of particles above rest
	// density after settling.
	compressionWeight = 0.25

	// failurePenalty is returned for runs that fail or diverge.
	failurePenalty = 1e6
)

// Evaluator scores parameter vectors by how close the scene's median
// density sits to rest density.
type Evaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	frames     int
	seeds      []int64
	device     device.Options

	lastDensityRatio float64
}

// NewEvaluator creates an evaluator. With frames > 0 each candidate also
// runs the solver that many frames before measuring.
func NewEvaluator(params *ParamVector, baseCfg *config.Config, frames int, seeds []int64) *Evaluator {
	return &Evaluator{
		params:     params,
		baseConfig: baseCfg,
		frames:     frames,
		seeds:      seeds,
		device: device.Options{
			Workers:           baseCfg.Device.Workers,
			WorkgroupSize:     baseCfg.Device.WorkgroupSize,
			ParallelThreshold: baseCfg.Device.ParallelThreshold,
		},
	}
}

// LastDensityRatio returns median density over rho0 from the most recent
// evaluation, averaged over seeds.
func (ev *Evaluator) LastDensityRatio() float64 { return ev.lastDensityRatio }

// Evaluate computes fitness for raw parameter values (lower = better).
func (ev *Evaluator) Evaluate(raw []float64) float64 {
	cfg := ev.copyConfig()
	ev.params.ApplyToConfig(cfg, raw)

	ratios := make([]float64, 0, len(ev.seeds))
	var penalty float64
	for _, seed := range ev.seeds {
		stats, ok := ev.run(cfg, seed)
		if !ok {
			ev.lastDensityRatio = math.NaN()
			return failurePenalty
		}
		ratios = append(ratios, stats.DensityP50/cfg.Sim.Rho0)
		penalty += compressionWeight * stats.CompressedFrac * stats.CompressedFrac
	}
	ev.lastDensityRatio = floats.Sum(ratios) / float64(len(ratios))

	var fitness float64
	for _, r := range ratios {
		fitness += (r - 1) * (r - 1)
	}
	fitness = (fitness + penalty) / float64(len(ratios))

	// Distance from the starting point in normalized space
	start := ev.params.Normalize(ev.params.DefaultVector())
	cur := ev.params.Normalize(ev.params.Clamp(raw))
	return fitness + regularization*floats.Distance(cur, start, 2)
}

// run builds the scene for seed, optionally steps the solver, and returns
// the frame stats of the final published state.
func (ev *Evaluator) run(cfg *config.Config, seed int64) (telemetry.FrameStats, bool) {
	ps := scene.FromConfig(&cfg.Scene, seed).Build()

	opts := sim.OptionsFromConfig(cfg, len(ps))
	opts.Law = config.LawSPH
	opts.Device = ev.device
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))

	e, err := sim.New(opts)
	if err != nil {
		return telemetry.FrameStats{}, false
	}
	defer e.Close()

	if err := e.SetParams(sim.ParamsFromConfig(cfg, len(ps))); err != nil {
		return telemetry.FrameStats{}, false
	}
	if err := e.Reset(ps); err != nil {
		return telemetry.FrameStats{}, false
	}

	// One frame fills the density field for the initial layout
	if err := e.Advance(max(ev.frames, 1)); err != nil {
		return telemetry.FrameStats{}, false
	}

	stats := telemetry.ComputeFrameStats(e.Frame(), e.SimTime(), e.Current(), e.Density(), e.Params().Rho0)
	if math.IsNaN(stats.KineticEnergy) || math.IsInf(stats.KineticEnergy, 0) {
		return stats, false
	}
	return stats, true
}

// copyConfig creates a deep copy of the base config.
func (ev *Evaluator) copyConfig() *config.Config {
	cfg := *ev.baseConfig
	cfg.Scene.Blocks = slices.Clone(ev.baseConfig.Scene.Blocks)
	cfg.Scene.Spheres = slices.Clone(ev.baseConfig.Scene.Spheres)
	return &cfg
}
