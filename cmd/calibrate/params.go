package main

import (
	"github.com/pthm-cable/fluid/config"
)

// ParamSpec defines a single calibrated parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value, taken from the base config
}

// ParamVector holds the set of calibrated parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the calibrated parameter set, starting from cfg.
func NewParamVector(cfg *config.Config) *ParamVector {
	mass := 1.0
	if len(cfg.Scene.Blocks) > 0 {
		mass = cfg.Scene.Blocks[0].Mass
	} else if len(cfg.Scene.Spheres) > 0 {
		mass = cfg.Scene.Spheres[0].Mass
	}
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "h", Path: "sim.h", Min: 5, Max: 100, Default: cfg.Sim.H},
			{Name: "mass", Path: "scene.*.mass", Min: 0.01, Max: 100, Default: mass},
			{Name: "stiffness", Path: "sim.stiffness", Min: 100, Max: 20000, Default: cfg.Sim.Stiffness},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to cfg and refreshes its derived
// block. Mass applies to every emitter.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	cfg.Sim.H = clamped[0]
	for i := range cfg.Scene.Blocks {
		cfg.Scene.Blocks[i].Mass = clamped[1]
	}
	for i := range cfg.Scene.Spheres {
		cfg.Scene.Spheres[i].Mass = clamped[1]
	}
	cfg.Sim.Stiffness = clamped[2]

	cfg.ComputeDerived()
}
