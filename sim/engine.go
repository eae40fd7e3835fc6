// Package sim orchestrates solver frames: it owns the particle ping-pong,
// the per-frame parameters and the pass schedule of the active force law.
//
// A frame either completes every pass and is published by toggling the
// current buffer, or fails and leaves the published buffer untouched.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/device"
	"github.com/pthm-cable/fluid/systems"
	"github.com/pthm-cable/fluid/telemetry"
)

// Setup errors.
var (
	ErrCountExceedsCapacity = errors.New("sim: count exceeds buffer capacity")
	ErrZeroGridDim          = systems.ErrZeroGridDim
	ErrGridDimTooLarge      = systems.ErrGridDimTooLarge
	ErrBufferSizeMismatch   = errors.New("sim: state length does not match count")
	ErrUnknownLaw           = errors.New("sim: unknown force law")
	ErrNoParams             = errors.New("sim: params not set")
)

// Options configures an Engine.
type Options struct {
	Capacity int    // particles each ping-pong buffer holds
	Law      string // config.LawSPH or config.LawNBody
	Device   device.Options

	Dedupe   bool
	Gravity  float32
	MaxAccel float32
	Floor    systems.FloorParams
	Pointer  systems.PointerParams
	NBody    systems.NBodyParams

	Logger *slog.Logger
	Perf   *telemetry.PerfCollector // nil disables pass timing
}

// OptionsFromConfig maps the loaded configuration onto engine options.
func OptionsFromConfig(cfg *config.Config, capacity int) Options {
	s := &cfg.Sim
	return Options{
		Capacity: capacity,
		Law:      s.Law,
		Device: device.Options{
			Workers:           cfg.Device.Workers,
			WorkgroupSize:     cfg.Device.WorkgroupSize,
			ParallelThreshold: cfg.Device.ParallelThreshold,
		},
		Dedupe:   cfg.Grid.DedupeSlots,
		Gravity:  float32(s.Gravity),
		MaxAccel: float32(s.MaxAccel),
		Floor: systems.FloorParams{
			Enabled:     s.Floor.Enabled,
			Y:           float32(s.Floor.Y),
			Restitution: float32(s.Floor.Restitution),
			Friction:    float32(s.Floor.Friction),
		},
		Pointer: systems.PointerParams{
			Radius:   float32(cfg.Interaction.Radius),
			Strength: float32(cfg.Interaction.Strength),
			Damping:  float32(cfg.Interaction.Damping),
		},
		NBody: systems.NBodyParams{
			G:         float32(cfg.NBody.G),
			Softening: float32(cfg.NBody.Softening),
		},
	}
}

// ParamsFromConfig builds the initial parameter block for count particles.
func ParamsFromConfig(cfg *config.Config, count int) components.SimParams {
	return components.SimParams{
		DT:        cfg.Derived.DT32,
		H:         cfg.Derived.H32,
		Rho0:      float32(cfg.Sim.Rho0),
		Stiffness: float32(cfg.Sim.Stiffness),
		Viscosity: float32(cfg.Sim.Viscosity),
		Count:     uint32(count),
		GridDim:   cfg.Derived.GridDim,
	}
}

// Engine runs frames of one force law over a pair of particle buffers.
// It is driven from a single goroutine.
type Engine struct {
	law    Law
	exec   *device.Executor
	logger *slog.Logger
	perf   *telemetry.PerfCollector

	bufs    [2][]components.Particle
	current int

	params    components.SimParams
	hasParams bool

	frame   int64
	simTime float64

	outOfDomain     atomic.Uint32
	lastOutOfDomain uint32
	warnedDomain    bool
}

// New creates an engine for the law named in opts.
func New(opts Options) (*Engine, error) {
	law, err := NewLaw(&opts)
	if err != nil {
		return nil, err
	}
	return NewWithLaw(opts, law)
}

// NewWithLaw creates an engine around an existing law.
func NewWithLaw(opts Options, law Law) (*Engine, error) {
	if opts.Capacity < 0 {
		return nil, fmt.Errorf("capacity %d: %w", opts.Capacity, ErrCountExceedsCapacity)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		law:    law,
		exec:   device.New(opts.Device),
		logger: logger,
		perf:   opts.Perf,
	}
	e.bufs[0] = make([]components.Particle, opts.Capacity)
	e.bufs[1] = make([]components.Particle, opts.Capacity)

	attrs := []any{
		"law", law.Name(),
		"capacity", opts.Capacity,
		"workers", e.exec.Workers(),
		"workgroup_size", e.exec.WorkgroupSize(),
	}
	if sph, ok := law.(*SPH); ok {
		mode := "dedupe"
		if !sph.Dedupe {
			mode = "reference"
		}
		attrs = append(attrs, "neighbor_walk", mode)
	}
	logger.Info("engine created", attrs...)
	return e, nil
}

// Close stops the executor's workers.
func (e *Engine) Close() { e.exec.Close() }

// Law returns the active force law.
func (e *Engine) Law() Law { return e.law }

// Capacity returns the particle capacity of each buffer.
func (e *Engine) Capacity() int { return len(e.bufs[0]) }

// Params returns the current parameter block.
func (e *Engine) Params() components.SimParams { return e.params }

// SetParams validates p and makes it the parameter block for later frames.
// On error the previous parameters stay in effect.
func (e *Engine) SetParams(p components.SimParams) error {
	if int(p.Count) > e.Capacity() {
		return fmt.Errorf("count %d, capacity %d: %w", p.Count, e.Capacity(), ErrCountExceedsCapacity)
	}
	if err := e.law.Prepare(p); err != nil {
		return fmt.Errorf("preparing %s law: %w", e.law.Name(), err)
	}

	// Bindings do not depend on which half is current
	n := int(p.Count)
	probe := &Frame{Src: e.bufs[0][:n], Dst: e.bufs[1][:n], Params: p, OutOfDomain: &e.outOfDomain}
	if err := e.law.Schedule(probe).Validate(); err != nil {
		return fmt.Errorf("validating %s schedule: %w", e.law.Name(), err)
	}

	e.params = p
	e.hasParams = true
	return nil
}

// SetPointer updates the interaction input for the next frame.
func (e *Engine) SetPointer(x, y float32, pressed bool) {
	e.params.SetPointer(x, y, pressed)
}

// WriteState copies ps into the published buffer. len(ps) must equal the
// current count.
func (e *Engine) WriteState(ps []components.Particle) error {
	if !e.hasParams {
		return ErrNoParams
	}
	if len(ps) != int(e.params.Count) {
		return fmt.Errorf("state has %d particles, count is %d: %w", len(ps), e.params.Count, ErrBufferSizeMismatch)
	}
	copy(e.bufs[e.current], ps)
	return nil
}

// Reset publishes ps as frame zero.
func (e *Engine) Reset(ps []components.Particle) error {
	if err := e.WriteState(ps); err != nil {
		return err
	}
	if e.current != 0 {
		copy(e.bufs[0], e.bufs[e.current][:len(ps)])
		e.current = 0
	}
	e.frame = 0
	e.simTime = 0
	e.lastOutOfDomain = 0
	e.warnedDomain = false
	return nil
}

// Current returns the published particle buffer. Callers must not modify it.
func (e *Engine) Current() []components.Particle {
	return e.bufs[e.current][:e.params.Count]
}

// CurrentIndex returns which half of the ping-pong is published.
func (e *Engine) CurrentIndex() int { return e.current }

// Density returns the density field of the last completed frame, or nil
// for laws without one. A failed frame leaves it unchanged.
func (e *Engine) Density() []float32 {
	if dl, ok := e.law.(DensityLaw); ok {
		return dl.Density()
	}
	return nil
}

// Frame returns the number of completed frames.
func (e *Engine) Frame() int64 { return e.frame }

// SimTime returns the simulated seconds elapsed.
func (e *Engine) SimTime() float64 { return e.simTime }

// OutOfDomain returns how many particles were outside the hashable domain
// in the last completed frame.
func (e *Engine) OutOfDomain() uint32 { return e.lastOutOfDomain }

// Step computes one frame. If any pass fails the frame is discarded: the
// published buffer and index are unchanged and the error is returned.
func (e *Engine) Step() error {
	if !e.hasParams {
		return ErrNoParams
	}
	n := int(e.params.Count)
	f := &Frame{
		Src:         e.bufs[e.current][:n],
		Dst:         e.bufs[1-e.current][:n],
		Params:      e.params,
		OutOfDomain: &e.outOfDomain,
	}
	e.outOfDomain.Store(0)

	e.perf.StartTick()
	if err := e.law.Schedule(f).Run(e.exec, e.perf.StartPhase); err != nil {
		e.perf.AbortTick()
		e.logger.Error("frame aborted", "frame", e.frame, "error", err)
		return fmt.Errorf("frame %d: %w", e.frame, err)
	}
	e.perf.EndTick()

	if c, ok := e.law.(Committer); ok {
		c.Commit()
	}
	e.current = 1 - e.current
	e.frame++
	e.simTime += float64(e.params.DT)

	e.lastOutOfDomain = e.outOfDomain.Load()
	if e.lastOutOfDomain > 0 && !e.warnedDomain {
		e.warnedDomain = true
		e.logger.Warn("particles outside hash domain",
			"frame", e.frame,
			"count", e.lastOutOfDomain,
			"limit_world", float32(systems.CellCoordOffset)*e.params.H,
		)
	}
	return nil
}

// Advance runs substeps frames, stopping at the first failure.
func (e *Engine) Advance(substeps int) error {
	for i := 0; i < substeps; i++ {
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run steps frames until ctx is done or, when frames > 0, that many frames
// have completed.
func (e *Engine) Run(ctx context.Context, frames int64) error {
	for i := int64(0); frames <= 0 || i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.Step(); err != nil {
			return err
		}
	}
	return nil
}
