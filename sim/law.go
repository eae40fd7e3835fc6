package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/pthm-cable/fluid/components"
	"github.com/pthm-cable/fluid/config"
	"github.com/pthm-cable/fluid/systems"
	"github.com/pthm-cable/fluid/telemetry"
)

// Frame is the buffer set one frame is computed over.
type Frame struct {
	Src    []components.Particle // published state, read only
	Dst    []components.Particle // next state
	Params components.SimParams

	// OutOfDomain collects particles whose cell left the hashable range.
	OutOfDomain *atomic.Uint32
}

// Law turns the published particle state into the next one.
type Law interface {
	Name() string

	// Prepare sizes the law's own buffers for p. It is called whenever the
	// parameters change and may reject them.
	Prepare(p components.SimParams) error

	// Schedule returns the passes that compute f.Dst from f.Src.
	Schedule(f *Frame) Schedule
}

// DensityLaw is implemented by laws that keep a per-particle density field.
type DensityLaw interface {
	Density() []float32
}

// Committer is implemented by laws that keep per-frame buffers of their own.
// The engine calls Commit after a frame completes and never after a failed
// one, so those buffers publish together with the particles.
type Committer interface {
	Commit()
}

// NewLaw creates the law named by opts.Law.
func NewLaw(opts *Options) (Law, error) {
	switch opts.Law {
	case config.LawSPH, "":
		return &SPH{
			Dedupe:   opts.Dedupe,
			Gravity:  opts.Gravity,
			MaxAccel: opts.MaxAccel,
			Floor:    opts.Floor,
			Pointer:  opts.Pointer,
		}, nil
	case config.LawNBody:
		return &NBody{G: opts.NBody.G, Softening: opts.NBody.Softening}, nil
	}
	return nil, fmt.Errorf("law %q: %w", opts.Law, ErrUnknownLaw)
}

// SPH is the weakly compressible fluid law: index rebuild, density, force.
type SPH struct {
	Dedupe   bool
	Gravity  float32
	MaxAccel float32
	Floor    systems.FloorParams
	Pointer  systems.PointerParams // Active, X and Y come from the frame params

	grid *systems.Grid

	// density[pub] belongs to the last completed frame; the other half is
	// written by the frame in flight.
	density [2][]float32
	pub     int
}

// Name implements Law.
func (s *SPH) Name() string { return config.LawSPH }

// Prepare implements Law. Grid and density buffers are reallocated only when
// the count or table size changes.
func (s *SPH) Prepare(p components.SimParams) error {
	n := int(p.Count)
	if s.grid == nil || s.grid.Count != n || s.grid.GridDim != p.GridDim {
		g, err := systems.NewGrid(n, p.GridDim)
		if err != nil {
			return err
		}
		s.grid = g
	}
	s.grid.Dedupe = s.Dedupe
	if len(s.density[0]) != n {
		s.density[0] = make([]float32, n)
		s.density[1] = make([]float32, n)
		s.pub = 0
	}
	return nil
}

// Grid returns the spatial index of the last frame.
func (s *SPH) Grid() *systems.Grid { return s.grid }

// Density implements DensityLaw. It returns the field of the last completed
// frame.
func (s *SPH) Density() []float32 { return s.density[s.pub] }

// Commit implements Committer by publishing the density written this frame.
func (s *SPH) Commit() { s.pub = 1 - s.pub }

// ForceParams returns the force pass parameters for one frame.
func (s *SPH) ForceParams(p *components.SimParams) systems.ForceParams {
	pointer := s.Pointer
	pointer.Active = p.PointerActive()
	pointer.X, pointer.Y = p.Pointer[0], p.Pointer[1]
	return systems.ForceParams{
		DT:        p.DT,
		Rho0:      p.Rho0,
		Stiffness: p.Stiffness,
		Viscosity: p.Viscosity,
		Gravity:   s.Gravity,
		MaxAccel:  s.MaxAccel,
		Floor:     s.Floor,
		Pointer:   pointer,
	}
}

// Schedule implements Law:
// hash, sort stages, clear offsets, find offsets, density, force.
func (s *SPH) Schedule(f *Frame) Schedule {
	g := s.grid
	p := &f.Params
	k := systems.NewKernels(p.H)
	density := s.density[1-s.pub]
	stages := systems.BitonicStages(g.Count)

	sched := make(Schedule, 0, len(stages)+5)
	sched = append(sched, Pass{
		Name:        "hash",
		Phase:       telemetry.PhaseHash,
		Invocations: g.Padded(),
		Reads:       []Buffer{BufSrc},
		Writes:      []Buffer{BufPairs},
		Kernel:      g.HashKernel(f.Src, p.H, f.OutOfDomain),
	})
	for i := range stages {
		st := &stages[i]
		sched = append(sched, Pass{
			Name:        fmt.Sprintf("sort k=%d j=%d", st.K, st.J),
			Phase:       telemetry.PhaseSort,
			Invocations: g.Padded(),
			Reads:       []Buffer{BufPairs},
			Writes:      []Buffer{BufPairs},
			InPlace:     true,
			Sort:        st,
			Kernel:      systems.BitonicStageKernel(g.Pairs, *st),
		})
	}
	sched = append(sched,
		Pass{
			Name:        "clear_offsets",
			Phase:       telemetry.PhaseOffsets,
			Invocations: int(g.GridDim),
			Writes:      []Buffer{BufOffsets},
			Kernel:      g.ClearOffsetsKernel(),
		},
		Pass{
			Name:        "find_offsets",
			Phase:       telemetry.PhaseOffsets,
			Invocations: g.Count,
			Reads:       []Buffer{BufPairs},
			Writes:      []Buffer{BufOffsets},
			Kernel:      g.FindOffsetsKernel(),
		},
		Pass{
			Name:        "density",
			Phase:       telemetry.PhaseDensity,
			Invocations: g.Count,
			Reads:       []Buffer{BufSrc, BufPairs, BufOffsets},
			Writes:      []Buffer{BufDensity},
			Kernel:      g.DensityKernel(f.Src, density, k),
		},
		Pass{
			Name:        "force",
			Phase:       telemetry.PhaseForce,
			Invocations: g.Count,
			Reads:       []Buffer{BufSrc, BufPairs, BufOffsets, BufDensity},
			Writes:      []Buffer{BufDst},
			Kernel:      g.ForceKernel(f.Src, f.Dst, density, k, s.ForceParams(p)),
		},
	)
	return sched
}

// NBody is the direct-summation gravity law. It uses no spatial index.
type NBody struct {
	G         float32
	Softening float32
}

// Name implements Law.
func (n *NBody) Name() string { return config.LawNBody }

// Prepare implements Law.
func (n *NBody) Prepare(components.SimParams) error { return nil }

// Schedule implements Law: a single gravity pass.
func (n *NBody) Schedule(f *Frame) Schedule {
	np := systems.NBodyParams{DT: f.Params.DT, G: n.G, Softening: n.Softening}
	return Schedule{{
		Name:        "nbody",
		Phase:       telemetry.PhaseNBody,
		Invocations: len(f.Dst),
		Reads:       []Buffer{BufSrc},
		Writes:      []Buffer{BufDst},
		Kernel:      systems.NBodyKernel(f.Src, f.Dst, np),
	}}
}
