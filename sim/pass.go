package sim

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/fluid/device"
	"github.com/pthm-cable/fluid/systems"
)

// Buffer names a storage binding a pass reads or writes.
type Buffer string

// Bindings used by the built-in laws. Src and Dst are the two halves of the
// particle ping-pong as seen from the frame being computed.
const (
	BufSrc     Buffer = "particles_src"
	BufDst     Buffer = "particles_dst"
	BufPairs   Buffer = "grid_pairs"
	BufOffsets Buffer = "cell_offsets"
	BufDensity Buffer = "density"
)

// Schedule errors.
var (
	// ErrAliasedBinding is returned when a pass binds one buffer for both
	// reading and writing without declaring an in-place contract.
	ErrAliasedBinding = errors.New("sim: buffer bound for read and write")

	// ErrInvalidPass is returned for a pass with no kernel or a negative
	// invocation count.
	ErrInvalidPass = errors.New("sim: invalid pass")
)

// Pass is one dispatch of a frame. Passes run strictly in schedule order and
// each one returns only after all its invocations have finished.
type Pass struct {
	Name        string
	Phase       string // telemetry phase the pass reports under
	Invocations int
	Reads       []Buffer
	Writes      []Buffer

	// InPlace declares that invocations update their own slots of a buffer
	// they also read (sort stages).
	InPlace bool

	// Sort is the bitonic stage for sort passes, nil otherwise.
	Sort *systems.SortStage

	Kernel device.Kernel
}

// Schedule is the ordered pass list of one frame.
type Schedule []Pass

// Validate checks every pass binding.
func (s Schedule) Validate() error {
	var errs []error
	for i := range s {
		p := &s[i]
		if p.Kernel == nil || p.Invocations < 0 {
			errs = append(errs, fmt.Errorf("pass %d %q: %w", i, p.Name, ErrInvalidPass))
			continue
		}
		if p.InPlace {
			continue
		}
		for _, w := range p.Writes {
			for _, r := range p.Reads {
				if w == r {
					errs = append(errs, fmt.Errorf("pass %d %q: %s: %w", i, p.Name, w, ErrAliasedBinding))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Names returns the pass names in order.
func (s Schedule) Names() []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}
	return names
}

// Run dispatches every pass on exec in order. It stops at the first failed
// dispatch and returns its error; later passes do not run.
func (s Schedule) Run(exec *device.Executor, onPhase func(phase string)) error {
	for i := range s {
		p := &s[i]
		if onPhase != nil {
			onPhase(p.Phase)
		}
		if err := exec.Dispatch(p.Name, p.Invocations, p.Kernel); err != nil {
			return fmt.Errorf("pass %q: %w", p.Name, err)
		}
	}
	return nil
}
