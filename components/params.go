package components

import (
	"encoding/binary"
	"fmt"
)

// SimParamsVersion identifies the SimParams layout. Consumers outside the
// solver (viewer, tooling) check it before reading raw parameter blocks.
// Bump it whenever a field is added, removed, resized or reordered.
const SimParamsVersion = 1

// SimParamsSize is the encoded size of SimParams in bytes.
const SimParamsSize = 48

// SimParams is the per-frame uniform block. It is immutable while a frame is
// being dispatched; the host updates it between frames.
type SimParams struct {
	DT        float32    `json:"dt"`
	H         float32    `json:"h"`         // smoothing radius, also the grid cell size
	Rho0      float32    `json:"rho0"`      // rest density
	Stiffness float32    `json:"stiffness"` // Tait EOS stiffness B
	Viscosity float32    `json:"viscosity"` // viscosity coefficient mu
	Count     uint32     `json:"count"`     // live particle count
	GridDim   uint32     `json:"grid_dim"`  // hash table size
	_         uint32     // vec2 alignment
	Pointer   [2]float32 `json:"pointer"`
	Pressed   uint32     `json:"pressed"` // 0 or 1
	_         uint32
}

// PointerActive reports whether the interaction input is pressed.
func (p *SimParams) PointerActive() bool { return p.Pressed != 0 }

// SetPointer updates the interaction point and pressed flag.
func (p *SimParams) SetPointer(x, y float32, pressed bool) {
	p.Pointer = [2]float32{x, y}
	p.Pressed = 0
	if pressed {
		p.Pressed = 1
	}
}

// MarshalBinary encodes the block in its device layout.
func (p SimParams) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, SimParamsSize)
	return binary.Append(buf, binary.LittleEndian, p)
}

// UnmarshalBinary decodes a block produced by MarshalBinary.
func (p *SimParams) UnmarshalBinary(data []byte) error {
	if len(data) != SimParamsSize {
		return fmt.Errorf("sim params: got %d bytes, want %d: %w", len(data), SimParamsSize, ErrShortBuffer)
	}
	if _, err := binary.Decode(data, binary.LittleEndian, p); err != nil {
		return fmt.Errorf("decoding sim params: %w", err)
	}
	return nil
}
