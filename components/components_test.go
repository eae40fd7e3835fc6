package components

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestSimParams_BinaryLayout(t *testing.T) {
	p := SimParams{
		DT:        0.005,
		H:         25,
		Rho0:      0.01,
		Stiffness: 2000,
		Viscosity: 200,
		Count:     4096,
		GridDim:   16384,
	}
	p.SetPointer(-12.5, 40, true)

	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != SimParamsSize {
		t.Fatalf("encoded size = %d, want %d", len(data), SimParamsSize)
	}

	f32 := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(data[off:])) }
	u32 := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }

	tests := []struct {
		name string
		off  int
		got  func(int) float32
		want float32
	}{
		{"dt", 0, f32, 0.005},
		{"h", 4, f32, 25},
		{"rho0", 8, f32, 0.01},
		{"stiffness", 12, f32, 2000},
		{"viscosity", 16, f32, 200},
		{"pointer_x", 32, f32, -12.5},
		{"pointer_y", 36, f32, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.got(tt.off); got != tt.want {
				t.Errorf("offset %d = %g, want %g", tt.off, got, tt.want)
			}
		})
	}

	if got := u32(20); got != 4096 {
		t.Errorf("count = %d, want 4096", got)
	}
	if got := u32(24); got != 16384 {
		t.Errorf("grid_dim = %d, want 16384", got)
	}
	if got := u32(40); got != 1 {
		t.Errorf("pressed = %d, want 1", got)
	}
	if u32(28) != 0 || u32(44) != 0 {
		t.Errorf("padding words = %d, %d, want zero", u32(28), u32(44))
	}
}

func TestSimParams_UnmarshalBinary(t *testing.T) {
	want := SimParams{DT: 0.01, H: 10, Rho0: 1, Count: 7, GridDim: 64}
	want.SetPointer(1, 2, false)

	data, err := want.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var got SimParams
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got != want {
		t.Errorf("decoded %+v, want %+v", got, want)
	}

	if err := got.UnmarshalBinary(data[:SimParamsSize-4]); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer error = %v, want ErrShortBuffer", err)
	}
}

func TestSimParams_Pointer(t *testing.T) {
	var p SimParams
	p.SetPointer(3, 4, true)
	if !p.PointerActive() || p.Pointer != [2]float32{3, 4} {
		t.Errorf("after press: active=%v pointer=%v", p.PointerActive(), p.Pointer)
	}
	p.SetPointer(5, 6, false)
	if p.PointerActive() {
		t.Error("pointer still active after release")
	}
}

func TestParticles_Encoding(t *testing.T) {
	ps := []Particle{
		NewParticle(1, 2, 3, 0.5),
		NewParticle(-4, 5, 0, 2),
	}
	ps[1].SetVelocity(7, -8, 9)

	data := EncodeParticles(nil, ps)
	if len(data) != len(ps)*ParticleSize {
		t.Fatalf("encoded %d bytes, want %d", len(data), len(ps)*ParticleSize)
	}
	// Mass is the fourth word of the position
	if m := math.Float32frombits(binary.LittleEndian.Uint32(data[12:])); m != 0.5 {
		t.Errorf("mass word = %g, want 0.5", m)
	}

	got := make([]Particle, len(ps))
	if err := DecodeParticles(data, got); err != nil {
		t.Fatalf("DecodeParticles: %v", err)
	}
	for i := range ps {
		if got[i] != ps[i] {
			t.Errorf("particle %d = %+v, want %+v", i, got[i], ps[i])
		}
	}

	if err := DecodeParticles(data[:ParticleSize], got); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("short buffer error = %v, want ErrShortBuffer", err)
	}
}

func TestSentinelPair(t *testing.T) {
	s := SentinelPair()
	if !s.IsSentinel() {
		t.Error("SentinelPair is not a sentinel")
	}
	if (GridPair{Cell: SentinelCell, Particle: 0}).IsSentinel() {
		t.Error("real particle in the sentinel cell reported as sentinel")
	}
}
