// Package config provides configuration loading and access for the solver.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Force laws understood by the engine.
const (
	LawSPH   = "sph"
	LawNBody = "nbody"
)

// Config holds all solver configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Sim         SimConfig         `yaml:"sim"`
	Grid        GridConfig        `yaml:"grid"`
	Interaction InteractionConfig `yaml:"interaction"`
	NBody       NBodyConfig       `yaml:"nbody"`
	Device      DeviceConfig      `yaml:"device"`
	Scene       SceneConfig       `yaml:"scene"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the viewer.
type ScreenConfig struct {
	Width          int     `yaml:"width"`
	Height         int     `yaml:"height"`
	TargetFPS      int     `yaml:"target_fps"`
	Zoom           float64 `yaml:"zoom"`            // Pixels per world unit
	ParticleRadius float64 `yaml:"particle_radius"` // Draw radius in world units
	StartPaused    bool    `yaml:"start_paused"`
}

// SimConfig holds the per-frame solver parameters.
type SimConfig struct {
	Law       string      `yaml:"law"`      // sph or nbody
	Capacity  int         `yaml:"capacity"` // Buffer capacity (0 = scene particle count)
	DT        float64     `yaml:"dt"`
	H         float64     `yaml:"h"`         // Smoothing radius, also the grid cell size
	Rho0      float64     `yaml:"rho0"`      // Rest density
	Stiffness float64     `yaml:"stiffness"` // Tait EOS coefficient B
	Viscosity float64     `yaml:"viscosity"` // mu
	Gravity   float64     `yaml:"gravity"`   // Signed acceleration along y
	MaxAccel  float64     `yaml:"max_accel"` // Acceleration ceiling (0 = no clamp)
	Substeps  int         `yaml:"substeps"`  // Solver frames per rendered frame
	Floor     FloorConfig `yaml:"floor"`
}

// FloorConfig holds the floor plane response.
type FloorConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Y           float64 `yaml:"y"`
	Restitution float64 `yaml:"restitution"` // Vertical speed kept after a bounce
	Friction    float64 `yaml:"friction"`    // Horizontal speed kept after a bounce
}

// GridConfig holds the spatial hash table parameters.
type GridConfig struct {
	Dim         int  `yaml:"dim"`          // Number of hash table slots
	DedupeSlots bool `yaml:"dedupe_slots"` // Visit colliding candidate slots once
}

// InteractionConfig holds the pointer spring parameters.
type InteractionConfig struct {
	Radius   float64 `yaml:"radius"`
	Strength float64 `yaml:"strength"`
	Damping  float64 `yaml:"damping"`
}

// NBodyConfig holds the gravity law parameters.
type NBodyConfig struct {
	G         float64 `yaml:"g"`
	Softening float64 `yaml:"softening"` // Added to squared distance
}

// DeviceConfig holds executor parameters.
type DeviceConfig struct {
	Workers           int `yaml:"workers"`            // 0 = GOMAXPROCS
	WorkgroupSize     int `yaml:"workgroup_size"`     // Invocations per chunk alignment
	ParallelThreshold int `yaml:"parallel_threshold"` // Below this a pass runs inline
}

// SceneConfig describes the initial particle layout.
type SceneConfig struct {
	Jitter      float64        `yaml:"jitter"`       // Max lattice offset in world units
	JitterScale float64        `yaml:"jitter_scale"` // Noise frequency per world unit
	Blocks      []BlockConfig  `yaml:"blocks"`
	Spheres     []SphereConfig `yaml:"spheres"`
}

// BlockConfig is a rectangular lattice emitter.
type BlockConfig struct {
	Origin   [3]float64 `yaml:"origin,flow"`
	Cols     int        `yaml:"cols"`
	Rows     int        `yaml:"rows"`
	Layers   int        `yaml:"layers"`
	Spacing  float64    `yaml:"spacing"`
	Mass     float64    `yaml:"mass"`
	Velocity [3]float64 `yaml:"velocity,flow"`
	Centered bool       `yaml:"centered"` // Center columns on Origin.x
}

// SphereConfig is a lattice emitter clipped to a ball (or disc when flat).
type SphereConfig struct {
	Center   [3]float64 `yaml:"center,flow"`
	Radius   float64    `yaml:"radius"`
	Spacing  float64    `yaml:"spacing"`
	Mass     float64    `yaml:"mass"`
	Flat     bool       `yaml:"flat"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

// TelemetryConfig holds logging and output cadence.
type TelemetryConfig struct {
	StatsEvery int `yaml:"stats_every"` // Frames between frame stat records
	PerfWindow int `yaml:"perf_window"` // Frames in the perf rolling window
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32      float32 // Sim.DT as float32
	H32       float32 // Sim.H as float32
	GridDim   uint32  // Grid.Dim as uint32
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used. The result is validated.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.Sim.Law = strings.ToLower(strings.TrimSpace(cfg.Sim.Law))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.ComputeDerived()
	return cfg, nil
}

// Validate reports every setup error in the configuration.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Sim.Law == LawSPH || c.Sim.Law == LawNBody, "sim.law %q: want %q or %q", c.Sim.Law, LawSPH, LawNBody)
	check(c.Sim.Capacity >= 0, "sim.capacity %d: must not be negative", c.Sim.Capacity)
	check(c.Sim.DT > 0, "sim.dt %g: must be positive", c.Sim.DT)
	check(c.Sim.H > 0, "sim.h %g: must be positive", c.Sim.H)
	check(c.Sim.Rho0 > 0, "sim.rho0 %g: must be positive", c.Sim.Rho0)
	check(c.Sim.Stiffness >= 0, "sim.stiffness %g: must not be negative", c.Sim.Stiffness)
	check(c.Sim.Viscosity >= 0, "sim.viscosity %g: must not be negative", c.Sim.Viscosity)
	check(c.Sim.MaxAccel >= 0, "sim.max_accel %g: must not be negative", c.Sim.MaxAccel)
	check(c.Sim.Substeps >= 1, "sim.substeps %d: must be at least 1", c.Sim.Substeps)
	check(inUnit(c.Sim.Floor.Restitution), "sim.floor.restitution %g: must be in [0, 1]", c.Sim.Floor.Restitution)
	check(inUnit(c.Sim.Floor.Friction), "sim.floor.friction %g: must be in [0, 1]", c.Sim.Floor.Friction)

	check(c.Grid.Dim > 0, "grid.dim %d: must be positive", c.Grid.Dim)
	check(int64(c.Grid.Dim) < math.MaxUint32, "grid.dim %d: must be below %d", c.Grid.Dim, uint32(math.MaxUint32))

	check(c.Interaction.Radius >= 0, "interaction.radius %g: must not be negative", c.Interaction.Radius)
	check(c.NBody.Softening >= 0, "nbody.softening %g: must not be negative", c.NBody.Softening)

	check(c.Device.Workers >= 0, "device.workers %d: must not be negative", c.Device.Workers)
	check(c.Device.WorkgroupSize >= 0, "device.workgroup_size %d: must not be negative", c.Device.WorkgroupSize)

	check(len(c.Scene.Blocks)+len(c.Scene.Spheres) > 0, "scene: no emitters")
	for i, b := range c.Scene.Blocks {
		check(b.Cols > 0 && b.Rows > 0 && b.Layers > 0, "scene.blocks[%d]: cols, rows and layers must be positive", i)
		check(b.Spacing > 0, "scene.blocks[%d].spacing %g: must be positive", i, b.Spacing)
		check(b.Mass > 0, "scene.blocks[%d].mass %g: must be positive", i, b.Mass)
	}
	for i, s := range c.Scene.Spheres {
		check(s.Radius > 0, "scene.spheres[%d].radius %g: must be positive", i, s.Radius)
		check(s.Spacing > 0, "scene.spheres[%d].spacing %g: must be positive", i, s.Spacing)
		check(s.Mass > 0, "scene.spheres[%d].mass %g: must be positive", i, s.Mass)
	}

	check(c.Telemetry.StatsEvery >= 0, "telemetry.stats_every %d: must not be negative", c.Telemetry.StatsEvery)
	check(c.Telemetry.PerfWindow >= 0, "telemetry.perf_window %d: must not be negative", c.Telemetry.PerfWindow)

	return errors.Join(errs...)
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}

// ComputeDerived calculates values derived from loaded config. Call it
// again after changing the source fields.
func (c *Config) ComputeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.H32 = float32(c.Sim.H)
	c.Derived.GridDim = uint32(c.Grid.Dim)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
