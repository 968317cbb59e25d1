package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/gravsim/internal/barneshut"
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/vecmath"
)

const (
	DefaultDT          = 1.0
	DefaultSteps       = 1000
	DefaultRecordEvery = 10
	DefaultIntegrator  = "symplectic"
	DefaultMode        = "auto"
)

type Config struct {
	Name          string           `yaml:"name"`
	Mode          string           `yaml:"mode"`
	Theta         float64          `yaml:"theta"`
	GPUThreshold  int              `yaml:"gpu_threshold"`
	MaxDepth      int              `yaml:"max_depth"`
	Workers       int              `yaml:"workers"`
	Integrator    string           `yaml:"integrator"`
	DT            float64          `yaml:"dt"`
	Steps         int              `yaml:"steps"`
	RecordEvery   int              `yaml:"record_every"`
	ValidateState bool             `yaml:"validate_state"`
	Bodies        []BodyConfig     `yaml:"bodies,omitempty"`
	Generator     *GeneratorConfig `yaml:"generator,omitempty"`

	// StabilityRadius enables the stability metric when positive.
	StabilityRadius float64 `yaml:"stability_radius,omitempty"`
}

type BodyConfig struct {
	Name     string     `yaml:"name,omitempty"`
	Mass     float64    `yaml:"mass"`
	Position [3]float64 `yaml:"position,flow"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

type GeneratorConfig struct {
	Kind        string  `yaml:"kind"`
	N           int     `yaml:"n"`
	Seed        int64   `yaml:"seed"`
	Spacing     float64 `yaml:"spacing,omitempty"`
	Mass        float64 `yaml:"mass,omitempty"`
	Radius      float64 `yaml:"radius,omitempty"`
	CentralMass float64 `yaml:"central_mass,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "custom",
		Mode:          DefaultMode,
		Theta:         barneshut.DefaultTheta,
		GPUThreshold:  engine.DefaultGPUThreshold,
		MaxDepth:      barneshut.DefaultMaxDepth,
		Integrator:    DefaultIntegrator,
		DT:            DefaultDT,
		Steps:         DefaultSteps,
		RecordEvery:   DefaultRecordEvery,
		ValidateState: true,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Bodies = append([]BodyConfig(nil), c.Bodies...)
	if c.Generator != nil {
		g := *c.Generator
		cp.Generator = &g
	}
	return &cp
}

func (c *Config) Validate() error {
	mode, err := engine.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	if !barneshut.ValidTheta(c.Theta) {
		return fmt.Errorf("%w: theta %v", ErrInvalid, c.Theta)
	}
	if c.GPUThreshold < 0 {
		return fmt.Errorf("%w: gpu_threshold %d", ErrInvalid, c.GPUThreshold)
	}
	if c.MaxDepth < 0 || c.MaxDepth > barneshut.MaxDepthLimit {
		return fmt.Errorf("%w: max_depth %d", ErrInvalid, c.MaxDepth)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers %d", ErrInvalid, c.Workers)
	}
	integ, err := integrators.New(c.Integrator)
	if err != nil {
		return err
	}
	// the tree solver returns velocities and always drifts with them
	if _, semi := integ.(*integrators.SemiImplicit); mode == engine.ModeBarnesHut && !semi {
		return fmt.Errorf("%w: mode %s integrates semi-implicitly, integrator %q is not supported", ErrInvalid, mode, c.Integrator)
	}
	if math.IsNaN(c.DT) || math.IsInf(c.DT, 0) {
		return fmt.Errorf("%w: dt %v", ErrInvalid, c.DT)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: steps %d", ErrInvalid, c.Steps)
	}
	if c.StabilityRadius < 0 || math.IsNaN(c.StabilityRadius) {
		return fmt.Errorf("%w: stability_radius %v", ErrInvalid, c.StabilityRadius)
	}
	if c.RecordEvery < 0 {
		return fmt.Errorf("%w: record_every %d", ErrInvalid, c.RecordEvery)
	}
	for i, b := range c.Bodies {
		if !(b.Mass > 0) || math.IsInf(b.Mass, 0) {
			return fmt.Errorf("%w: body %d (%s) mass %v", ErrInvalid, i, b.Name, b.Mass)
		}
	}
	if g := c.Generator; g != nil {
		if _, ok := generators[g.Kind]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownGenerator, g.Kind)
		}
		if g.N < 0 {
			return fmt.Errorf("%w: generator n %d", ErrInvalid, g.N)
		}
	}
	return nil
}

// EngineOptions converts the solver fields.
func (c *Config) EngineOptions() (engine.Options, error) {
	mode, err := engine.ParseMode(c.Mode)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		Mode:         mode,
		Theta:        c.Theta,
		GPUThreshold: c.GPUThreshold,
		MaxDepth:     c.MaxDepth,
		Workers:      c.Workers,
	}, nil
}

// SimConfig converts the run fields.
func (c *Config) SimConfig() sim.Config {
	cfg := sim.Config{
		DT:            c.DT,
		Steps:         c.Steps,
		RecordEvery:   c.RecordEvery,
		ValidateState: c.ValidateState,
	}
	if c.Generator != nil {
		cfg.Seed = c.Generator.Seed
	}
	return cfg
}

// Metrics returns a fresh metric set for one run.
func (c *Config) Metrics() []metrics.Metric {
	ms := metrics.Defaults()
	if c.StabilityRadius > 0 {
		ms = append(ms, metrics.NewStability(c.StabilityRadius))
	}
	return ms
}

// BuildSet creates the initial population: the listed bodies first, then the
// generated ones.
func (c *Config) BuildSet() (*body.Set, error) {
	set := body.NewSet()
	for _, b := range c.Bodies {
		set.Add(body.Body{
			Name:     b.Name,
			Mass:     b.Mass,
			Position: vecmath.Vec{X: b.Position[0], Y: b.Position[1], Z: b.Position[2]},
			Velocity: vecmath.Vec{X: b.Velocity[0], Y: b.Velocity[1], Z: b.Velocity[2]},
		})
	}
	if c.Generator != nil {
		generated, err := Generate(*c.Generator)
		if err != nil {
			return nil, err
		}
		set.Add(generated...)
	}
	return set, nil
}

// WithSeed returns a copy whose generator uses seed. Used to fan out
// ensemble members.
func (c *Config) WithSeed(seed int64) *Config {
	cp := c.Clone()
	if cp.Generator != nil {
		cp.Generator.Seed = seed
	}
	return cp
}
