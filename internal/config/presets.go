package config

import (
	"fmt"
	"sort"
)

var Presets = map[string]*Config{
	"earth_moon": {
		Name: "earth_moon", Mode: "cpu", Integrator: "symplectic",
		DT: 60, Steps: 40000, RecordEvery: 100, ValidateState: true, StabilityRadius: 1e9,
		Bodies: []BodyConfig{
			{Name: "Earth", Mass: 5.972e24},
			{Name: "Moon", Mass: 7.342e22, Position: [3]float64{384400000, 0, 0}, Velocity: [3]float64{0, 1022, 0}},
		},
	},
	"inner_solar": {
		Name: "inner_solar", Mode: "cpu", Integrator: "symplectic",
		DT: 3600, Steps: 8760, RecordEvery: 24, ValidateState: true, StabilityRadius: 5e11,
		Bodies: []BodyConfig{
			{Name: "Sun", Mass: 1.989e30},
			{Name: "Mercury", Mass: 3.301e23, Position: [3]float64{5.791e10, 0, 0}, Velocity: [3]float64{0, 47360, 0}},
			{Name: "Venus", Mass: 4.867e24, Position: [3]float64{1.082e11, 0, 0}, Velocity: [3]float64{0, 35020, 0}},
			{Name: "Earth", Mass: 5.972e24, Position: [3]float64{1.496e11, 0, 0}, Velocity: [3]float64{0, 29780, 0}},
			{Name: "Mars", Mass: 6.417e23, Position: [3]float64{2.279e11, 0, 0}, Velocity: [3]float64{0, 24070, 0}},
		},
	},
	"lattice": {
		Name: "lattice", Mode: "auto", Integrator: "symplectic",
		DT: 1000, Steps: 500, RecordEvery: 10, ValidateState: true,
		Generator: &GeneratorConfig{Kind: "lattice", N: 5, Seed: 1, Spacing: DefaultSpacing, Mass: DefaultBodyMass},
	},
	"cloud": {
		Name: "cloud", Mode: "auto", Integrator: "symplectic",
		DT: 0.01, Steps: 1000, RecordEvery: 50, ValidateState: true,
		Generator: &GeneratorConfig{Kind: "random", N: 500, Seed: 1},
	},
	"galaxy": {
		Name: "galaxy", Mode: "gpu-bh", Theta: 0.5, Integrator: "symplectic",
		DT: 1, Steps: 2000, RecordEvery: 20, ValidateState: true,
		Generator: &GeneratorConfig{Kind: "disk", N: 2000, Seed: 1, Radius: DefaultDiskRadius, Mass: 1e3, CentralMass: DefaultCentralMass},
	},
}

// GetPreset returns a copy of the named preset with unset solver fields
// filled from DefaultConfig.
func GetPreset(name string) (*Config, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	cfg := p.Clone()
	def := DefaultConfig()
	if cfg.Theta == 0 {
		cfg.Theta = def.Theta
	}
	if cfg.GPUThreshold == 0 {
		cfg.GPUThreshold = def.GPUThreshold
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = def.MaxDepth
	}
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
