package config

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vecmath"
)

const (
	DefaultSpacing     = 5.0
	DefaultBodyMass    = 1.0
	DefaultDiskRadius  = 1000.0
	DefaultCentralMass = 1e12

	// latticeJitter bounds each velocity component of a lattice body.
	latticeJitter = 1e-5
)

type generatorFunc func(g GeneratorConfig, rng *rand.Rand) []body.Body

var generators = map[string]generatorFunc{
	"lattice": func(g GeneratorConfig, rng *rand.Rand) []body.Body {
		return Lattice(g.N, orDefault(g.Spacing, DefaultSpacing), orDefault(g.Mass, DefaultBodyMass), rng)
	},
	"random": func(g GeneratorConfig, rng *rand.Rand) []body.Body {
		return Random(g.N, rng)
	},
	"disk": func(g GeneratorConfig, rng *rand.Rand) []body.Body {
		return Disk(g.N, orDefault(g.Radius, DefaultDiskRadius), orDefault(g.Mass, DefaultBodyMass),
			orDefault(g.CentralMass, DefaultCentralMass), rng)
	},
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

// Generate builds the bodies described by g. The same seed always yields
// the same bodies.
func Generate(g GeneratorConfig) ([]body.Body, error) {
	gen, ok := generators[g.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGenerator, g.Kind)
	}
	return gen(g, rand.New(rand.NewSource(g.Seed))), nil
}

// Lattice places bodies on a cube of points spaced spacing apart and centered
// on the origin, running from -n/2 to n/2 on each axis. An even n therefore
// gives n+1 points per axis. Velocities are tiny random drifts.
func Lattice(n int, spacing, mass float64, rng *rand.Rand) []body.Body {
	lb := -(n / 2)
	ub := -lb
	side := ub - lb + 1
	bodies := make([]body.Body, 0, side*side*side)
	for x := lb; x <= ub; x++ {
		for y := lb; y <= ub; y++ {
			for z := lb; z <= ub; z++ {
				bodies = append(bodies, body.Body{
					Name:     fmt.Sprintf("Object %d", len(bodies)+1),
					Mass:     mass,
					Position: vecmath.Vec{X: float64(x) * spacing, Y: float64(y) * spacing, Z: float64(z) * spacing},
					Velocity: vecmath.Vec{
						X: rng.Float64() * latticeJitter,
						Y: rng.Float64() * latticeJitter,
						Z: rng.Float64() * latticeJitter,
					},
				})
			}
		}
	}
	return bodies
}

// Random draws integer positions and velocities in [-100, 100) and integer
// masses in [1, 100).
func Random(n int, rng *rand.Rand) []body.Body {
	randomInt := func(lo, hi int) float64 {
		return float64(rng.Intn(hi-lo) + lo)
	}
	bodies := make([]body.Body, n)
	for i := range bodies {
		bodies[i] = body.Body{
			Name:     fmt.Sprintf("Body %d", i+1),
			Position: vecmath.Vec{X: randomInt(-100, 100), Y: randomInt(-100, 100), Z: randomInt(-100, 100)},
			Velocity: vecmath.Vec{X: randomInt(-100, 100), Y: randomInt(-100, 100), Z: randomInt(-100, 100)},
			Mass:     randomInt(1, 100),
		}
	}
	return bodies
}

// Disk puts a heavy body at the origin and n light bodies on circular orbits
// in the xy plane, radii spread over [radius/10, radius].
func Disk(n int, radius, mass, centralMass float64, rng *rand.Rand) []body.Body {
	bodies := make([]body.Body, 0, n+1)
	bodies = append(bodies, body.Body{Name: "core", Mass: centralMass})
	for i := 0; i < n; i++ {
		r := radius * (0.1 + 0.9*rng.Float64())
		phi := 2 * math.Pi * rng.Float64()
		sin, cos := math.Sincos(phi)
		v := math.Sqrt(physics.G * centralMass / r)
		bodies = append(bodies, body.Body{
			Name:     fmt.Sprintf("Star %d", i+1),
			Mass:     mass,
			Position: vecmath.Vec{X: r * cos, Y: r * sin, Z: radius * 0.01 * (rng.Float64() - 0.5)},
			Velocity: vecmath.Vec{X: -v * sin, Y: v * cos},
		})
	}
	return bodies
}
