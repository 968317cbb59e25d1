package metrics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vecmath"
)

// Stability is the fraction of frames in which every body stayed finite and
// within radius of the center of mass.
type Stability struct {
	name       string
	radius     float64
	violations int
	samples    int
}

func NewStability(radius float64) *Stability {
	return &Stability{
		name:   "stability",
		radius: radius,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(bodies []body.Body, t float64) {
	s.samples++
	com := physics.CenterOfMass(bodies)
	for i := range bodies {
		p := bodies[i].Position
		if !vecmath.IsFinite(p) || r3.Norm(r3.Sub(p, com)) > s.radius {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
