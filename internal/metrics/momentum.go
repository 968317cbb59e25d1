package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/physics"
)

// Momentum tracks how far total linear momentum wanders from its first
// observed value. An isolated system keeps it constant; the tree
// approximation does not.
type Momentum struct {
	name     string
	initial  r3.Vec
	scale    float64
	maxDrift float64
	samples  int
}

func NewMomentum() *Momentum {
	return &Momentum{name: "momentum_drift"}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(bodies []body.Body, t float64) {
	p := physics.Momentum(bodies)
	if m.samples == 0 {
		m.initial = p
		// relative to the summed |m v| so a system at rest still has a scale
		for i := range bodies {
			m.scale += bodies[i].Mass * r3.Norm(bodies[i].Velocity)
		}
	}
	m.samples++

	drift := r3.Norm(r3.Sub(p, m.initial))
	if m.scale > 0 {
		drift /= m.scale
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *Momentum) Value() float64 {
	return m.maxDrift
}

func (m *Momentum) Reset() {
	m.initial = r3.Vec{}
	m.scale = 0
	m.maxDrift = 0
	m.samples = 0
}
