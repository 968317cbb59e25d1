package physics

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vecmath"
)

// Energy returns the kinetic and gravitational potential energy of the system.
// Pairs inside CollisionDistance are left out of the potential, matching the
// force model.
func Energy(bodies []body.Body) (kinetic, potential float64) {
	for i := range bodies {
		v := vecmath.Magnitude(bodies[i].Velocity)
		kinetic += 0.5 * bodies[i].Mass * v * v

		for j := i + 1; j < len(bodies); j++ {
			d := vecmath.Distance(bodies[i].Position, bodies[j].Position)
			if d < CollisionDistance {
				continue
			}
			potential -= G * bodies[i].Mass * bodies[j].Mass / d
		}
	}
	return kinetic, potential
}

// Momentum returns the total linear momentum.
func Momentum(bodies []body.Body) vecmath.Vec {
	var p vecmath.Vec
	for i := range bodies {
		p = vecmath.Add(p, vecmath.Scale(bodies[i].Velocity, bodies[i].Mass))
	}
	return p
}

// CenterOfMass returns the mass-weighted mean position. An empty or massless
// input yields the zero vector.
func CenterOfMass(bodies []body.Body) vecmath.Vec {
	var c vecmath.Vec
	m := 0.0
	for i := range bodies {
		c = vecmath.Add(c, vecmath.Scale(bodies[i].Position, bodies[i].Mass))
		m += bodies[i].Mass
	}
	if m == 0 {
		return vecmath.Vec{}
	}
	return vecmath.Divide(c, m)
}
