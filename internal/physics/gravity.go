package physics

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vecmath"
)

const (
	// G is the gravitational constant in m^3 kg^-1 s^-2.
	G = 6.67408e-11

	// CollisionDistance is the separation in meters below which a direct pair
	// contributes nothing. Coincident or overlapping bodies would otherwise
	// produce unbounded forces.
	CollisionDistance = 0.1
)

// PairForce returns the force exerted on a body of mass mi at pi by a mass mj
// at pj. The second result is false when the pair is inside the collision
// distance and was skipped.
func PairForce(pi vecmath.Vec, mi float64, pj vecmath.Vec, mj float64) (vecmath.Vec, bool) {
	r := vecmath.Sub(pj, pi)
	d := vecmath.Magnitude(r)
	if d < CollisionDistance {
		return vecmath.Vec{}, false
	}
	return vecmath.Scale(r, (G*mi*mj)/(d*d*d)), true
}

// PointMass is PairForce without the collision guard. Aggregate terms of the
// tree walk use it: their separation is never below the node width.
func PointMass(pi vecmath.Vec, mi float64, pj vecmath.Vec, mj float64) vecmath.Vec {
	r := vecmath.Sub(pj, pi)
	d := vecmath.Magnitude(r)
	return vecmath.Scale(r, (G*mi*mj)/(d*d*d))
}

// NetForce sums the pair forces on bodies[i] from every other body.
func NetForce(i int, bodies []body.Body) vecmath.Vec {
	var f vecmath.Vec
	bi := &bodies[i]
	for j := range bodies {
		if j == i {
			continue
		}
		if fij, ok := PairForce(bi.Position, bi.Mass, bodies[j].Position, bodies[j].Mass); ok {
			f = vecmath.Add(f, fij)
		}
	}
	return f
}

// BruteForce computes the exact net force on every body in O(n^2). The result
// has one entry per body in input order; an empty input yields an empty,
// non-nil slice.
func BruteForce(bodies []body.Body) []vecmath.Vec {
	forces := make([]vecmath.Vec, len(bodies))
	for i := range bodies {
		forces[i] = NetForce(i, bodies)
	}
	return forces
}

// Acceleration converts a net force into acceleration. A zero mass yields
// Inf/NaN components, which are passed through.
func Acceleration(force vecmath.Vec, mass float64) vecmath.Vec {
	return vecmath.Divide(force, mass)
}
