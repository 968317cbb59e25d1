// Package vecmath holds the 3-vector primitives shared by the force solvers.
//
// Vectors are gonum r3.Vec values. Every function is pure; floating-point edge
// cases (division by zero, NaN inputs) follow IEEE semantics and are left for
// the caller to guard.
package vecmath

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type Vec = r3.Vec

func Add(a, b Vec) Vec { return r3.Add(a, b) }

func Sub(a, b Vec) Vec { return r3.Sub(a, b) }

func Scale(v Vec, n float64) Vec { return r3.Scale(n, v) }

// Divide divides each component by n. A zero n yields ±Inf or NaN components.
func Divide(v Vec, n float64) Vec {
	return Vec{X: v.X / n, Y: v.Y / n, Z: v.Z / n}
}

func Magnitude(v Vec) float64 { return r3.Norm(v) }

func Distance(p1, p2 Vec) float64 { return r3.Norm(r3.Sub(p1, p2)) }

// IsFinite reports whether no component is NaN or infinite.
func IsFinite(v Vec) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
