package integrators

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vecmath"
)

// Integrate advances value at the given rate over dt: value + rate*dt.
func Integrate(value, rate vecmath.Vec, dt float64) vecmath.Vec {
	return vecmath.Add(value, vecmath.Scale(rate, dt))
}

// SemiImplicit is the symplectic Euler step: the velocity is kicked with the
// acceleration of the current configuration, then the position drifts with the
// new velocity.
type SemiImplicit struct{}

func NewSemiImplicit() *SemiImplicit {
	return &SemiImplicit{}
}

func (s *SemiImplicit) Name() string { return "symplectic" }

func (s *SemiImplicit) Step(b *body.Body, dt float64) {
	b.Velocity = Integrate(b.Velocity, b.Acceleration, dt)
	b.Position = Integrate(b.Position, b.Velocity, dt)
}

// Euler is the explicit variant: the position drifts with the old velocity
// before the velocity is kicked.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "explicit" }

func (e *Euler) Step(b *body.Body, dt float64) {
	b.Position = Integrate(b.Position, b.Velocity, dt)
	b.Velocity = Integrate(b.Velocity, b.Acceleration, dt)
}

// Drift moves a body along its current velocity. Used when a solver hands back
// velocities that are already integrated.
func Drift(b *body.Body, dt float64) {
	b.Position = Integrate(b.Position, b.Velocity, dt)
}
