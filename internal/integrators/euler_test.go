package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vecmath"
)

func TestIntegrate(t *testing.T) {
	tests := []struct {
		name  string
		value vecmath.Vec
		rate  vecmath.Vec
		dt    float64
		want  vecmath.Vec
	}{
		{"forward", vecmath.Vec{X: 1}, vecmath.Vec{X: 2, Y: 1}, 0.5, vecmath.Vec{X: 2, Y: 0.5}},
		{"freeze", vecmath.Vec{X: 1, Y: 2, Z: 3}, vecmath.Vec{X: 9, Y: 9, Z: 9}, 0, vecmath.Vec{X: 1, Y: 2, Z: 3}},
		{"reverse", vecmath.Vec{Z: 1}, vecmath.Vec{Z: 1}, -2, vecmath.Vec{Z: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Integrate(tt.value, tt.rate, tt.dt); got != tt.want {
				t.Errorf("Integrate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSemiImplicitUsesNewVelocity(t *testing.T) {
	b := body.Body{
		Velocity:     vecmath.Vec{X: 1},
		Acceleration: vecmath.Vec{X: 2},
	}
	NewSemiImplicit().Step(&b, 1)

	if b.Velocity.X != 3 {
		t.Errorf("velocity = %v, want 3", b.Velocity.X)
	}
	if b.Position.X != 3 {
		t.Errorf("position = %v, want 3 (drift with updated velocity)", b.Position.X)
	}
}

func TestExplicitUsesOldVelocity(t *testing.T) {
	b := body.Body{
		Velocity:     vecmath.Vec{X: 1},
		Acceleration: vecmath.Vec{X: 2},
	}
	NewEuler().Step(&b, 1)

	if b.Velocity.X != 3 {
		t.Errorf("velocity = %v, want 3", b.Velocity.X)
	}
	if b.Position.X != 1 {
		t.Errorf("position = %v, want 1 (drift with previous velocity)", b.Position.X)
	}
}

func TestSemiImplicitTimeReversal(t *testing.T) {
	b := body.Body{Position: vecmath.Vec{Y: 5}, Velocity: vecmath.Vec{Y: 1}}
	integ := NewSemiImplicit()
	integ.Step(&b, 2)
	integ.Step(&b, -2)

	if math.Abs(b.Position.Y-5) > 1e-12 {
		t.Errorf("free drift should reverse exactly, got %v", b.Position.Y)
	}
}

func TestSemiImplicitOrbitStaysBound(t *testing.T) {
	// Unit circular orbit around a fixed unit mass, GM=1.
	b := body.Body{Position: vecmath.Vec{X: 1}, Velocity: vecmath.Vec{Y: 1}}
	integ := NewSemiImplicit()
	dt := 0.01

	for i := 0; i < 2000; i++ {
		r := vecmath.Magnitude(b.Position)
		b.Acceleration = vecmath.Scale(b.Position, -1/(r*r*r))
		integ.Step(&b, dt)
	}

	r := vecmath.Magnitude(b.Position)
	if math.Abs(r-1) > 0.05 {
		t.Errorf("orbit radius drifted to %.4f", r)
	}
}

func TestDrift(t *testing.T) {
	b := body.Body{Position: vecmath.Vec{X: 1}, Velocity: vecmath.Vec{X: -1, Z: 2}}
	Drift(&b, 3)
	if b.Position != (vecmath.Vec{X: -2, Z: 6}) {
		t.Errorf("Drift() = %v", b.Position)
	}
}

func TestNew(t *testing.T) {
	for _, name := range Names() {
		integ, err := New(name)
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if integ.Name() == "" {
			t.Errorf("integrator %q has empty name", name)
		}
	}

	if _, err := New("rk4"); !errors.Is(err, ErrUnknownIntegrator) {
		t.Errorf("expected ErrUnknownIntegrator, got %v", err)
	}
}
