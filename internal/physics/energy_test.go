package physics

import (
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/vecmath"
)

func TestEnergy(t *testing.T) {
	bodies := []body.Body{
		{Mass: 2, Velocity: vecmath.Vec{X: 3}},
		{Mass: 1e10, Position: vecmath.Vec{X: 10}},
	}
	ke, pe := Energy(bodies)

	if ke != 9 {
		t.Errorf("kinetic = %v, want 9", ke)
	}
	want := -G * 2 * 1e10 / 10
	if math.Abs(pe-want) > 1e-15 {
		t.Errorf("potential = %v, want %v", pe, want)
	}
}

func TestEnergySkipsCollidedPairs(t *testing.T) {
	bodies := []body.Body{{Mass: 1}, {Mass: 1}}
	if _, pe := Energy(bodies); pe != 0 {
		t.Errorf("coincident pair should not contribute, got %v", pe)
	}
}

func TestMomentumAndCenterOfMass(t *testing.T) {
	bodies := []body.Body{
		{Mass: 1, Position: vecmath.Vec{X: 0}, Velocity: vecmath.Vec{Y: 2}},
		{Mass: 3, Position: vecmath.Vec{X: 4}, Velocity: vecmath.Vec{Y: -1}},
	}

	if p := Momentum(bodies); p != (vecmath.Vec{Y: -1}) {
		t.Errorf("Momentum() = %v", p)
	}
	if c := CenterOfMass(bodies); c != (vecmath.Vec{X: 3}) {
		t.Errorf("CenterOfMass() = %v", c)
	}
	if c := CenterOfMass(nil); c != (vecmath.Vec{}) {
		t.Errorf("CenterOfMass(nil) = %v", c)
	}
}
