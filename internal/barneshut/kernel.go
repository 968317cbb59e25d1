package barneshut

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
)

// DefaultTheta is the opening threshold used when none is configured.
const DefaultTheta = 0.5

// Input is the argument block of the tree kernel. Positions, Velocities and
// Masses are indexed by body slot, the same slots stored in Tree.IDs.
type Input struct {
	Tree       *Flat
	Positions  []r3.Vec
	Velocities []r3.Vec
	Masses     []float64
	Theta      float64
	DT         float64
}

func (in Input) Len() int { return len(in.Positions) }

// Force walks the flattened tree for the body in the given slot. A node whose
// width over distance falls below theta is taken as a point mass and its
// subtree is skipped.
func Force(tree *Flat, slot int, p r3.Vec, m, theta float64) r3.Vec {
	var total r3.Vec
	for i := 0; i >= 0 && i < tree.Len(); {
		mass := tree.Masses[i]
		if mass == 0 {
			i = tree.Skip[i]
			continue
		}

		if id := tree.IDs[i]; id >= 0 {
			if members := tree.members(i); members != nil {
				total = r3.Add(total, memberForce(members, slot, p, m))
			} else if id != slot {
				if f, ok := physics.PairForce(p, m, tree.CoMs[i], mass); ok {
					total = r3.Add(total, f)
				}
			}
			i++
			continue
		}

		d := r3.Norm(r3.Sub(tree.CoMs[i], p))
		if tree.Widths[i]/d < theta {
			total = r3.Add(total, physics.PointMass(p, m, tree.CoMs[i], mass))
			i = tree.Skip[i]
			continue
		}
		i++
	}
	return total
}

// memberForce sums the guarded pair forces from every body of a merged leaf
// other than slot itself.
func memberForce(members []Member, slot int, p r3.Vec, m float64) r3.Vec {
	var total r3.Vec
	for _, b := range members {
		if b.Slot == slot {
			continue
		}
		if f, ok := physics.PairForce(p, m, b.Position, b.Mass); ok {
			total = r3.Add(total, f)
		}
	}
	return total
}

// Velocity is the lane program of the tree kernel: the body's velocity after
// one kick of dt under the tree force.
func Velocity(lane int, in Input) r3.Vec {
	m := in.Masses[lane]
	f := Force(in.Tree, lane, in.Positions[lane], m, in.Theta)
	return integrators.Integrate(in.Velocities[lane], physics.Acceleration(f, m), in.DT)
}

// NewCache returns a kernel cache for the tree kernel on the device.
func NewCache(device compute.Device) *compute.Cache[Input, r3.Vec] {
	return compute.NewCache[Input, r3.Vec](device, "barnes-hut", Velocity)
}

// ValidTheta reports whether theta is usable as an opening threshold.
func ValidTheta(theta float64) bool {
	return theta >= 0 && !math.IsInf(theta, 0)
}
