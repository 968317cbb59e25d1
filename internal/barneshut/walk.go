package barneshut

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/physics"
)

// Walk computes the same force as Force by recursing over the arena. It has
// no sibling shortcuts and serves as the reference for the flattened walk.
func Walk(t *Tree, slot int, theta float64) r3.Vec {
	if t.Len() == 0 {
		return r3.Vec{}
	}
	return t.walk(0, slot, t.positions[slot], t.masses[slot], theta)
}

func (t *Tree) walk(idx, slot int, p r3.Vec, m, theta float64) r3.Vec {
	n := &t.nodes[idx]
	if n.Empty() || n.Mass == 0 {
		return r3.Vec{}
	}

	if n.Leaf() {
		if members := t.leafMembers(n); members != nil {
			return memberForce(members, slot, p, m)
		}
		if n.Body == slot {
			return r3.Vec{}
		}
		f, _ := physics.PairForce(p, m, n.CoM, n.Mass)
		return f
	}

	d := r3.Norm(r3.Sub(n.CoM, p))
	if n.Width()/d < theta {
		return physics.PointMass(p, m, n.CoM, n.Mass)
	}

	var total r3.Vec
	for oct := 0; oct < 8; oct++ {
		total = r3.Add(total, t.walk(n.FirstChild+oct, slot, p, m, theta))
	}
	return total
}
