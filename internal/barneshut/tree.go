package barneshut

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// DefaultMaxDepth bounds subdivision when the caller does not choose.
	DefaultMaxDepth = 48

	// MaxDepthLimit is the largest accepted subdivision cap.
	MaxDepthLimit = 64
)

// Octant bits selecting a child from a node center.
const (
	octRight = 4 // x >= center
	octTop   = 2 // y >= center
	octBack  = 1 // z >= center
)

// Node is one octant of the tree. Children of a subdivided node occupy eight
// consecutive arena slots starting at FirstChild, ordered by octant bits.
type Node struct {
	Bounds     r3.Box
	Mass       float64
	CoM        r3.Vec
	Count      int // bodies contained, including merged ones
	Body       int // resident body slot, -1 if none
	FirstChild int // -1 until subdivided
	Depth      int

	// Absorbed holds the slots merged into this leaf at the depth cap, in
	// arrival order. Body stays the first resident.
	Absorbed []int
}

func (n *Node) Empty() bool    { return n.Count == 0 }
func (n *Node) Leaf() bool     { return n.FirstChild < 0 }
func (n *Node) Width() float64 { return n.Bounds.Max.X - n.Bounds.Min.X }

func (n *Node) center() r3.Vec {
	return r3.Scale(0.5, r3.Add(n.Bounds.Min, n.Bounds.Max))
}

// absorb folds a body into the node's aggregate mass and running center of
// mass.
func (n *Node) absorb(p r3.Vec, m float64) {
	total := n.Mass + m
	if n.Count == 0 || total == 0 {
		n.CoM = p
	} else {
		n.CoM = r3.Scale(1/total, r3.Add(r3.Scale(n.Mass, n.CoM), r3.Scale(m, p)))
	}
	n.Mass = total
	n.Count++
}

// Tree is an octree stored as an arena. Node 0 is the root.
type Tree struct {
	nodes     []Node
	positions []r3.Vec
	masses    []float64
	maxDepth  int
	merged    int
}

// Build inserts every body into a fresh tree. Body i is referred to by slot i
// everywhere in the tree. An empty input produces a tree with no nodes.
func Build(positions []r3.Vec, masses []float64, maxDepth int) (*Tree, error) {
	if maxDepth < 1 || maxDepth > MaxDepthLimit {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDepth, maxDepth)
	}
	if len(positions) != len(masses) {
		return nil, fmt.Errorf("%w: %d positions, %d masses", ErrMismatchedInput, len(positions), len(masses))
	}

	t := &Tree{
		positions: positions,
		masses:    masses,
		maxDepth:  maxDepth,
	}
	if len(positions) == 0 {
		return t, nil
	}

	t.nodes = make([]Node, 0, 1+8*len(positions))
	t.nodes = append(t.nodes, newNode(rootBounds(positions), 0))
	for i := range positions {
		t.insert(i)
	}
	return t, nil
}

func newNode(bounds r3.Box, depth int) Node {
	return Node{Bounds: bounds, Body: -1, FirstChild: -1, Depth: depth}
}

// rootBounds squares the bounding box of positions into a cube whose side is
// the largest extent plus one meter, anchored at the lower corner.
func rootBounds(positions []r3.Vec) r3.Box {
	lo, hi := positions[0], positions[0]
	for _, p := range positions[1:] {
		lo = r3.Vec{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vec{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	side := math.Max(hi.X-lo.X, math.Max(hi.Y-lo.Y, hi.Z-lo.Z)) + 1
	return r3.Box{Min: lo, Max: r3.Add(lo, r3.Vec{X: side, Y: side, Z: side})}
}

func (t *Tree) insert(slot int) {
	p, m := t.positions[slot], t.masses[slot]
	idx := 0
	for {
		n := &t.nodes[idx]
		n.absorb(p, m)

		switch {
		case n.Count == 1:
			n.Body = slot
			return
		case n.Leaf() && n.Depth >= t.maxDepth:
			n.Absorbed = append(n.Absorbed, slot)
			t.merged++
			return
		case n.Leaf():
			resident := n.Body
			n.Body = -1
			t.subdivide(idx)
			child := &t.nodes[t.childFor(idx, t.positions[resident])]
			child.absorb(t.positions[resident], t.masses[resident])
			child.Body = resident
		}
		idx = t.childFor(idx, p)
	}
}

func (t *Tree) subdivide(idx int) {
	parent := t.nodes[idx]
	c := parent.center()
	first := len(t.nodes)
	for oct := 0; oct < 8; oct++ {
		b := parent.Bounds
		if oct&octRight != 0 {
			b.Min.X = c.X
		} else {
			b.Max.X = c.X
		}
		if oct&octTop != 0 {
			b.Min.Y = c.Y
		} else {
			b.Max.Y = c.Y
		}
		if oct&octBack != 0 {
			b.Min.Z = c.Z
		} else {
			b.Max.Z = c.Z
		}
		t.nodes = append(t.nodes, newNode(b, parent.Depth+1))
	}
	t.nodes[idx].FirstChild = first
}

func (t *Tree) childFor(idx int, p r3.Vec) int {
	n := &t.nodes[idx]
	c := n.center()
	oct := 0
	if p.X >= c.X {
		oct |= octRight
	}
	if p.Y >= c.Y {
		oct |= octTop
	}
	if p.Z >= c.Z {
		oct |= octBack
	}
	return n.FirstChild + oct
}

// Len is the number of arena nodes, empty ones included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Node(i int) Node { return t.nodes[i] }

// Bodies is the number of bodies the tree was built from.
func (t *Tree) Bodies() int { return len(t.positions) }

// Merged counts bodies absorbed into a leaf at the depth cap instead of
// getting their own node. Such leaves keep every member so forces between
// them and from them stay pairwise.
func (t *Tree) Merged() int { return t.merged }

func (t *Tree) MaxDepth() int { return t.maxDepth }

// Depth is the deepest level reached by any node.
func (t *Tree) Depth() int {
	d := 0
	for i := range t.nodes {
		if t.nodes[i].Depth > d {
			d = t.nodes[i].Depth
		}
	}
	return d
}
