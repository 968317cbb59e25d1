package barneshut

import "gonum.org/v1/gonum/spatial/r3"

// EndOfSearch is the skip value that terminates a walk.
const EndOfSearch = -1

// Flat is the pre-order serialization of the non-empty nodes of a tree. All
// slices are indexed by flat index. Skip[i] is the flat index of the first
// node after the subtree rooted at i.
type Flat struct {
	IDs    []int // body slot for leaves, -1 for internal nodes
	CoMs   []r3.Vec
	Masses []float64
	Widths []float64
	Skip   []int
	Order  []int // arena index of each flat node

	// Members lists every body of a leaf merged at the depth cap, resident
	// first. It is nil for all other nodes.
	Members [][]Member
}

// Member is one body of a merged leaf.
type Member struct {
	Slot     int
	Position r3.Vec
	Mass     float64
}

func (f *Flat) Len() int { return len(f.IDs) }

// members returns the merged bodies of flat node i, or nil.
func (f *Flat) members(i int) []Member {
	if i < len(f.Members) {
		return f.Members[i]
	}
	return nil
}

// Flatten walks the tree depth-first in octant order, emitting non-empty
// nodes only, then fills in the sibling shortcuts.
func Flatten(t *Tree) *Flat {
	f := &Flat{}
	if t.Len() == 0 || t.nodes[0].Empty() {
		return f
	}

	n := t.Len()
	f.IDs = make([]int, 0, n)
	f.CoMs = make([]r3.Vec, 0, n)
	f.Masses = make([]float64, 0, n)
	f.Widths = make([]float64, 0, n)
	f.Order = make([]int, 0, n)
	f.Members = make([][]Member, 0, n)

	// parent and next sibling per flat index, -1 where absent
	parent := make([]int, 0, n)
	next := make([]int, 0, n)

	var visit func(idx, parentFlat int)
	visit = func(idx, parentFlat int) {
		node := &t.nodes[idx]
		self := len(f.IDs)

		id := -1
		if node.Leaf() {
			id = node.Body
		}
		f.IDs = append(f.IDs, id)
		f.CoMs = append(f.CoMs, node.CoM)
		f.Masses = append(f.Masses, node.Mass)
		f.Widths = append(f.Widths, node.Width())
		f.Order = append(f.Order, idx)
		f.Members = append(f.Members, t.leafMembers(node))
		parent = append(parent, parentFlat)
		next = append(next, -1)

		if node.Leaf() {
			return
		}
		prev := -1
		for oct := 0; oct < 8; oct++ {
			child := node.FirstChild + oct
			if t.nodes[child].Empty() {
				continue
			}
			if prev >= 0 {
				next[prev] = len(f.IDs)
			}
			prev = len(f.IDs)
			visit(child, self)
		}
	}
	visit(0, -1)

	f.Skip = make([]int, len(f.IDs))
	for i := range f.Skip {
		switch {
		case next[i] >= 0:
			f.Skip[i] = next[i]
		case parent[i] >= 0:
			f.Skip[i] = f.Skip[parent[i]]
		default:
			f.Skip[i] = EndOfSearch
		}
	}
	return f
}

// leafMembers expands a leaf merged at the depth cap into its bodies.
func (t *Tree) leafMembers(n *Node) []Member {
	if !n.Leaf() || len(n.Absorbed) == 0 {
		return nil
	}
	members := make([]Member, 0, 1+len(n.Absorbed))
	for _, slot := range append([]int{n.Body}, n.Absorbed...) {
		members = append(members, Member{Slot: slot, Position: t.positions[slot], Mass: t.masses[slot]})
	}
	return members
}
