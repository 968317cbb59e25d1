package barneshut

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestFlattenSiblingShortcuts(t *testing.T) {
	positions := []r3.Vec{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 1}, {X: 10, Y: 10, Z: 10}}
	tree, err := Build(positions, []float64{1, 2, 3}, DefaultMaxDepth)
	require.NoError(t, err)

	flat := Flatten(tree)
	assert.Equal(t, []int{-1, -1, -1, -1, 0, 1, 2}, flat.IDs)
	assert.Equal(t, []int{EndOfSearch, 6, 6, 6, 5, 6, EndOfSearch}, flat.Skip)
	assert.Equal(t, []float64{6, 3, 3, 3, 1, 2, 3}, flat.Masses)
	assert.Equal(t, []float64{11, 5.5, 2.75, 1.375, 0.6875, 0.6875, 5.5}, flat.Widths)
}

func TestFlattenInvariants(t *testing.T) {
	positions, masses := randomBodies(500, 2)
	tree, err := Build(positions, masses, DefaultMaxDepth)
	require.NoError(t, err)
	flat := Flatten(tree)

	require.Equal(t, flat.Len(), len(flat.Skip))
	require.Equal(t, flat.Len(), len(flat.Order))
	assert.Equal(t, EndOfSearch, flat.Skip[0])

	seen := make(map[int]bool)
	for i := 0; i < flat.Len(); i++ {
		node := tree.Node(flat.Order[i])
		assert.False(t, node.Empty(), "flat %d is an empty node", i)
		assert.Equal(t, node.Mass, flat.Masses[i])

		if id := flat.IDs[i]; id >= 0 {
			assert.False(t, seen[id], "body %d emitted twice", id)
			seen[id] = true
		}

		// the range (i, skip) is exactly the subtree of i
		end := flat.Skip[i]
		if end == EndOfSearch {
			end = flat.Len()
		}
		require.Greater(t, end, i)
		bodies := 0
		for j := i; j < end; j++ {
			if flat.IDs[j] >= 0 {
				bodies++
			}
		}
		assert.Equal(t, node.Count, bodies, "flat %d", i)
	}
	assert.Len(t, seen, len(positions))
}

func TestFlattenEmptyTree(t *testing.T) {
	tree, err := Build(nil, nil, DefaultMaxDepth)
	require.NoError(t, err)

	flat := Flatten(tree)
	assert.Zero(t, flat.Len())
	assert.Equal(t, r3.Vec{}, Force(flat, 0, r3.Vec{}, 1, DefaultTheta))
}
