package body

import "github.com/san-kum/gravsim/internal/vecmath"

// Snapshot is the flat, kernel-friendly view of a body slice: positions are
// packed x,y,z per body and every array is indexed by the body's slot in the
// input slice.
type Snapshot struct {
	Positions []float64
	Masses    []float64
}

func Pack(bodies []Body) Snapshot {
	s := Snapshot{
		Positions: make([]float64, len(bodies)*3),
		Masses:    make([]float64, len(bodies)),
	}
	for i := range bodies {
		p := bodies[i].Position
		s.Positions[i*3] = p.X
		s.Positions[i*3+1] = p.Y
		s.Positions[i*3+2] = p.Z
		s.Masses[i] = bodies[i].Mass
	}
	return s
}

func (s Snapshot) Len() int { return len(s.Masses) }

func (s Snapshot) Position(i int) vecmath.Vec {
	return vecmath.Vec{X: s.Positions[i*3], Y: s.Positions[i*3+1], Z: s.Positions[i*3+2]}
}

// Float32 converts the snapshot to single precision for the accelerator
// kernels.
func (s Snapshot) Float32() (positions, masses []float32) {
	positions = make([]float32, len(s.Positions))
	for i, v := range s.Positions {
		positions[i] = float32(v)
	}
	masses = make([]float32, len(s.Masses))
	for i, v := range s.Masses {
		masses[i] = float32(v)
	}
	return positions, masses
}
