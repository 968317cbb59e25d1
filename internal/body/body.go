// Package body defines the simulated bodies and the flat snapshot handed to the
// force kernels.
package body

import "github.com/san-kum/gravsim/internal/vecmath"

// Body is a point mass. ID is assigned by a Set and never changes.
type Body struct {
	ID           int
	Name         string
	Mass         float64
	Position     vecmath.Vec
	Velocity     vecmath.Vec
	Acceleration vecmath.Vec
}

// Set owns a population of bodies and hands out ids. Ids start at 1, grow
// monotonically and are never reused, even after the body is removed.
type Set struct {
	bodies []Body
	nextID int
}

func NewSet(bodies ...Body) *Set {
	s := &Set{nextID: 1}
	s.Add(bodies...)
	return s
}

// Add appends bodies in order and returns the ids assigned to them.
func (s *Set) Add(bodies ...Body) []int {
	if s.nextID == 0 {
		s.nextID = 1
	}
	ids := make([]int, len(bodies))
	for i, b := range bodies {
		b.ID = s.nextID
		s.nextID++
		s.bodies = append(s.bodies, b)
		ids[i] = b.ID
	}
	return ids
}

// Remove deletes the body with the given id, keeping the order of the rest.
func (s *Set) Remove(id int) bool {
	for i := range s.bodies {
		if s.bodies[i].ID == id {
			s.bodies = append(s.bodies[:i], s.bodies[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Clear() { s.bodies = s.bodies[:0] }

// Bodies returns the live slice. Solvers update positions and velocities in
// place; callers must not reorder it.
func (s *Set) Bodies() []Body { return s.bodies }

func (s *Set) Len() int { return len(s.bodies) }

func (s *Set) Get(id int) (*Body, bool) {
	for i := range s.bodies {
		if s.bodies[i].ID == id {
			return &s.bodies[i], true
		}
	}
	return nil, false
}

// Clone returns an independent copy that continues the same id sequence.
func (s *Set) Clone() *Set {
	c := &Set{nextID: s.nextID, bodies: make([]Body, len(s.bodies))}
	copy(c.bodies, s.bodies)
	return c
}

func TotalMass(bodies []Body) float64 {
	m := 0.0
	for i := range bodies {
		m += bodies[i].Mass
	}
	return m
}
