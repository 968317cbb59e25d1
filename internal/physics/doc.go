// Package physics holds the Newtonian gravity shared by every solver: the
// pair force with its collision guard, the O(n^2) reference solver and the
// conserved quantities used to check a run.
//
//	forces := physics.BruteForce(set.Bodies())
//	kinetic, potential := physics.Energy(set.Bodies())
package physics
