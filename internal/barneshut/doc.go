// Package barneshut approximates gravity with an octree.
//
// Each tick the tree is rebuilt from scratch ([Build]), serialized into flat
// pre-order arrays with sibling shortcuts ([Flatten]) and evaluated once per
// body by a data-parallel kernel ([Velocity]). A subtree whose width over
// distance is below theta is replaced by a point mass at its center of mass.
//
// Theta above roughly 1/sqrt(3) lets a node that contains the evaluated body
// be taken as a point mass, so the body feels part of its own mass. Keep it at
// or below [DefaultTheta] unless speed matters more than accuracy.
package barneshut
