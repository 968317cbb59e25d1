// Package compute runs data-parallel kernels: one lane per output element, no
// shared mutable state between lanes.
//
// A [Kernel] is compiled for a fixed lane count. A [Cache] keeps the last
// compiled kernel and recompiles when the population changes:
//
//	cache := compute.NewNBodyCache(compute.NewCPUDevice(0))
//	forces, err := cache.Run(ctx, compute.NBodyInput{
//	    Positions: pos, Masses: masses,
//	    G: physics.G, CollisionDistance: physics.CollisionDistance,
//	})
//
// The pairwise kernel works in single precision. Results diverge from the
// float64 solver in the low digits.
package compute
