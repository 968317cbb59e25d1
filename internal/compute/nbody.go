package compute

import "math"

// NBodyInput is the full argument list of the pairwise force kernel. All
// arrays are single precision, as on the accelerators the kernel targets.
type NBodyInput struct {
	Positions         []float32 // x,y,z per body
	Masses            []float32
	G                 float32
	CollisionDistance float32
}

func (in NBodyInput) Len() int { return len(in.Masses) }

// NBodyForce is the lane program of the pairwise kernel: the net force on body
// lane from every other body, skipping pairs closer than CollisionDistance.
func NBodyForce(lane int, in NBodyInput) [3]float32 {
	var f [3]float32
	n := len(in.Masses)
	bx, by, bz := in.Positions[lane*3], in.Positions[lane*3+1], in.Positions[lane*3+2]
	gm := in.G * in.Masses[lane]

	for j := 0; j < n; j++ {
		if j == lane {
			continue
		}
		rx := in.Positions[j*3] - bx
		ry := in.Positions[j*3+1] - by
		rz := in.Positions[j*3+2] - bz
		d := float32(math.Sqrt(float64(rx*rx + ry*ry + rz*rz)))
		if d < in.CollisionDistance {
			continue
		}
		// G*m_i*m_j overflows float32 for stellar masses; fold the distance
		// into m_j first.
		inv := 1 / d
		s := gm * (in.Masses[j] * inv * inv * inv)
		f[0] += rx * s
		f[1] += ry * s
		f[2] += rz * s
	}
	return f
}

// NewNBodyCache returns a kernel cache for NBodyForce on the device.
func NewNBodyCache(device Device) *Cache[NBodyInput, [3]float32] {
	return NewCache[NBodyInput, [3]float32](device, "nbody", NBodyForce)
}
