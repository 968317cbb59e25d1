package compute

import "errors"

var (
	// ErrArityMismatch indicates a kernel was run with an input whose length
	// differs from the lane count it was compiled for.
	ErrArityMismatch = errors.New("compute: kernel arity mismatch")

	// ErrNoLanes indicates an invalid lane count at compile time.
	ErrNoLanes = errors.New("compute: invalid lane count")

	// ErrDeviceUnavailable indicates the target device cannot run kernels.
	ErrDeviceUnavailable = errors.New("compute: device not available")
)
