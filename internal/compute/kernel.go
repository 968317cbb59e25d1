package compute

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Input is the argument block of a kernel. Len is the number of lanes the
// input feeds.
type Input interface {
	Len() int
}

// Program computes the output of a single lane. It must only read in and must
// not retain it.
type Program[In Input, Out any] func(lane int, in In) Out

// Kernel is a program bound to a device with a fixed output arity.
type Kernel[In Input, Out any] struct {
	name    string
	lanes   int
	program Program[In, Out]
	device  Device
}

func Compile[In Input, Out any](device Device, name string, lanes int, program Program[In, Out]) (*Kernel[In, Out], error) {
	if lanes < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoLanes, lanes)
	}
	if !device.Available() {
		return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, device.Name())
	}
	return &Kernel[In, Out]{name: name, lanes: lanes, program: program, device: device}, nil
}

func (k *Kernel[In, Out]) Name() string { return k.name }
func (k *Kernel[In, Out]) Lanes() int   { return k.lanes }

// Run executes one lane per output slot. The input must feed exactly the
// number of lanes the kernel was compiled for.
func (k *Kernel[In, Out]) Run(ctx context.Context, in In) ([]Out, error) {
	if n := in.Len(); n != k.lanes {
		return nil, fmt.Errorf("%w: kernel %s compiled for %d lanes, got %d", ErrArityMismatch, k.name, k.lanes, n)
	}

	out := make([]Out, k.lanes)
	err := k.device.Dispatch(ctx, k.lanes, func(lane int) {
		out[lane] = k.program(lane, in)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Cache holds the most recently compiled kernel for a program and recompiles it
// whenever the lane count changes.
type Cache[In Input, Out any] struct {
	mu      sync.Mutex
	device  Device
	name    string
	program Program[In, Out]
	kernel  *Kernel[In, Out]
	builds  int
}

func NewCache[In Input, Out any](device Device, name string, program Program[In, Out]) *Cache[In, Out] {
	return &Cache[In, Out]{device: device, name: name, program: program}
}

// Kernel returns a kernel compiled for the given lane count.
func (c *Cache[In, Out]) Kernel(lanes int) (*Kernel[In, Out], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kernel != nil && c.kernel.Lanes() == lanes {
		return c.kernel, nil
	}

	k, err := Compile(c.device, c.name, lanes, c.program)
	if err != nil {
		return nil, err
	}
	slog.Debug("compiled kernel", "kernel", c.name, "lanes", lanes, "device", c.device.Name())
	c.kernel = k
	c.builds++
	return k, nil
}

func (c *Cache[In, Out]) Run(ctx context.Context, in In) ([]Out, error) {
	k, err := c.Kernel(in.Len())
	if err != nil {
		return nil, err
	}
	return k.Run(ctx, in)
}

// Builds reports how many times the kernel has been compiled.
func (c *Cache[In, Out]) Builds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}
