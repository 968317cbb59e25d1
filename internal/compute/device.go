package compute

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Device executes kernels. Each kernel invocation is split into independent
// lanes, one per output element; lanes never communicate.
type Device interface {
	Name() string
	Available() bool
	Workers() int
	Dispatch(ctx context.Context, lanes int, fn func(lane int)) error
}

// serialThreshold is the lane count below which dispatch stays on the calling
// goroutine.
const serialThreshold = 16

// CPUDevice runs lanes on a bounded pool of goroutines, each worker taking a
// contiguous chunk of lanes.
type CPUDevice struct {
	workers int
}

// NewCPUDevice returns a device with the given worker count; zero or negative
// means one worker per CPU.
func NewCPUDevice(workers int) *CPUDevice {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUDevice{workers: workers}
}

func (c *CPUDevice) Name() string    { return "cpu-lanes" }
func (c *CPUDevice) Available() bool { return true }
func (c *CPUDevice) Workers() int    { return c.workers }

func (c *CPUDevice) Dispatch(ctx context.Context, lanes int, fn func(lane int)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if lanes < serialThreshold || c.workers == 1 {
		for i := 0; i < lanes; i++ {
			fn(i)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	chunkSize := (lanes + c.workers - 1) / c.workers

	for start := 0; start < lanes; start += chunkSize {
		end := start + chunkSize
		if end > lanes {
			end = lanes
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}

	return g.Wait()
}
