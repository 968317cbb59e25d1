package sim

import (
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/vecmath"
)

// Observer is notified after every tick. bodies is the live population and
// must not be retained.
type Observer interface {
	OnStep(tick int, t float64, bodies []body.Body, out engine.Output)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(tick int, t float64, bodies []body.Body, out engine.Output)

func (f ObserverFunc) OnStep(tick int, t float64, bodies []body.Body, out engine.Output) {
	f(tick, t, bodies, out)
}

type Config struct {
	DT            float64
	Steps         int
	RecordEvery   int
	ValidateState bool
	Seed          int64
}

func DefaultConfig() Config {
	return Config{
		DT:            1,
		Steps:         1000,
		RecordEvery:   10,
		ValidateState: true,
	}
}

// Frame is a copy of the population at one recorded tick.
type Frame struct {
	Tick   int
	Time   float64
	Bodies []body.Body
}

type Result struct {
	Frames      []Frame
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Solver      string
	Perf        []metrics.PerfStatsCSV
}

// Final is the last recorded frame, or the zero Frame if none was recorded.
func (r *Result) Final() Frame {
	if len(r.Frames) == 0 {
		return Frame{}
	}
	return r.Frames[len(r.Frames)-1]
}

// firstInvalid returns the index of the first body with a non-finite
// position or velocity, or -1.
func firstInvalid(bodies []body.Body) int {
	for i := range bodies {
		if !vecmath.IsFinite(bodies[i].Position) || !vecmath.IsFinite(bodies[i].Velocity) {
			return i
		}
	}
	return -1
}
