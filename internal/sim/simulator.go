package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
)

type Simulator struct {
	engine     *engine.Engine
	integrator integrators.Integrator
	metrics    []metrics.Metric
	observers  []Observer
	perf       *metrics.PerfCollector
}

// New returns a simulator stepping with eng. A nil integrator means
// semi-implicit Euler.
func New(eng *engine.Engine, integrator integrators.Integrator) *Simulator {
	if integrator == nil {
		integrator = integrators.NewSemiImplicit()
	}
	return &Simulator{
		engine:     eng,
		integrator: integrator,
		metrics:    make([]metrics.Metric, 0),
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m metrics.Metric)   { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)       { s.observers = append(s.observers, o) }
func (s *Simulator) Integrator() string           { return s.integrator.Name() }
func (s *Simulator) Engine() *engine.Engine       { return s.engine }
func (s *Simulator) Perf() *metrics.PerfCollector { return s.perf }

// SetPerf times every tick with p and records a perf row each time its window
// fills.
func (s *Simulator) SetPerf(p *metrics.PerfCollector) {
	s.perf = p
	s.engine.SetPerf(p)
}

// Run advances set in place for cfg.Steps ticks. The initial state and every
// RecordEvery-th tick are copied into Result.Frames; the final tick is always
// recorded. On cancellation or an invalid state the partial result is
// returned along with the error.
func (s *Simulator) Run(ctx context.Context, set *body.Set, cfg Config) (*Result, error) {
	cfg, err := s.validateConfig(cfg)
	if err != nil {
		return nil, err
	}

	frames := cfg.Steps/cfg.RecordEvery + 2
	result := &Result{
		Frames:  make([]Frame, 0, frames),
		Times:   make([]float64, 0, frames),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	bodies := set.Bodies()
	t := 0.0
	dt := cfg.DT

	result.record(0, t, bodies)
	for _, m := range s.metrics {
		m.Observe(bodies, t)
	}
	initialEnergy := totalEnergy(bodies)

	slog.Debug("run started", "bodies", len(bodies), "steps", cfg.Steps, "dt", dt,
		"mode", s.engine.Options().Mode, "integrator", s.integrator.Name())

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result, bodies, initialEnergy)
			return result, ctx.Err()
		default:
		}

		s.perf.StartTick()
		out, err := s.engine.Step(ctx, bodies, dt, s.integrator)
		if err != nil {
			s.finish(result, bodies, initialEnergy)
			return result, &SimulationError{Step: i, Time: t, Wrapped: err}
		}
		s.perf.EndTick()
		if s.perf.WindowFull() {
			stats := s.perf.Stats()
			result.Perf = append(result.Perf, stats.ToCSV(i+1))
			slog.Debug("perf", "tick", i+1, "stats", stats)
		}

		t += dt
		result.StepsTaken++
		result.Solver = out.Solver

		if cfg.ValidateState {
			if idx := firstInvalid(bodies); idx >= 0 {
				s.finish(result, bodies, initialEnergy)
				return result, &SimulationError{Step: i, Time: t, BodyID: bodies[idx].ID, Wrapped: ErrInvalidState}
			}
		}

		for _, m := range s.metrics {
			m.Observe(bodies, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(i+1, t, bodies, out)
		}

		if (i+1)%cfg.RecordEvery == 0 || i+1 == cfg.Steps {
			result.record(i+1, t, bodies)
		}
	}

	s.finish(result, bodies, initialEnergy)
	return result, nil
}

func (r *Result) record(tick int, t float64, bodies []body.Body) {
	frame := Frame{Tick: tick, Time: t, Bodies: make([]body.Body, len(bodies))}
	copy(frame.Bodies, bodies)
	r.Frames = append(r.Frames, frame)
	r.Times = append(r.Times, t)
}

func (s *Simulator) finish(result *Result, bodies []body.Body, initialEnergy float64) {
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(totalEnergy(bodies)-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func (s *Simulator) validateConfig(cfg Config) (Config, error) {
	if math.IsNaN(cfg.DT) || math.IsInf(cfg.DT, 0) {
		return cfg, fmt.Errorf("%w: dt must be finite, got %v", ErrInvalidConfig, cfg.DT)
	}
	if cfg.Steps < 0 {
		return cfg, fmt.Errorf("%w: steps must not be negative, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if cfg.RecordEvery < 0 {
		return cfg, fmt.Errorf("%w: record_every must not be negative, got %d", ErrInvalidConfig, cfg.RecordEvery)
	}
	if cfg.RecordEvery == 0 {
		cfg.RecordEvery = 1
	}
	return cfg, nil
}

func totalEnergy(bodies []body.Body) float64 {
	ke, pe := physics.Energy(bodies)
	return ke + pe
}

// RunWithCallback steps set until cfg.Steps ticks have run, the context is
// canceled or callback returns false. Nothing is recorded.
func (s *Simulator) RunWithCallback(ctx context.Context, set *body.Set, cfg Config, callback func(tick int, t float64, bodies []body.Body, out engine.Output) bool) error {
	cfg, err := s.validateConfig(cfg)
	if err != nil {
		return err
	}

	bodies := set.Bodies()
	t := 0.0

	for i := 0; i < cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.perf.StartTick()
		out, err := s.engine.Step(ctx, bodies, cfg.DT, s.integrator)
		if err != nil {
			return &SimulationError{Step: i, Time: t, Wrapped: err}
		}
		s.perf.EndTick()
		t += cfg.DT

		if cfg.ValidateState {
			if idx := firstInvalid(bodies); idx >= 0 {
				return &SimulationError{Step: i, Time: t, BodyID: bodies[idx].ID, Wrapped: ErrInvalidState}
			}
		}

		if !callback(i+1, t, bodies, out) {
			return nil
		}
	}

	return nil
}
