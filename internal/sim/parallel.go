package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
)

// Generator builds the initial population for one ensemble member.
type Generator func(seed int64) (*body.Set, error)

// Ensemble runs independent copies of a simulation, one per seed. Every run
// gets its own engine, integrator and metrics.
type Ensemble struct {
	opts       engine.Options
	integrator string
	metrics    func() []metrics.Metric
	numRuns    int
	seedStart  int64
	parallel   int
}

func NewEnsemble(opts engine.Options, integrator string, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		opts:       opts,
		integrator: integrator,
		metrics:    metrics.Defaults,
		numRuns:    numRuns,
		seedStart:  seedStart,
	}
}

// WithMetrics replaces the per-run metric factory.
func (e *Ensemble) WithMetrics(factory func() []metrics.Metric) *Ensemble {
	e.metrics = factory
	return e
}

// WithParallelism bounds how many runs execute at once; zero or negative
// means unbounded.
func (e *Ensemble) WithParallelism(n int) *Ensemble {
	e.parallel = n
	return e
}

// Run executes every member and returns results in seed order. The first
// failure cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, gen Generator, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)

	g, gctx := errgroup.WithContext(ctx)
	if e.parallel > 0 {
		g.SetLimit(e.parallel)
	}

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = e.seedStart + int64(i)

			set, err := gen(cfgCopy.Seed)
			if err != nil {
				return fmt.Errorf("ensemble run %d: %w", i, err)
			}
			eng, err := engine.New(e.opts)
			if err != nil {
				return err
			}
			integ, err := integrators.New(e.integrator)
			if err != nil {
				return err
			}

			s := New(eng, integ)
			for _, m := range e.metrics() {
				s.AddMetric(m)
			}

			res, err := s.Run(gctx, set, cfgCopy)
			if err != nil {
				return fmt.Errorf("ensemble run %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
