// Package engine advances a body population by one tick. It picks a force
// solver from the configured mode and body count, runs it, and applies the
// result through an integrator.
package engine

import (
	"context"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/barneshut"
	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/vecmath"
)

// Solver names reported in Output.
const (
	SolverBruteForce = "brute-force"
	SolverParallel   = "parallel"
	SolverBarnesHut  = "barnes-hut"
)

// OutputKind tells how Output.Vectors is to be applied.
type OutputKind int

const (
	// Forces holds the net force per body.
	Forces OutputKind = iota
	// Velocities holds the velocity per body after one kick of dt.
	Velocities
)

func (k OutputKind) String() string {
	if k == Velocities {
		return "velocities"
	}
	return "forces"
}

// Output is the result of one evaluation. Vectors is in input order.
type Output struct {
	Kind    OutputKind
	Solver  string
	Vectors []r3.Vec
}

// TreeStats describes the last tree built by the Barnes-Hut solver.
type TreeStats struct {
	Nodes  int
	Flat   int
	Depth  int
	Merged int
}

// Engine holds the solver configuration and the kernel caches that persist
// across ticks. It is not safe for concurrent use; give each simulation its
// own Engine.
type Engine struct {
	opts   Options
	device compute.Device
	nbody  *compute.Cache[compute.NBodyInput, [3]float32]
	tree   *compute.Cache[barneshut.Input, r3.Vec]
	perf   *metrics.PerfCollector

	lastSolver string
	lastTree   TreeStats

	// set once the velocity path has logged that it ignores the integrator
	integNoted bool
}

func New(opts Options) (*Engine, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	device := compute.NewCPUDevice(opts.Workers)
	return &Engine{
		opts:   opts,
		device: device,
		nbody:  compute.NewNBodyCache(device),
		tree:   barneshut.NewCache(device),
	}, nil
}

func (e *Engine) Options() Options { return e.opts }

// SetPerf attaches a collector that receives the phase boundaries of each
// tick. The caller owns StartTick and EndTick.
func (e *Engine) SetPerf(p *metrics.PerfCollector) { e.perf = p }

// LastTree reports the tree built by the most recent Barnes-Hut evaluation.
func (e *Engine) LastTree() TreeStats { return e.lastTree }

// KernelBuilds reports how often each kernel cache has compiled.
func (e *Engine) KernelBuilds() (nbody, tree int) {
	return e.nbody.Builds(), e.tree.Builds()
}

// SolverFor names the solver used for n bodies.
func (e *Engine) SolverFor(n int) string {
	switch e.opts.Mode {
	case ModeCPU:
		return SolverBruteForce
	case ModeGPU:
		return SolverParallel
	case ModeBarnesHut:
		return SolverBarnesHut
	}
	if n > e.opts.GPUThreshold {
		return SolverParallel
	}
	return SolverBruteForce
}

// Evaluate computes forces, or kicked velocities for the tree solver, for
// every body. Bodies are not modified.
func (e *Engine) Evaluate(ctx context.Context, bodies []body.Body, dt float64) (Output, error) {
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	solver := e.SolverFor(len(bodies))
	if solver != e.lastSolver {
		slog.Debug("solver selected", "solver", solver, "mode", e.opts.Mode, "bodies", len(bodies))
		e.lastSolver = solver
	}

	switch solver {
	case SolverParallel:
		return e.parallel(ctx, bodies)
	case SolverBarnesHut:
		return e.barnesHut(ctx, bodies, dt)
	}

	e.perf.StartPhase(metrics.PhaseEvaluate)
	return Output{Kind: Forces, Solver: SolverBruteForce, Vectors: physics.BruteForce(bodies)}, nil
}

func (e *Engine) parallel(ctx context.Context, bodies []body.Body) (Output, error) {
	e.perf.StartPhase(metrics.PhaseEvaluate)
	positions, masses := body.Pack(bodies).Float32()
	forces, err := e.nbody.Run(ctx, compute.NBodyInput{
		Positions:         positions,
		Masses:            masses,
		G:                 physics.G,
		CollisionDistance: physics.CollisionDistance,
	})
	if err != nil {
		return Output{}, err
	}

	vectors := make([]r3.Vec, len(forces))
	for i, f := range forces {
		vectors[i] = r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
	}
	return Output{Kind: Forces, Solver: SolverParallel, Vectors: vectors}, nil
}

func (e *Engine) barnesHut(ctx context.Context, bodies []body.Body, dt float64) (Output, error) {
	n := len(bodies)
	positions := make([]r3.Vec, n)
	velocities := make([]r3.Vec, n)
	masses := make([]float64, n)
	for i := range bodies {
		positions[i] = bodies[i].Position
		velocities[i] = bodies[i].Velocity
		masses[i] = bodies[i].Mass
	}

	e.perf.StartPhase(metrics.PhaseBuildTree)
	tree, err := barneshut.Build(positions, masses, e.opts.MaxDepth)
	if err != nil {
		return Output{}, err
	}

	e.perf.StartPhase(metrics.PhaseFlatten)
	flat := barneshut.Flatten(tree)
	e.lastTree = TreeStats{Nodes: tree.Len(), Flat: flat.Len(), Depth: tree.Depth(), Merged: tree.Merged()}
	if tree.Merged() > 0 {
		slog.Debug("bodies merged at depth cap", "merged", tree.Merged(), "max_depth", e.opts.MaxDepth)
	}

	e.perf.StartPhase(metrics.PhaseEvaluate)
	out, err := e.tree.Run(ctx, barneshut.Input{
		Tree:       flat,
		Positions:  positions,
		Velocities: velocities,
		Masses:     masses,
		Theta:      e.opts.Theta,
		DT:         dt,
	})
	if err != nil {
		return Output{}, err
	}
	return Output{Kind: Velocities, Solver: SolverBarnesHut, Vectors: out}, nil
}

// Step evaluates and applies one tick in place. Forces become accelerations
// that integ applies; velocities from the tree solver replace the old ones and
// positions drift along them. A nil integ means semi-implicit Euler.
func (e *Engine) Step(ctx context.Context, bodies []body.Body, dt float64, integ integrators.Integrator) (Output, error) {
	out, err := e.Evaluate(ctx, bodies, dt)
	if err != nil {
		return out, err
	}
	if integ == nil {
		integ = integrators.NewSemiImplicit()
	}

	if _, semi := integ.(*integrators.SemiImplicit); out.Kind == Velocities && !semi && !e.integNoted {
		slog.Debug("tree solver drifts with its own velocities, integrator ignored", "integrator", integ.Name())
		e.integNoted = true
	}

	e.perf.StartPhase(metrics.PhaseIntegrate)
	for i := range bodies {
		b := &bodies[i]
		switch out.Kind {
		case Forces:
			b.Acceleration = physics.Acceleration(out.Vectors[i], b.Mass)
			integ.Step(b, dt)
		case Velocities:
			if dt != 0 {
				b.Acceleration = vecmath.Divide(vecmath.Sub(out.Vectors[i], b.Velocity), dt)
			}
			b.Velocity = out.Vectors[i]
			integrators.Drift(b, dt)
		}
	}
	return out, nil
}
