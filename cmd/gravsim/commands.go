package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/engine"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/viz"
)

// resolveConfig loads --config or --preset and applies the flags the user set
// explicitly on top of it.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	} else {
		cfg, err = config.GetPreset(preset)
		if err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = mode
	}
	if flags.Changed("theta") {
		cfg.Theta = theta
	}
	if flags.Changed("dt") {
		cfg.DT = dt
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Lookup("steps") != nil && flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Lookup("record-every") != nil && flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if flags.Changed("seed") || flags.Changed("bodies") {
		if cfg.Generator == nil {
			return nil, fmt.Errorf("%w: --seed and --bodies need a generator in the config", config.ErrInvalid)
		}
		if flags.Changed("seed") {
			cfg.Generator.Seed = seed
		}
		if flags.Changed("bodies") {
			cfg.Generator.N = numBodies
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if runName != "" {
		cfg.Name = runName
	}

	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if ensemble > 1 {
		return runEnsemble(ctx, st, cfg, opts)
	}

	set, err := cfg.BuildSet()
	if err != nil {
		return err
	}
	eng, err := engine.New(opts)
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	s := sim.New(eng, integ)
	for _, m := range cfg.Metrics() {
		s.AddMetric(m)
	}
	s.SetPerf(metrics.NewPerfCollector(perfWindow))

	slog.Info("running simulation",
		"name", cfg.Name,
		"bodies", set.Len(),
		"mode", opts.Mode.String(),
		"solver", eng.SolverFor(set.Len()),
		"integrator", integ.Name(),
		"dt", cfg.DT,
		"steps", cfg.Steps,
	)

	start := time.Now()
	result, runErr := s.Run(ctx, set, cfg.SimConfig())
	elapsed := time.Since(start)
	if runErr != nil && (result == nil || !errors.Is(runErr, context.Canceled)) {
		return runErr
	}
	if runErr != nil {
		slog.Warn("simulation interrupted, saving partial run", "steps_taken", result.StepsTaken)
	}

	runID, err := st.Save(newMetadata(cfg, opts, integ.Name()), result, result.Perf)
	if err != nil {
		return err
	}

	fmt.Printf("completed %d iterations in %v\n", result.StepsTaken, elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("solver: %s\n", result.Solver)
	fmt.Printf("frames: %d\n", len(result.Frames))
	printMetrics(result.Metrics)
	return runErr
}

func runEnsemble(ctx context.Context, st *storage.Store, cfg *config.Config, opts engine.Options) error {
	if cfg.Generator == nil {
		return fmt.Errorf("%w: --ensemble needs a generator in the config", config.ErrInvalid)
	}
	seedStart := cfg.Generator.Seed

	gen := func(seed int64) (*body.Set, error) {
		return cfg.WithSeed(seed).BuildSet()
	}

	slog.Info("running ensemble", "name", cfg.Name, "runs", ensemble, "seed_start", seedStart)
	start := time.Now()
	results, err := sim.NewEnsemble(opts, cfg.Integrator, ensemble, seedStart).
		WithMetrics(cfg.Metrics).
		WithParallelism(cfg.Workers).
		Run(ctx, gen, cfg.SimConfig())
	if err != nil {
		return err
	}

	fmt.Printf("completed %d runs in %v\n", len(results), time.Since(start).Round(time.Millisecond))
	for i, res := range results {
		member := cfg.WithSeed(seedStart + int64(i))
		member.Name = fmt.Sprintf("%s_seed%d", cfg.Name, member.Generator.Seed)
		runID, err := st.Save(newMetadata(member, opts, cfg.Integrator), res, res.Perf)
		if err != nil {
			return err
		}
		fmt.Printf("  %s  drift=%.3e\n", runID, res.EnergyDrift)
	}
	return nil
}

func newMetadata(cfg *config.Config, opts engine.Options, integ string) storage.RunMetadata {
	meta := storage.RunMetadata{
		Name:        cfg.Name,
		Mode:        opts.Mode.String(),
		Integrator:  integ,
		Theta:       cfg.Theta,
		DT:          cfg.DT,
		Steps:       cfg.Steps,
		RecordEvery: cfg.RecordEvery,
	}
	if cfg.Generator != nil {
		meta.Seed = cfg.Generator.Seed
	}
	return meta
}

func printMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6e\n", name, m[name])
	}
}

func benchSolvers(cmd *cobra.Command, args []string) error {
	generated, err := config.Generate(config.GeneratorConfig{Kind: "random", N: benchBodies, Seed: benchSeed})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	st := viz.NewStyles(viz.ThemeDeepSpace)
	rows := make([][]string, 0, len(benchModes))
	fmt.Printf("benchmarking %d bodies, %d ticks per solver\n\n", benchBodies, benchSteps)

	for _, name := range benchModes {
		m, err := engine.ParseMode(name)
		if err != nil {
			return err
		}
		eng, err := engine.New(engine.Options{Mode: m, Theta: benchTheta, Workers: benchWorkers})
		if err != nil {
			return err
		}

		bodies := make([]body.Body, len(generated))
		copy(bodies, generated)
		integ := integrators.NewSemiImplicit()

		// first tick compiles the kernel
		if _, err := eng.Step(ctx, bodies, 1, integ); err != nil {
			return err
		}

		start := time.Now()
		var solver string
		for i := 0; i < benchSteps; i++ {
			out, err := eng.Step(ctx, bodies, 1, integ)
			if err != nil {
				return err
			}
			solver = out.Solver
		}
		elapsed := time.Since(start)

		perSec := 0.0
		if elapsed > 0 {
			perSec = float64(benchSteps) / elapsed.Seconds()
		}
		slog.Debug("bench finished", "mode", m.String(), "iterations", benchSteps, "elapsed", elapsed)
		rows = append(rows, []string{
			m.String(),
			solver,
			fmt.Sprintf("%d", benchSteps),
			elapsed.Round(time.Microsecond).String(),
			fmt.Sprintf("%.1f", perSec),
		})
	}

	fmt.Print(st.Table([]string{"MODE", "SOLVER", "ITERATIONS", "TIME", "ITER/SEC"}, rows))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	st := viz.NewStyles(viz.ThemeDeepSpace)
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Solver,
			fmt.Sprintf("%d", run.Bodies),
			fmt.Sprintf("%d/%d", run.StepsTaken, run.Steps),
			fmt.Sprintf("%g", run.DT),
			fmt.Sprintf("%.3e", run.EnergyDrift),
		}
	}
	fmt.Print(st.Table([]string{"ID", "TIME", "SOLVER", "BODIES", "STEPS", "DT", "DRIFT"}, rows))
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	if jsonOut == "-" {
		return storage.WriteJSON(os.Stdout, *meta, frames)
	}

	styles := viz.NewStyles(viz.ThemeDeepSpace)
	fmt.Println(styles.Title.Render(meta.ID))
	fmt.Println(styles.Row("name", meta.Name))
	fmt.Println(styles.Row("time", meta.Timestamp.Format(time.RFC3339)))
	fmt.Println(styles.Row("mode", meta.Mode))
	fmt.Println(styles.Row("solver", meta.Solver))
	fmt.Println(styles.Row("integrator", meta.Integrator))
	if meta.Solver == engine.SolverBarnesHut {
		fmt.Println(styles.Row("theta", fmt.Sprintf("%g", meta.Theta)))
	}
	fmt.Println(styles.Row("bodies", fmt.Sprintf("%d", meta.Bodies)))
	fmt.Println(styles.Row("dt", fmt.Sprintf("%g", meta.DT)))
	fmt.Println(styles.Row("steps", fmt.Sprintf("%d/%d", meta.StepsTaken, meta.Steps)))
	fmt.Println(styles.Row("frames", fmt.Sprintf("%d", len(frames))))
	printMetrics(meta.Metrics)
	fmt.Println()

	if chart := viz.Plot(viz.EnergySeries(frames), "relative energy drift per frame", plotWidth, plotHeight); chart != "" {
		fmt.Println(chart)
		fmt.Println()
	}

	perf, err := st.LoadPerf(runID)
	if err != nil {
		return err
	}
	if chart := viz.Plot(viz.TickSeries(perf), "avg tick (µs) per perf window", plotWidth, plotHeight); chart != "" {
		fmt.Println(chart)
	}

	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, *meta, frames); err != nil {
			return err
		}
		fmt.Printf("\nexported to %s\n", jsonOut)
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	set, err := cfg.BuildSet()
	if err != nil {
		return err
	}
	eng, err := engine.New(opts)
	if err != nil {
		return err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}

	// logs on the terminal would tear the panel
	if err := setupLogging("error", logFormat); err != nil {
		return err
	}

	wopts := viz.DefaultWatchOptions()
	wopts.DT = cfg.DT
	wopts.StepsPerFrame = stepsPerFrame
	wopts.MaxSteps = maxSteps
	wopts.FPS = frameRate
	wopts.Theme = theme
	return viz.RunWatch(viz.NewModel(cmd.Context(), cfg.Name, eng, integ, set, wopts))
}

func listPresets(cmd *cobra.Command, args []string) error {
	st := viz.NewStyles(viz.ThemeDeepSpace)
	names := config.ListPresets()
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		cfg, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		set, err := cfg.BuildSet()
		if err != nil {
			return err
		}
		generator := "-"
		if cfg.Generator != nil {
			generator = cfg.Generator.Kind
		}
		rows = append(rows, []string{
			name,
			fmt.Sprintf("%d", set.Len()),
			generator,
			cfg.Mode,
			cfg.Integrator,
			fmt.Sprintf("%g", cfg.DT),
			fmt.Sprintf("%d", cfg.Steps),
		})
	}
	fmt.Print(st.Table([]string{"NAME", "BODIES", "GENERATOR", "MODE", "INTEGRATOR", "DT", "STEPS"}, rows))
	return nil
}
