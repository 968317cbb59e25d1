package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	configFile    string
	preset        string
	mode          string
	theta         float64
	dt            float64
	steps         int
	recordEvery   int
	integrator    string
	workers       int
	seed          int64
	numBodies     int
	runName       string
	ensemble      int
	perfWindow    int
	stepsPerFrame int
	maxSteps      int
	frameRate     int
	theme         string
	benchModes    []string
	benchBodies   int
	benchSteps    int
	benchTheta    float64
	benchSeed     int64
	benchWorkers  int
	jsonOut       string
	plotWidth     int
	plotHeight    int
)

// main registers the gravsim commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "n-body gravity simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel, logFormat)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 0, "number of ticks")
	runCmd.Flags().IntVar(&recordEvery, "record-every", 0, "record a frame every n ticks")
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset or config name)")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of independent runs with consecutive generator seeds")
	runCmd.Flags().IntVar(&perfWindow, "perf-window", 100, "ticks per perf.csv row")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time each solver on a random population",
		Args:  cobra.NoArgs,
		RunE:  benchSolvers,
	}
	benchCmd.Flags().IntVarP(&benchBodies, "bodies", "n", 1000, "number of bodies")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 20, "ticks per solver")
	benchCmd.Flags().StringSliceVar(&benchModes, "modes", []string{"cpu", "gpu", "gpu-bh"}, "modes to time")
	benchCmd.Flags().Float64Var(&benchTheta, "theta", 0.5, "barnes-hut opening angle")
	benchCmd.Flags().Int64Var(&benchSeed, "seed", 1, "population seed")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 0, "kernel workers (0 = GOMAXPROCS)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata and plots",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().StringVar(&jsonOut, "json", "", "export frames as JSON to this path (- for stdout)")
	showCmd.Flags().IntVar(&plotWidth, "width", 70, "plot width")
	showCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "run a simulation with a live stats panel",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	addSimFlags(watchCmd)
	watchCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 1, "ticks per rendered frame")
	watchCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "stop after n ticks (0 = until quit)")
	watchCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	watchCmd.Flags().StringVar(&theme, "theme", "deep-space", "colour theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, benchCmd, listCmd, showCmd, watchCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addSimFlags registers the flags shared by run and watch.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&preset, "preset", "p", "earth_moon", "preset name")
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "config file (yaml), overrides --preset")
	cmd.Flags().StringVar(&mode, "mode", "", "solver mode (auto, cpu, gpu, gpu-bh)")
	cmd.Flags().Float64Var(&theta, "theta", 0, "barnes-hut opening angle")
	cmd.Flags().Float64Var(&dt, "dt", 0, "timestep in seconds (0 freezes, negative reverses)")
	cmd.Flags().StringVar(&integrator, "integrator", "", "integrator (symplectic, explicit)")
	cmd.Flags().IntVar(&workers, "workers", 0, "kernel workers (0 = GOMAXPROCS)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "generator seed")
	cmd.Flags().IntVarP(&numBodies, "bodies", "n", 0, "generator body count")
}

func setupLogging(level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
