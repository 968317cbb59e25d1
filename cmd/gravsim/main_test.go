package main

import (
	"errors"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/gravsim/internal/config"
)

func simCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addSimFlags(cmd)
	cmd.Flags().IntVar(&steps, "steps", 0, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestResolveConfigPreset(t *testing.T) {
	cfg, err := resolveConfig(simCommand(t, "--preset", "earth_moon"))
	require.NoError(t, err)

	want, err := config.GetPreset("earth_moon")
	require.NoError(t, err)
	assert.Equal(t, want.DT, cfg.DT)
	assert.Equal(t, want.Steps, cfg.Steps)
}

func TestResolveConfigOverrides(t *testing.T) {
	cfg, err := resolveConfig(simCommand(t,
		"--preset", "cloud",
		"--mode", "gpu",
		"--theta", "0.3",
		"--dt", "-2",
		"--steps", "7",
		"--integrator", "explicit",
		"--seed", "99",
		"-n", "12",
	))
	require.NoError(t, err)

	assert.Equal(t, "gpu", cfg.Mode)
	assert.Equal(t, 0.3, cfg.Theta)
	assert.Equal(t, -2.0, cfg.DT)
	assert.Equal(t, 7, cfg.Steps)
	assert.Equal(t, "explicit", cfg.Integrator)
	require.NotNil(t, cfg.Generator)
	assert.Equal(t, int64(99), cfg.Generator.Seed)
	assert.Equal(t, 12, cfg.Generator.N)
}

func TestResolveConfigErrors(t *testing.T) {
	_, err := resolveConfig(simCommand(t, "--preset", "nope"))
	assert.True(t, errors.Is(err, config.ErrUnknownPreset))

	_, err = resolveConfig(simCommand(t, "--preset", "earth_moon", "--theta", "-1"))
	assert.True(t, errors.Is(err, config.ErrInvalid))

	_, err = resolveConfig(simCommand(t, "--preset", "earth_moon", "--seed", "3"))
	assert.True(t, errors.Is(err, config.ErrInvalid))

	_, err = resolveConfig(simCommand(t, "--preset", "galaxy", "--integrator", "explicit"))
	assert.True(t, errors.Is(err, config.ErrInvalid))
}

func TestSetupLogging(t *testing.T) {
	assert.NoError(t, setupLogging("debug", "text"))
	assert.NoError(t, setupLogging("warn", "json"))
	assert.Error(t, setupLogging("loud", "text"))
	assert.Error(t, setupLogging("info", "xml"))
	require.NoError(t, setupLogging("info", "text"))
}
