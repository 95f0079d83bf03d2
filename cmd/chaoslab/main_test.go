package main

import (
	"math"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chaoslab/internal/config"
	"github.com/san-kum/chaoslab/internal/experiment"
	"github.com/san-kum/chaoslab/internal/physics"
)

func TestParseParams(t *testing.T) {
	got, err := parseParams([]string{"rho=28", " sigma = 10.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"rho": 28, "sigma": 10.5}, got)

	for _, bad := range []string{"rho", "=1", "rho=abc"} {
		_, err := parseParams([]string{bad})
		assert.Error(t, err, bad)
	}
}

func TestParseState(t *testing.T) {
	got, err := parseState("1, 2.5,-3")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, got)

	_, err = parseState("1,,2")
	assert.Error(t, err)
}

func newRunCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	dt, duration, seed, stepper = 0, 0, 0, ""
	params, initState, noise, configFile, preset = nil, "", 0, "", ""

	cmd := &cobra.Command{Use: "run"}
	addRunFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg, err := resolveConfig(newRunCmd(t), []string{"lorenz"})
	require.NoError(t, err)
	assert.Equal(t, "lorenz", cfg.System)
	assert.Equal(t, 0.01, cfg.Dt)
	assert.Equal(t, "rk4", cfg.Stepper)
}

func TestResolveConfigFlagsOverridePreset(t *testing.T) {
	cmd := newRunCmd(t, "--preset", "stable", "--dt", "0.005", "--param", "rho=20")
	cfg, err := resolveConfig(cmd, []string{"lorenz"})
	require.NoError(t, err)
	assert.Equal(t, 0.005, cfg.Dt)
	assert.Equal(t, 20.0, cfg.Params["rho"])
}

func TestResolveConfigMapDefaults(t *testing.T) {
	cfg, err := resolveConfig(newRunCmd(t), []string{"logistic"})
	require.NoError(t, err)
	assert.Equal(t, mapDt, cfg.Dt)
	assert.Equal(t, mapDuration, cfg.Duration)

	cfg, err = resolveConfig(newRunCmd(t, "--dt", "0.5"), []string{"logistic"})
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Dt)
}

func TestResolveConfigUnknownPreset(t *testing.T) {
	_, err := resolveConfig(newRunCmd(t, "--preset", "nope"), []string{"lorenz"})
	assert.Error(t, err)
}

func TestResolveConfigInit(t *testing.T) {
	cfg, err := resolveConfig(newRunCmd(t, "--init", "0.1, 0.2, 0.3"), []string{"lorenz"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, cfg.Init)
}

func newLyapunovCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	dt, duration, seed, stepper = 0, 0, 0, ""
	params, initState, noise, configFile, preset = nil, "", 0, "", ""
	lyapSteps, mapR, mapX0 = 0, 0, 0

	cmd := &cobra.Command{Use: "lyapunov"}
	addLyapunovFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func logisticStartFor(t *testing.T, cmd *cobra.Command) (*physics.LogisticMap, float64) {
	t.Helper()
	cfg, err := resolveConfig(cmd, []string{"logistic"})
	require.NoError(t, err)
	exp, err := experiment.New(cfg, nil)
	require.NoError(t, err)

	sys, ok := exp.System().(*physics.LogisticMap)
	require.True(t, ok)
	return logisticStart(cmd, sys, exp.InitState())
}

func TestLogisticStartFollowsSystem(t *testing.T) {
	m, x0 := logisticStartFor(t, newLyapunovCmd(t, "--param", "r=3.2"))
	assert.Equal(t, 3.2, m.R)
	assert.Equal(t, 0.3, x0)

	est := logisticExponents(m, x0, 20000)
	assert.Less(t, est.trajectory, 0.0)
	assert.Less(t, est.orbit, 0.0)
	assert.Less(t, est.derivative, 0.0)
}

func TestLogisticStartFollowsPreset(t *testing.T) {
	cmd := newLyapunovCmd(t, "--preset", "period2")
	m, x0 := logisticStartFor(t, cmd)

	p := config.GetPreset("logistic", "period2")
	assert.Equal(t, p.Params["r"], m.R)
	if len(p.Init) > 0 {
		assert.Equal(t, p.Init[0], x0)
	}
	assert.Less(t, logisticExponents(m, x0, 20000).trajectory, 0.0)
}

func TestLogisticStartFlagsOverride(t *testing.T) {
	m, x0 := logisticStartFor(t, newLyapunovCmd(t, "--param", "r=3.2", "--r", "4", "--x0", "0.9"))
	assert.Equal(t, 4.0, m.R)
	assert.Equal(t, 0.9, x0)
	assert.InDelta(t, math.Ln2, logisticExponents(m, x0, 100000).trajectory, 0.01)
}
