package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/physics"
)

func TestEnsembleRun(t *testing.T) {
	lz := physics.NewLorenz()
	base := New(lz, integrators.NewRK4())

	cfg := Config{Dt: 0.01, Duration: 5}
	traces, err := NewEnsemble(base, 4, 1, 0.5).Run(context.Background(), lz.DefaultState(), cfg)
	require.NoError(t, err)
	require.Len(t, traces, 4)

	for _, tr := range traces {
		assert.Len(t, tr.States, cfg.Steps()+1)
	}
	assert.NotEqual(t, traces[0].Final(), traces[1].Final(), "noisy members should diverge")
	assert.Equal(t, 28.0, lz.Rho, "base system must not be perturbed")

	spread := FinalSpread(traces)
	require.Len(t, spread.StdDev, 3)
	assert.Greater(t, spread.StdDev[0], 0.0)
}

func TestEnsembleReproducible(t *testing.T) {
	lz := physics.NewLorenz()
	cfg := Config{Dt: 0.01, Duration: 1}

	a, err := NewEnsemble(New(lz, integrators.NewRK4()), 2, 7, 0.1).Run(context.Background(), lz.DefaultState(), cfg)
	require.NoError(t, err)
	b, err := NewEnsemble(New(lz, integrators.NewRK4()), 2, 7, 0.1).Run(context.Background(), lz.DefaultState(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a[1].Final(), b[1].Final())
}

func TestEnsembleWithoutNoiseIsIdentical(t *testing.T) {
	lz := physics.NewLorenz()
	traces, err := NewEnsemble(New(lz, integrators.NewRK4()), 3, 0, 0).
		Run(context.Background(), lz.DefaultState(), Config{Dt: 0.01, Duration: 1})
	require.NoError(t, err)

	spread := FinalSpread(traces)
	for _, sd := range spread.StdDev {
		assert.InDelta(t, 0, sd, 1e-9)
	}
}

func TestEnsembleNeedsRuns(t *testing.T) {
	_, err := NewEnsemble(New(physics.NewLorenz(), integrators.NewRK4()), 0, 0, 0).
		Run(context.Background(), dynamo.State{1, 1, 1}, DefaultConfig())
	assert.Error(t, err)
}

func TestFinalSpreadEmpty(t *testing.T) {
	assert.Equal(t, Spread{}, FinalSpread(nil))
}
