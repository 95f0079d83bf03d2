package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/metrics"
	"github.com/san-kum/chaoslab/internal/physics"
)

type decay struct{}

func (decay) Dimension() int { return 1 }
func (decay) RHS(_ float64, x dynamo.State) dynamo.State {
	return dynamo.State{-x[0]}
}

type blowup struct{}

func (blowup) Dimension() int { return 1 }
func (blowup) RHS(_ float64, x dynamo.State) dynamo.State {
	return dynamo.State{math.Inf(1)}
}

type countingMetric struct {
	count int
	sum   float64
}

func (c *countingMetric) Name() string { return "test" }
func (c *countingMetric) Observe(x dynamo.State, _ float64) {
	c.count++
	c.sum += x[0]
}
func (c *countingMetric) Value() float64 {
	if c.count == 0 {
		return 0
	}
	return c.sum / float64(c.count)
}
func (c *countingMetric) Reset() {
	c.count = 0
	c.sum = 0
}

func TestSimulatorRun(t *testing.T) {
	s := New(decay{}, integrators.NewEuler())

	x0 := dynamo.State{1.0}
	trace, err := s.Run(context.Background(), x0, Config{Dt: 0.1, Duration: 1.0})
	require.NoError(t, err)

	assert.Len(t, trace.States, 11)
	assert.Len(t, trace.Times, 11)
	assert.Equal(t, 10, trace.Steps)
	assert.Equal(t, []string{"x0"}, trace.Header)
	assert.InDelta(t, 1.0, trace.Times[10], 1e-12)

	// Euler on x' = -x gives 0.9^n.
	assert.InDelta(t, math.Pow(0.9, 10), trace.Final()[0], 1e-12)
	assert.Equal(t, 1.0, x0[0], "initial state must not be mutated")
}

func TestSimulatorInvalidConfig(t *testing.T) {
	s := New(decay{}, integrators.NewEuler())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1.0}},
		{"negative dt", Config{Dt: -0.1, Duration: 1.0}},
		{"zero duration", Config{Dt: 0.1, Duration: 0}},
		{"negative duration", Config{Dt: 0.1, Duration: -1.0}},
		{"shorter than a step", Config{Dt: 0.1, Duration: 0.05}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Run(context.Background(), dynamo.State{1.0}, tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestSimulatorDimensionMismatch(t *testing.T) {
	s := New(physics.NewLorenz(), integrators.NewRK4())
	_, err := s.Run(context.Background(), dynamo.State{1, 1}, DefaultConfig())
	assert.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestSimulatorMetrics(t *testing.T) {
	s := New(decay{}, integrators.NewEuler())
	metric := &countingMetric{}
	s.AddMetric(metric)

	trace, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Dt: 0.1, Duration: 1.0})
	require.NoError(t, err)

	assert.Contains(t, trace.Metrics, "test")
	assert.Equal(t, 10, metric.count)
}

func TestSimulatorObservers(t *testing.T) {
	s := New(decay{}, integrators.NewEuler())

	var steps []int
	s.AddObserver(ObserverFunc(func(step int, _ float64, _ dynamo.State) {
		steps = append(steps, step)
	}))

	_, err := s.Run(context.Background(), dynamo.State{1.0}, Config{Dt: 0.25, Duration: 1.0})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, steps)
}

func TestSimulatorStopsOnInvalidState(t *testing.T) {
	s := New(blowup{}, integrators.NewEuler())

	trace, err := s.Run(context.Background(), dynamo.State{1.0}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, trace.Errors, 1)

	var simErr dynamo.SimError
	require.True(t, errors.As(trace.Errors[0], &simErr))
	assert.Equal(t, 0, simErr.Step)
	assert.ErrorIs(t, trace.Errors[0], dynamo.ErrInvalidState)
	assert.Len(t, trace.States, 1)
}

func TestSimulatorCancel(t *testing.T) {
	s := New(physics.NewLorenz(), integrators.NewRK4())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	trace, err := s.Run(ctx, dynamo.State{1, 1, 1}, DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, trace)
	assert.Len(t, trace.States, 1)
}

func TestSimulatorEnergyDrift(t *testing.T) {
	dp := physics.NewDoublePendulum()
	s := New(dp, integrators.NewRK4())
	s.AddMetric(metrics.NewEnergyDrift(dp))

	trace, err := s.Run(context.Background(), dynamo.State{0.5, -0.3, 0, 0}, Config{Dt: 0.001, Duration: 2})
	require.NoError(t, err)

	assert.Less(t, trace.EnergyDrift, 1e-4)
	assert.Less(t, trace.Metrics["energy_drift"], 1e-4)
}

func TestSimulatorDivergedRunDriftUsesLastValidState(t *testing.T) {
	dp := physics.NewDoublePendulum()
	s := New(dp, integrators.NewEuler())
	s.AddMetric(metrics.NewEnergyDrift(dp))

	x0 := dp.DefaultState()
	trace, err := s.Run(context.Background(), x0, Config{Dt: 0.5, Duration: 100, ValidateState: true})
	require.NoError(t, err)
	require.NotEmpty(t, trace.Errors)

	final := trace.Final()
	assert.True(t, final.IsValid())
	want := dynamo.EnergyDrift(dp.Energy(x0), dp.Energy(final))
	if math.IsNaN(want) {
		assert.True(t, math.IsNaN(trace.EnergyDrift))
	} else {
		assert.Equal(t, want, trace.EnergyDrift)
	}
	assert.False(t, math.IsNaN(trace.Metrics["energy_drift"]))
}

func TestSimulatorEnergyDriftFromDefaultPendulum(t *testing.T) {
	dp := physics.NewDoublePendulum()
	s := New(dp, integrators.NewRK4())
	s.AddMetric(metrics.NewEnergyDrift(dp))

	trace, err := s.Run(context.Background(), dp.DefaultState(), Config{Dt: 0.01, Duration: 5})
	require.NoError(t, err)

	assert.Less(t, trace.EnergyDrift, 1e-3)
	assert.Less(t, trace.Metrics["energy_drift"], 1e-3)
}

func TestSimulatorLogisticWithMapStepper(t *testing.T) {
	m := &physics.LogisticMap{R: 3.2}
	s := New(m, integrators.NewMap())

	trace, err := s.Run(context.Background(), dynamo.State{0.3}, Config{Dt: 1, Duration: 5})
	require.NoError(t, err)

	orbit := m.Orbit(0.3, 5)
	assert.Equal(t, orbit, trace.Column(0)[1:])
}

func TestConfigSteps(t *testing.T) {
	assert.Equal(t, 3, Config{Dt: 0.1, Duration: 0.3}.Steps())
	assert.Equal(t, 1000, DefaultConfig().Steps())
	assert.Equal(t, 0, Config{}.Steps())
}

func TestSession(t *testing.T) {
	lz := physics.NewLorenz()
	session, err := NewSession(lz, integrators.NewRK4(), lz.DefaultState(), 0.01)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, session.Tick())
	}
	assert.Equal(t, 5, session.Steps())
	assert.InDelta(t, 0.05, session.Time(), 1e-15)

	other := physics.NewLorenz()
	other.Rho = 99
	require.NoError(t, session.Replace(other))
	assert.Same(t, other, session.System())

	assert.ErrorIs(t, session.Replace(physics.NewDoublePendulum()), dynamo.ErrDimensionMismatch)
}
