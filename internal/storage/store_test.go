package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
	"github.com/san-kum/chaoslab/internal/metrics"
	"github.com/san-kum/chaoslab/internal/physics"
	"github.com/san-kum/chaoslab/internal/sim"
)

func pendulumTrace() *sim.Trace {
	return &sim.Trace{
		Header: []string{"theta1", "theta2", "omega1", "omega2"},
		States: []dynamo.State{
			{1.0, 0.5, 0.0, 0.0},
			{0.9, 0.4, -0.1, 0.2},
		},
		Times:   []float64{0.0, 0.01},
		Steps:   1,
		Metrics: map[string]float64{"stability": 1},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	meta := RunMetadata{
		System:   "double_pendulum",
		Params:   map[string]float64{"m1": 1, "m2": 2},
		Stepper:  "rk4",
		Seed:     42,
		Dt:       0.01,
		Duration: 1.0,
	}
	trace := pendulumTrace()
	trace.Metrics["energy_drift"] = 2e-6
	trace.EnergyDrift = 1.5e-6

	runID, err := st.Save(meta, trace)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(runID, "double_pendulum_"))

	loaded, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "double_pendulum", loaded.System)
	assert.Equal(t, int64(42), loaded.Seed)
	assert.Equal(t, 2.0, loaded.Params["m2"])
	assert.Equal(t, 1, loaded.Steps)
	assert.Equal(t, trace.Header, loaded.Header)
	assert.Equal(t, 2e-6, loaded.Metrics["energy_drift"])
	assert.Equal(t, 1.5e-6, loaded.Metrics["energy_drift_final"])
	assert.Equal(t, 1.0, loaded.Metrics["stability"])

	states, times, err := st.LoadStates(runID)
	require.NoError(t, err)
	assert.Len(t, states, 2)
	assert.Equal(t, []float64{0, 0.01}, times)
	assert.Equal(t, dynamo.State{0.9, 0.4, -0.1, 0.2}, states[1])
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.Save(RunMetadata{System: "lorenz"}, pendulumTrace())
	require.NoError(t, err)
	second, err := st.Save(RunMetadata{System: "lorenz"}, pendulumTrace())
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "runs saved in the same second need distinct ids")

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, second, latest.ID)
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())

	_, err := st.Load("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.LoadTrace("nope")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = st.Latest()
	assert.ErrorIs(t, err, ErrRunNotFound)

	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save(RunMetadata{System: "double_pendulum"}, pendulumTrace())
	require.NoError(t, err)

	runDir := filepath.Join(tmpDir, runID)
	assert.FileExists(t, filepath.Join(runDir, "metadata.json"))

	data, err := os.ReadFile(filepath.Join(runDir, "states.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "time,theta1,theta2,omega1,omega2", lines[0])
	assert.Equal(t, "0.01,0.9,0.4,-0.1,0.2", lines[2])
}

func TestStoreKeepsFullPrecision(t *testing.T) {
	st := New(t.TempDir())
	trace := &sim.Trace{
		Header: []string{"x"},
		Times:  []float64{0, 1, 2},
		States: []dynamo.State{{0.3}, {0.7559999999999999}, {1.2345678901234567e-9}},
		Steps:  2,
	}

	runID, err := st.Save(RunMetadata{System: "logistic"}, trace)
	require.NoError(t, err)

	loaded, err := st.LoadTrace(runID)
	require.NoError(t, err)
	assert.Equal(t, trace.States, loaded.States)
	assert.Equal(t, trace.Times, loaded.Times)
}

func TestStoreSavesDivergedRun(t *testing.T) {
	dp := physics.NewDoublePendulum()
	s := sim.New(dp, integrators.NewEuler())
	s.AddMetric(metrics.NewEnergyDrift(dp))
	s.AddMetric(metrics.NewStability(1e3))

	trace, err := s.Run(context.Background(), dp.DefaultState(), sim.Config{Dt: 0.5, Duration: 100, ValidateState: true})
	require.NoError(t, err)
	require.NotEmpty(t, trace.Errors)

	dir := t.TempDir()
	st := New(dir)
	runID, err := st.Save(RunMetadata{System: "double_pendulum", Stepper: "euler", Dt: 0.5, Duration: 100}, trace)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, runID, "states.csv"))

	loaded, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, trace.Steps, loaded.Steps)
	for k, v := range loaded.Metrics {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), k)
	}

	states, times, err := st.LoadStates(runID)
	require.NoError(t, err)
	assert.Len(t, states, trace.Steps+1)
	assert.Equal(t, trace.Times, times)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStoreDropsNonFiniteMetrics(t *testing.T) {
	st := New(t.TempDir())
	trace := pendulumTrace()
	trace.Metrics["energy_drift"] = math.Inf(1)
	trace.Metrics["spread"] = math.NaN()
	trace.EnergyDrift = math.NaN()

	runID, err := st.Save(RunMetadata{System: "double_pendulum"}, trace)
	require.NoError(t, err)

	loaded, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"stability": 1}, loaded.Metrics)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, &RunMetadata{Metrics: map[string]float64{"x": math.NaN()}}, trace))
}

func TestWriteCSVFallbackHeader(t *testing.T) {
	var buf bytes.Buffer
	trace := &sim.Trace{States: []dynamo.State{{1, 2}}, Times: []float64{0}}
	require.NoError(t, WriteCSV(&buf, trace))
	assert.True(t, strings.HasPrefix(buf.String(), "time,x0,x1\n"))
}

func TestReadCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, pendulumTrace()))

	trace, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"theta1", "theta2", "omega1", "omega2"}, trace.Header)
	assert.Equal(t, 1, trace.Steps)
	assert.Equal(t, []float64{1.0, 0.9}, trace.Column(0))
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := &RunMetadata{System: "lorenz", Stepper: "rk4", Dt: 0.01, Duration: 0.01}
	require.NoError(t, ExportJSON(&buf, meta, pendulumTrace()))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "lorenz", data.System)
	assert.Equal(t, 1, data.Steps)
	assert.Len(t, data.States, 2)
	assert.Equal(t, []float64{0.9, 0.4, -0.1, 0.2}, data.States[1])
}

func TestWriteBifurcationCSV(t *testing.T) {
	var buf bytes.Buffer
	points := []analysis.BifurcationPoint{
		{R: 3.2, Values: []float64{0.5130449, 0.7994551}},
		{R: 3.3, Values: []float64{0.8236}},
	}
	require.NoError(t, WriteBifurcationCSV(&buf, points))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, []string{
		"r,x",
		"3.200000,0.513045",
		"3.200000,0.799455",
		"3.300000,0.823600",
	}, lines)
}
