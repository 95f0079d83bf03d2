package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

// LogisticMap is the discrete map x -> r*x*(1-x). Its state is a single value,
// conventionally in [0, 1]; r is meaningfully explored over [0, 4].
//
// RHS returns the next-state image, so driving it with a continuous stepper
// treats the map as a rate. Use integrators.MapStep to iterate it.
type LogisticMap struct{ R float64 }

func NewLogisticMap() *LogisticMap                { return &LogisticMap{R: 3.6} }
func (l *LogisticMap) Dimension() int             { return 1 }
func (l *LogisticMap) IsMap() bool                { return true }
func (l *LogisticMap) Header() []string           { return []string{"x"} }
func (l *LogisticMap) DefaultState() dynamo.State { return dynamo.State{0.3} }

func (l *LogisticMap) RHS(_ float64, x dynamo.State) dynamo.State {
	return dynamo.State{l.Map(x[0])}
}

// Map applies one iteration to a bare scalar.
func (l *LogisticMap) Map(x float64) float64 {
	return l.R * x * (1 - x)
}

// Slope is the derivative of Map at x.
func (l *LogisticMap) Slope(x float64) float64 {
	return l.R * (1 - 2*x)
}

// Orbit iterates the map n times from x0 and returns the visited values,
// excluding x0.
func (l *LogisticMap) Orbit(x0 float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	x := x0
	for i := range out {
		x = l.Map(x)
		out[i] = x
	}
	return out
}

func (l *LogisticMap) WithNoise(level float64, rng *rand.Rand) dynamo.System {
	return &LogisticMap{R: dynamo.Perturb(l.R, level, rng)}
}

func (l *LogisticMap) Params() map[string]float64 {
	return map[string]float64{"r": l.R}
}

func (l *LogisticMap) SetParam(n string, v float64) error {
	if n != "r" {
		return fmt.Errorf("logistic %q: %w", n, dynamo.ErrUnknownParam)
	}
	l.R = v
	return nil
}
