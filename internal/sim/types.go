package sim

import (
	"github.com/san-kum/chaoslab/internal/dynamo"
)

// Metric accumulates a scalar over the states visited by a run.
type Metric interface {
	Name() string
	Observe(x dynamo.State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, t float64, x dynamo.State)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(step int, t float64, x dynamo.State)

func (f ObserverFunc) OnStep(step int, t float64, x dynamo.State) { f(step, t, x) }

type Config struct {
	Dt            float64
	Duration      float64
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Seed:          42,
		ValidateState: true,
	}
}

// Steps is the number of ticks a run of cfg performs.
func (c Config) Steps() int {
	if c.Dt <= 0 || c.Duration <= 0 {
		return 0
	}
	return int(c.Duration/c.Dt + 1e-9)
}

// Trace is the recorded output of one run: one row per tick, including t=0.
type Trace struct {
	Times       []float64
	States      []dynamo.State
	Header      []string
	Steps       int
	Errors      []error
	Metrics     map[string]float64
	EnergyDrift float64 // last recorded state against the first
}

func (tr *Trace) Final() dynamo.State {
	if len(tr.States) == 0 {
		return nil
	}
	return tr.States[len(tr.States)-1]
}

// Column returns component i of every recorded state.
func (tr *Trace) Column(i int) []float64 {
	col := make([]float64, 0, len(tr.States))
	for _, s := range tr.States {
		if i < len(s) {
			col = append(col, s[i])
		}
	}
	return col
}
