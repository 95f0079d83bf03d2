package sim

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

// Ensemble repeats a run with noisy siblings of the base system. Runs are
// executed one after another; run i draws its noise from seedStart+i.
type Ensemble struct {
	base      *Simulator
	numRuns   int
	seedStart int64
	noise     float64
}

func NewEnsemble(s *Simulator, numRuns int, seedStart int64, noise float64) *Ensemble {
	return &Ensemble{base: s, numRuns: numRuns, seedStart: seedStart, noise: noise}
}

func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, cfg Config) ([]*Trace, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}

	results := make([]*Trace, 0, e.numRuns)
	for i := 0; i < e.numRuns; i++ {
		rng := rand.New(rand.NewSource(e.seedStart + int64(i)))

		dyn := e.base.dyn
		if n, ok := dyn.(dynamo.Noisy); ok && e.noise > 0 {
			dyn = n.WithNoise(e.noise, rng)
		}

		cfgCopy := cfg
		cfgCopy.Seed = e.seedStart + int64(i)

		member := New(dyn, e.base.stepper)
		member.log = e.base.log.WithField("member", i)
		for _, m := range e.base.metrics {
			member.AddMetric(m)
		}

		trace, err := member.Run(ctx, x0, cfgCopy)
		if err != nil {
			return results, fmt.Errorf("ensemble member %d: %w", i, err)
		}
		results = append(results, trace)
	}

	return results, nil
}

// Spread summarizes the final states of an ensemble per component.
type Spread struct {
	Mean   []float64
	StdDev []float64
}

func FinalSpread(traces []*Trace) Spread {
	if len(traces) == 0 || len(traces[0].Final()) == 0 {
		return Spread{}
	}
	dim := len(traces[0].Final())
	spread := Spread{Mean: make([]float64, dim), StdDev: make([]float64, dim)}

	col := make([]float64, 0, len(traces))
	for j := 0; j < dim; j++ {
		col = col[:0]
		for _, tr := range traces {
			if f := tr.Final(); j < len(f) {
				col = append(col, f[j])
			}
		}
		if len(col) == 1 {
			spread.Mean[j] = col[0]
			continue
		}
		spread.Mean[j], spread.StdDev[j] = stat.MeanStdDev(col, nil)
	}
	return spread
}
