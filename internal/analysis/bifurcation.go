package analysis

import (
	"math"
	"sort"

	"github.com/san-kum/chaoslab/internal/physics"
)

// BifurcationPoint holds the attractor values recorded for one r.
type BifurcationPoint struct {
	R      float64
	Values []float64
}

// SweepPoint is a Lyapunov exponent measured at one r.
type SweepPoint struct {
	R        float64
	Exponent float64
}

// BifurcationConfig controls a logistic-map parameter sweep.
type BifurcationConfig struct {
	RMin      float64 // first r
	RMax      float64 // last r (inclusive)
	RStep     float64
	X0        float64
	Transient int // iterations discarded before recording
	Keep      int // iterations recorded per r
}

func DefaultBifurcationConfig() BifurcationConfig {
	return BifurcationConfig{
		RMin:      2.5,
		RMax:      4.0,
		RStep:     0.005,
		X0:        0.3,
		Transient: 500,
		Keep:      100,
	}
}

// Rs returns the sweep values. r is computed from the index so rounding does
// not accumulate.
func (c BifurcationConfig) Rs() []float64 {
	if c.RStep <= 0 || c.RMax < c.RMin {
		return []float64{c.RMin}
	}
	n := int(math.Floor((c.RMax-c.RMin)/c.RStep+1e-9)) + 1
	rs := make([]float64, n)
	for i := range rs {
		rs[i] = c.RMin + float64(i)*c.RStep
	}
	return rs
}

// LogisticBifurcation iterates the logistic map for each r in the sweep and
// keeps the last cfg.Keep values after the transient.
func LogisticBifurcation(cfg BifurcationConfig) []BifurcationPoint {
	rs := cfg.Rs()
	results := make([]BifurcationPoint, 0, len(rs))

	for _, r := range rs {
		m := &physics.LogisticMap{R: r}
		x := cfg.X0
		for i := 0; i < cfg.Transient; i++ {
			x = m.Map(x)
		}
		results = append(results, BifurcationPoint{R: r, Values: m.Orbit(x, cfg.Keep)})
	}

	return results
}

// LyapunovSweep measures the trajectory exponent of the logistic map at each r.
func LyapunovSweep(cfg BifurcationConfig, n int) []SweepPoint {
	rs := cfg.Rs()
	out := make([]SweepPoint, len(rs))
	for i, r := range rs {
		m := &physics.LogisticMap{R: r}
		out[i] = SweepPoint{R: r, Exponent: LyapunovByTrajectory(cfg.X0, n, m.Map)}
	}
	return out
}

// Period counts the distinct values in an attractor sample, treating values
// closer than tol as equal. Chaotic bands report len(values).
func Period(values []float64, tol float64) int {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	count := 1
	last := sorted[0]
	for _, v := range sorted[1:] {
		if v-last > tol {
			count++
			last = v
		}
	}
	return count
}
