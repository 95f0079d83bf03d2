package physics

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

type Lorenz struct{ Sigma, Rho, Beta float64 }

func NewLorenz() *Lorenz                     { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }
func (l *Lorenz) Dimension() int             { return 3 }
func (l *Lorenz) Header() []string           { return []string{"x", "y", "z"} }
func (l *Lorenz) DefaultState() dynamo.State { return dynamo.State{1.0, 1.0, 1.0} }

// RHS calculates the Lorenz attractor derivatives.
func (l *Lorenz) RHS(_ float64, s dynamo.State) dynamo.State {
	return dynamo.State{l.Sigma * (s[1] - s[0]), s[0]*(l.Rho-s[2]) - s[1], s[0]*s[1] - l.Beta*s[2]}
}

func (l *Lorenz) WithNoise(level float64, rng *rand.Rand) dynamo.System {
	return &Lorenz{
		Sigma: dynamo.Perturb(l.Sigma, level, rng),
		Rho:   dynamo.Perturb(l.Rho, level, rng),
		Beta:  dynamo.Perturb(l.Beta, level, rng),
	}
}

func (l *Lorenz) Params() map[string]float64 {
	return map[string]float64{"sigma": l.Sigma, "rho": l.Rho, "beta": l.Beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.Sigma = v
	case "rho":
		l.Rho = v
	case "beta":
		l.Beta = v
	default:
		return fmt.Errorf("lorenz %q: %w", n, dynamo.ErrUnknownParam)
	}
	return nil
}
