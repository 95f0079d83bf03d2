package dynamo

import (
	"math"
	"math/rand"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Norm(s, 2)
}

// Distance is the Euclidean distance between two states of equal length.
func (s State) Distance(other State) float64 {
	if len(s) == 0 {
		return 0
	}
	return floats.Distance(s, other, 2)
}

// System is a dynamical system: either a continuous ODE whose RHS is the time
// derivative, or a discrete map whose RHS is the next-state image.
//
// RHS must not mutate x and must return a fresh vector of length Dimension().
// Callers are expected to pass len(x) == Dimension(); steppers enforce it with
// CheckDimension before touching the state.
type System interface {
	Dimension() int
	RHS(t float64, x State) State
}

// Noisy systems can produce a sibling whose real parameters are each shifted
// by an independent draw from [0, level).
type Noisy interface {
	WithNoise(level float64, rng *rand.Rand) System
}

type Configurable interface {
	Params() map[string]float64
	SetParam(name string, value float64) error
}

type Hamiltonian interface {
	Energy(x State) float64
}

// NearZeroEnergy is the reference magnitude below which EnergyDrift falls
// back to the absolute change.
const NearZeroEnergy = 1e-9

// EnergyDrift is |e-e0| relative to |e0|, or absolute when e0 is near zero.
func EnergyDrift(e0, e float64) float64 {
	d := math.Abs(e - e0)
	if math.Abs(e0) >= NearZeroEnergy {
		d /= math.Abs(e0)
	}
	return d
}

// Discrete marks systems whose RHS is a map application rather than a rate.
type Discrete interface {
	IsMap() bool
}

// Labeled systems name their state components, e.g. for CSV headers.
type Labeled interface {
	Header() []string
}

// Header returns the column names of sys, falling back to x0, x1, ...
func Header(sys System) []string {
	if l, ok := sys.(Labeled); ok {
		return l.Header()
	}
	h := make([]string, sys.Dimension())
	for i := range h {
		h[i] = "x" + strconv.Itoa(i)
	}
	return h
}

// IsMap reports whether sys declares itself a discrete map.
func IsMap(sys System) bool {
	d, ok := sys.(Discrete)
	return ok && d.IsMap()
}

// Perturb returns v shifted by a uniform draw from [0, level).
func Perturb(v, level float64, rng *rand.Rand) float64 {
	if level <= 0 {
		return v
	}
	return v + rng.Float64()*level
}

