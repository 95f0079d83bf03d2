package analysis

import (
	"math"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
)

// PerturbationSize is the separation the perturbed trajectory is held at.
const PerturbationSize = 1e-8

// DegenerateState is the fixed input handed to rate functions by
// LyapunovByDerivative.
var DegenerateState = dynamo.State{0}

// LyapunovByTrajectory estimates the largest Lyapunov exponent of the scalar
// map f by following a primary and a perturbed orbit.
//
// Algorithm:
// 1. Start x0 and x0 + eps
// 2. Advance both, accumulate ln(|δ|/eps)
// 3. Pull the perturbed orbit back to distance eps along δ
//
// Iterations where the orbits coincide contribute nothing. Convergence is
// slow; expect to need 1e4..1e5 iterations.
func LyapunovByTrajectory(x0 float64, n int, f func(float64) float64) float64 {
	if n <= 0 {
		return 0
	}

	eps := PerturbationSize
	x := x0
	xp := x0 + eps
	sum := 0.0

	for i := 0; i < n; i++ {
		x = f(x)
		xp = f(xp)

		delta := math.Abs(xp - x)
		if delta == 0 {
			continue
		}
		sum += math.Log(delta / eps)

		// Renormalize to prevent overflow/underflow of the separation
		xp = x + eps*(xp-x)/delta
	}

	return sum / float64(n)
}

// LyapunovByDerivative averages ln|f(i, DegenerateState)[0]| for i in [0, n).
// f is expected to return a local expansion rate indexed by step rather than
// a next state, so no trajectories are compared. Zero rates are skipped.
func LyapunovByDerivative(n int, f func(t float64, x dynamo.State) dynamo.State) float64 {
	if n <= 0 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		out := f(float64(i), DegenerateState)
		if len(out) == 0 || out[0] == 0 {
			continue
		}
		sum += math.Log(math.Abs(out[0]))
	}

	return sum / float64(n)
}

// LyapunovAlongOrbit averages ln|slope(x_k)| along the orbit of f started at
// x0. For a smooth map this converges to the same value as
// LyapunovByTrajectory.
func LyapunovAlongOrbit(x0 float64, n int, f, slope func(float64) float64) float64 {
	if n <= 0 {
		return 0
	}

	sum := 0.0
	x := x0
	for i := 0; i < n; i++ {
		x = f(x)
		d := math.Abs(slope(x))
		if d == 0 {
			continue
		}
		sum += math.Log(d)
	}

	return sum / float64(n)
}

// LyapunovOfSystem estimates the largest exponent of an N-dimensional system
// with two trajectories advanced by stepper and renormalized to
// PerturbationSize after every step. Continuous systems report the exponent
// per unit time; discrete maps report it per iteration.
func LyapunovOfSystem(
	dyn dynamo.System,
	stepper integrators.Stepper,
	x0 dynamo.State,
	dt float64,
	steps int,
) (float64, error) {
	if err := dynamo.CheckDimension(dyn, x0); err != nil {
		return 0, err
	}
	if steps <= 0 || len(x0) == 0 {
		return 0, nil
	}

	d0 := PerturbationSize
	x := x0.Clone()
	xp := x0.Clone()
	xp[0] += d0

	sumLog := 0.0
	t := 0.0

	for i := 0; i < steps; i++ {
		if err := stepper.Step(dyn, x, t, dt); err != nil {
			return 0, err
		}
		if err := stepper.Step(dyn, xp, t, dt); err != nil {
			return 0, err
		}
		t += dt

		sep := x.Distance(xp)
		if sep == 0 || math.IsNaN(sep) || math.IsInf(sep, 0) {
			continue
		}
		sumLog += math.Log(sep / d0)

		scale := d0 / sep
		for j := range xp {
			xp[j] = x[j] + (xp[j]-x[j])*scale
		}
	}

	if dynamo.IsMap(dyn) || dt == 0 {
		return sumLog / float64(steps), nil
	}
	return sumLog / (float64(steps) * dt), nil
}
