package integrators

import "github.com/san-kum/chaoslab/internal/dynamo"

// EulerStep advances x in place by one explicit Euler step:
// x[i] += dt * rhs(t, x)[i]. First order; kept as the baseline to compare
// RK4 against.
func EulerStep[S dynamo.System](sys S, x dynamo.State, t, dt float64) error {
	if err := dynamo.CheckDimension(sys, x); err != nil {
		return err
	}
	dx := sys.RHS(t, x)
	for i := range x {
		x[i] += float64(dt * dx[i])
	}
	return nil
}

type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) error {
	return EulerStep(dyn, x, t, dt)
}
