package integrators

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

var ErrUnknownStepper = errors.New("integrators: unknown stepper")

// Stepper advances a state in place by one tick. A failed step leaves x
// untouched.
type Stepper interface {
	Name() string
	Step(dyn dynamo.System, x dynamo.State, t, dt float64) error
}

// MapStep replaces x with one application of the system's map, x = rhs(t, x).
// dt is ignored.
func MapStep[S dynamo.System](sys S, x dynamo.State, t, _ float64) error {
	if err := dynamo.CheckDimension(sys, x); err != nil {
		return err
	}
	copy(x, sys.RHS(t, x))
	return nil
}

type Map struct{}

func NewMap() *Map {
	return &Map{}
}

func (m *Map) Name() string { return "map" }

func (m *Map) Step(dyn dynamo.System, x dynamo.State, t, dt float64) error {
	return MapStep(dyn, x, t, dt)
}

var steppers = map[string]func() Stepper{
	"euler": func() Stepper { return NewEuler() },
	"rk4":   func() Stepper { return NewRK4() },
	"map":   func() Stepper { return NewMap() },
}

// New returns a fresh stepper by name.
func New(name string) (Stepper, error) {
	fn, ok := steppers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownStepper, name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(steppers))
	for name := range steppers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForSystem picks the map stepper for discrete systems and fallback otherwise.
func ForSystem(sys dynamo.System, fallback string) (Stepper, error) {
	if dynamo.IsMap(sys) {
		return NewMap(), nil
	}
	return New(fallback)
}
