package physics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/chaoslab/internal/dynamo"
)

var ErrUnknownSystem = errors.New("physics: unknown system")

// Defaulted systems know a sensible starting state.
type Defaulted interface {
	DefaultState() dynamo.State
}

var registry = map[string]func() dynamo.System{
	"lorenz":          func() dynamo.System { return NewLorenz() },
	"double_pendulum": func() dynamo.System { return NewDoublePendulum() },
	"logistic":        func() dynamo.System { return NewLogisticMap() },
}

// New builds a fresh system with default parameters.
func New(name string) (dynamo.System, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownSystem, name, Names())
	}
	return fn(), nil
}

// Names lists registered systems in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultState returns the system's preferred initial state, or zeros.
func DefaultState(sys dynamo.System) dynamo.State {
	if d, ok := sys.(Defaulted); ok {
		return d.DefaultState()
	}
	return make(dynamo.State, sys.Dimension())
}

// Apply sets every entry of params on sys. Systems without tunable
// parameters reject any non-empty map.
func Apply(sys dynamo.System, params map[string]float64) error {
	if len(params) == 0 {
		return nil
	}
	c, ok := sys.(dynamo.Configurable)
	if !ok {
		return fmt.Errorf("system has no parameters: %w", dynamo.ErrUnknownParam)
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.SetParam(k, params[k]); err != nil {
			return err
		}
	}
	return nil
}
