package optim

import (
	"context"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/chaoslab/internal/experiment"
)

// Objective scores one configured experiment.
type Objective func(ctx context.Context, exp *experiment.Experiment) (float64, error)

// LyapunovObjective scores an experiment by its largest Lyapunov exponent.
func LyapunovObjective(_ context.Context, exp *experiment.Experiment) (float64, error) {
	return exp.Lyapunov()
}

// MetricObjective runs the experiment and reads the named trace metric.
func MetricObjective(name string) Objective {
	return func(ctx context.Context, exp *experiment.Experiment) (float64, error) {
		trace, err := exp.Run(ctx)
		if err != nil {
			return 0, err
		}
		v, ok := trace.Metrics[name]
		if !ok {
			return 0, fmt.Errorf("metric %q not recorded", name)
		}
		return v, nil
	}
}

// Sample is one grid point and its score.
type Sample struct {
	Params map[string]float64
	Value  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameter names for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search scores every grid point in row-major order and returns the best
// sample with all samples. NaN scores never win.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(params map[string]float64) (*experiment.Experiment, error),
	objective Objective,
	maximize bool,
) (Sample, []Sample, error) {
	best := Sample{Value: math.Inf(1)}
	if maximize {
		best.Value = math.Inf(-1)
	}
	samples := make([]Sample, 0, g.Size())

	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		exp, err := build(params)
		if err != nil {
			return err
		}
		val, err := objective(ctx, exp)
		if err != nil {
			return fmt.Errorf("%v: %w", params, err)
		}

		s := Sample{Params: maps.Clone(params), Value: val}
		samples = append(samples, s)
		if better(val, best.Value, maximize) || best.Params == nil && !math.IsNaN(val) {
			best = s
		}
		return nil
	})

	return best, samples, err
}

func better(v, than float64, maximize bool) bool {
	if maximize {
		return v > than
	}
	return v < than
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	visit func(map[string]float64) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		if err := g.searchRecursive(ctx, depth+1, current, visit); err != nil {
			return err
		}
	}
	delete(current, paramName)
	return nil
}

// ParseRange reads name=min:max:count into evenly spaced values, both ends
// included. A bare name=value yields a single point.
func ParseRange(s string) (string, []float64, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid range %q, want name=min:max:count", s)
	}
	parts := strings.Split(bounds, ":")
	if len(parts) == 1 {
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid range %q: %w", s, err)
		}
		return name, []float64{v}, nil
	}
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid range %q, want name=min:max:count", s)
	}

	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid range %q: %w", s, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid count in range %q", s)
	}
	if n == 1 {
		return name, []float64{lo}, nil
	}
	return name, floats.Span(make([]float64, n), lo, hi), nil
}
