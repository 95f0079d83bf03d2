package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for system and stepping operations.
var (
	// ErrDimensionMismatch indicates a state whose length disagrees with the system dimension.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidState indicates a state vector holding NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnknownParam indicates a parameter name the system does not expose.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")
)

// DimensionError reports the expected and actual state length.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", ErrDimensionMismatch, e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error {
	return ErrDimensionMismatch
}

// CheckDimension returns a *DimensionError when len(x) != sys.Dimension().
func CheckDimension(sys System, x State) error {
	if n := sys.Dimension(); len(x) != n {
		return &DimensionError{Want: n, Got: len(x)}
	}
	return nil
}

// SimError marks the tick at which a simulation left the valid state space.
type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
