package analysis

import (
	"fmt"

	"github.com/san-kum/chaoslab/internal/dynamo"
	"github.com/san-kum/chaoslab/internal/integrators"
)

// Point is one sample of a 2D projection.
type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []Point
}

// Project builds a phase portrait from recorded states.
func Project(states []dynamo.State, xIdx, yIdx int) (*PhasePortrait2D, error) {
	portrait := &PhasePortrait2D{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, 0, len(states))}
	for i, s := range states {
		if xIdx < 0 || yIdx < 0 || xIdx >= len(s) || yIdx >= len(s) {
			return nil, fmt.Errorf("row %d has %d components, axes %d/%d out of range", i, len(s), xIdx, yIdx)
		}
		portrait.Points = append(portrait.Points, Point{X: s[xIdx], Y: s[yIdx]})
	}
	return portrait, nil
}

// GeneratePhasePortrait runs a simulation and records phase space trajectory
func GeneratePhasePortrait(
	dyn dynamo.System,
	stepper integrators.Stepper,
	x0 dynamo.State,
	xIdx, yIdx int,
	dt float64,
	steps int,
) (*PhasePortrait2D, error) {
	if err := dynamo.CheckDimension(dyn, x0); err != nil {
		return nil, err
	}
	if xIdx < 0 || yIdx < 0 || xIdx >= len(x0) || yIdx >= len(x0) {
		return nil, fmt.Errorf("axes %d/%d out of range for dimension %d", xIdx, yIdx, len(x0))
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]Point, 0, steps),
	}

	x := x0.Clone()
	t := 0.0
	for i := 0; i < steps; i++ {
		if err := stepper.Step(dyn, x, t, dt); err != nil {
			return nil, err
		}
		t += dt
		portrait.Points = append(portrait.Points, Point{X: x[xIdx], Y: x[yIdx]})
	}

	return portrait, nil
}

// Bounds returns the extent of the portrait.
func (p *PhasePortrait2D) Bounds() (minX, maxX, minY, maxY float64) {
	if len(p.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, maxX = p.Points[0].X, p.Points[0].X
	minY, maxY = p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX = min(minX, pt.X)
		maxX = max(maxX, pt.X)
		minY = min(minY, pt.Y)
		maxY = max(maxY, pt.Y)
	}
	return
}
