package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/sim"
)

const (
	DefaultWidth  = 80
	DefaultHeight = 10
)

// SeriesPlot renders one series as an asciigraph line chart.
func SeriesPlot(data []float64, caption string, width, height int) string {
	if len(data) == 0 {
		return Subtle.Render("(no data)")
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
	)
}

// TracePlot charts one state component of a trace against tick index.
func TracePlot(trace *sim.Trace, column, width, height int) (string, error) {
	if len(trace.States) == 0 {
		return "", fmt.Errorf("trace is empty")
	}
	if column < 0 || column >= len(trace.States[0]) {
		return "", fmt.Errorf("column %d out of range for dimension %d", column, len(trace.States[0]))
	}

	name := fmt.Sprintf("x%d", column)
	if column < len(trace.Header) {
		name = trace.Header[column]
	}
	caption := fmt.Sprintf("%s over t in [%.2f, %.2f]", name, trace.Times[0], trace.Times[len(trace.Times)-1])
	return SeriesPlot(trace.Column(column), caption, width, height), nil
}

// SweepPlot charts Lyapunov exponent against r.
func SweepPlot(points []analysis.SweepPoint, width, height int) string {
	data := make([]float64, len(points))
	for i, p := range points {
		data[i] = p.Exponent
	}
	caption := "lyapunov exponent vs r"
	if len(points) > 0 {
		caption = fmt.Sprintf("lyapunov exponent, r in [%.3f, %.3f]", points[0].R, points[len(points)-1].R)
	}
	return SeriesPlot(data, caption, width, height)
}

// BifurcationScatter draws every (r, x) attractor sample on a Braille canvas.
func BifurcationScatter(points []analysis.BifurcationPoint, w, h int) *Canvas {
	portrait := &analysis.PhasePortrait2D{}
	for _, p := range points {
		for _, v := range p.Values {
			portrait.Points = append(portrait.Points, analysis.Point{X: p.R, Y: v})
		}
	}
	return Scatter(portrait, w, h, false)
}
