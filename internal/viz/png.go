package viz

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/chaoslab/internal/analysis"
	"github.com/san-kum/chaoslab/internal/sim"
)

const (
	pngWidthIn  = 8.0
	pngHeightIn = 6.0
	pngDPI      = 150
)

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(13)
	p.Y.Label.TextStyle.Font.Size = vg.Points(13)
	p.X.Padding = vg.Points(10)
	p.Y.Padding = vg.Points(10)
	p.Add(plotter.NewGrid())
}

// WritePNG renders p at the given size in inches.
func WritePNG(w io.Writer, p *plot.Plot, widthIn, heightIn float64) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(pngDPI),
	)
	p.Draw(draw.New(c))

	bw := bufio.NewWriter(w)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}

func savePlotPNG(p *plot.Plot, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	return WritePNG(f, p, pngWidthIn, pngHeightIn)
}

// TraceLines plots the selected components of a trace against time. An
// empty column list plots every component.
func TraceLines(trace *sim.Trace, title string, columns []int) (*plot.Plot, error) {
	if len(trace.States) == 0 {
		return nil, fmt.Errorf("trace is empty")
	}
	dim := len(trace.States[0])
	if len(columns) == 0 {
		for i := 0; i < dim; i++ {
			columns = append(columns, i)
		}
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "state"
	stylePlot(p)

	for n, col := range columns {
		if col < 0 || col >= dim {
			return nil, fmt.Errorf("column %d out of range for dimension %d", col, dim)
		}
		pts := make(plotter.XYs, len(trace.States))
		for i, s := range trace.States {
			pts[i].X = trace.Times[i]
			pts[i].Y = s[col]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(n)
		p.Add(line)

		name := fmt.Sprintf("x%d", col)
		if col < len(trace.Header) {
			name = trace.Header[col]
		}
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	return p, nil
}

func SaveTracePNG(filename string, trace *sim.Trace, title string, columns []int) error {
	p, err := TraceLines(trace, title, columns)
	if err != nil {
		return err
	}
	return savePlotPNG(p, filename)
}

// PhaseLine plots a phase portrait as a connected curve.
func PhaseLine(portrait *analysis.PhasePortrait2D, title, xLabel, yLabel string) (*plot.Plot, error) {
	if len(portrait.Points) == 0 {
		return nil, fmt.Errorf("phase portrait is empty")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	stylePlot(p)

	pts := make(plotter.XYs, len(portrait.Points))
	for i, pt := range portrait.Points {
		pts[i].X, pts[i].Y = pt.X, pt.Y
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(0.8)
	line.LineStyle.Color = plotutil.Color(0)
	p.Add(line)
	return p, nil
}

func SavePhasePNG(filename string, portrait *analysis.PhasePortrait2D, title, xLabel, yLabel string) error {
	p, err := PhaseLine(portrait, title, xLabel, yLabel)
	if err != nil {
		return err
	}
	return savePlotPNG(p, filename)
}

// BifurcationDiagram scatters every recorded attractor value against r.
func BifurcationDiagram(points []analysis.BifurcationPoint) (*plot.Plot, error) {
	var pts plotter.XYs
	for _, bp := range points {
		for _, v := range bp.Values {
			pts = append(pts, plotter.XY{X: bp.R, Y: v})
		}
	}
	if len(pts) == 0 {
		return nil, fmt.Errorf("bifurcation sweep is empty")
	}

	p := plot.New()
	p.Title.Text = "logistic map bifurcation"
	p.X.Label.Text = "r"
	p.Y.Label.Text = "x"
	stylePlot(p)

	s, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	s.GlyphStyle.Radius = vg.Points(0.4)
	s.GlyphStyle.Shape = draw.CircleGlyph{}
	s.GlyphStyle.Color = color.Black
	p.Add(s)
	return p, nil
}

func SaveBifurcationPNG(filename string, points []analysis.BifurcationPoint) error {
	p, err := BifurcationDiagram(points)
	if err != nil {
		return err
	}
	return savePlotPNG(p, filename)
}
