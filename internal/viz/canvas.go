package viz

import (
	"strings"

	"github.com/san-kum/chaoslab/internal/analysis"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a character grid addressed in sub-pixels: Width*2 by Height*4.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the sub-pixel (x, y) with y growing downwards. Out-of-range
// pixels are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Lit counts the sub-pixels that are set.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - blank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Scatter draws the portrait scaled to fill a w x h character canvas, with
// consecutive points joined when connect is set.
func Scatter(p *analysis.PhasePortrait2D, w, h int, connect bool) *Canvas {
	c := NewCanvas(w, h)
	if len(p.Points) == 0 {
		return c
	}

	minX, maxX, minY, maxY := p.Bounds()
	spanX, spanY := maxX-minX, maxY-minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}
	pw, ph := float64(w*2-1), float64(h*4-1)

	project := func(pt analysis.Point) (int, int) {
		px := int((pt.X - minX) / spanX * pw)
		py := int((maxY - pt.Y) / spanY * ph)
		return px, py
	}

	lastX, lastY := project(p.Points[0])
	c.Set(lastX, lastY)
	for _, pt := range p.Points[1:] {
		x, y := project(pt)
		if connect {
			c.DrawLine(lastX, lastY, x, y)
		} else {
			c.Set(x, y)
		}
		lastX, lastY = x, y
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
