package viz

import (
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

const blankCell = '\u2800'

// dotBits maps a dot's (row, column) inside a braille cell to its bit.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Dot is a position on the canvas in dot coordinates, y growing downwards.
type Dot struct{ X, Y int }

// Canvas is a braille dot matrix over a square window of the x/y plane,
// centred on the origin. Each cell holds 2x4 dots.
type Canvas struct {
	cols, rows int
	radius     float64
	cells      []rune
}

// NewCanvas creates a cols x rows cell canvas showing radius AU around the
// origin along its shorter side.
func NewCanvas(cols, rows int, radius float64) *Canvas {
	c := &Canvas{cols: cols, rows: rows, radius: radius, cells: make([]rune, cols*rows)}
	c.Reset()
	return c
}

func (c *Canvas) dotsWide() int { return c.cols * 2 }
func (c *Canvas) dotsHigh() int { return c.rows * 4 }

// Project maps p's x/y components onto the canvas. ok is false when p is
// not finite or falls outside the window.
func (c *Canvas) Project(p r3.Vec) (d Dot, ok bool) {
	w, h := c.dotsWide(), c.dotsHigh()
	scale := float64(min(w, h)) / (2 * c.radius)

	fx := float64(w)/2 + p.X*scale
	fy := float64(h)/2 - p.Y*scale
	if math.IsNaN(fx) || math.IsNaN(fy) || fx < 0 || fy < 0 || fx >= float64(w) || fy >= float64(h) {
		return Dot{}, false
	}
	return Dot{int(fx), int(fy)}, true
}

// Plot lights one dot. Dots outside the canvas are ignored.
func (c *Canvas) Plot(d Dot) {
	if d.X < 0 || d.Y < 0 || d.X >= c.dotsWide() || d.Y >= c.dotsHigh() {
		return
	}
	c.cells[(d.Y/4)*c.cols+d.X/2] |= dotBits[d.Y%4][d.X%2]
}

// Segment lights the dots between a and b, inclusive.
func (c *Canvas) Segment(a, b Dot) {
	n := max(abs(b.X-a.X), abs(b.Y-a.Y))
	if n == 0 {
		c.Plot(a)
		return
	}
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		c.Plot(Dot{
			X: a.X + int(math.Round(t*float64(b.X-a.X))),
			Y: a.Y + int(math.Round(t*float64(b.Y-a.Y))),
		})
	}
}

// Disc lights every dot within r of centre.
func (c *Canvas) Disc(centre Dot, r int) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy <= r*r {
				c.Plot(Dot{centre.X + dx, centre.Y + dy})
			}
		}
	}
}

func (c *Canvas) Reset() {
	for i := range c.cells {
		c.cells[i] = blankCell
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(len(c.cells)*3 + c.rows)
	for r := 0; r < c.rows; r++ {
		b.WriteString(string(c.cells[r*c.cols : (r+1)*c.cols]))
		b.WriteByte('\n')
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
