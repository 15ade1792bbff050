package viz

import (
	"strings"
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

// Canvas is a Braille pixel canvas. Character cells pack 2x4 dots, so the
// drawable area is (Width*2) x (Height*4) sub-pixels.
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
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800 // Empty braille char
		}
	}
	return c
}

// Set lights the sub-pixel at (x, y).
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

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world coordinates onto canvas sub-pixels. World y grows
// upward, canvas y grows downward.
type Viewport struct {
	canvas                 *Canvas
	xMin, xMax, yMin, yMax float64
}

func NewViewport(c *Canvas, xMin, xMax, yMin, yMax float64) *Viewport {
	return &Viewport{canvas: c, xMin: xMin, xMax: xMax, yMin: yMin, yMax: yMax}
}

func (v *Viewport) toPixel(x, y float64) (int, int) {
	pw := float64(v.canvas.Width*2 - 1)
	ph := float64(v.canvas.Height*4 - 1)
	px := int((x - v.xMin) / (v.xMax - v.xMin) * pw)
	py := int((v.yMax - y) / (v.yMax - v.yMin) * ph)
	return px, py
}

// DrawCurve connects consecutive world points.
func (v *Viewport) DrawCurve(xs, ys []float64) {
	for i := 1; i < len(xs); i++ {
		x0, y0 := v.toPixel(xs[i-1], ys[i-1])
		x1, y1 := v.toPixel(xs[i], ys[i])
		v.canvas.DrawLine(x0, y0, x1, y1)
	}
}

// Mark lights a single world point.
func (v *Viewport) Mark(x, y float64) {
	px, py := v.toPixel(x, y)
	v.canvas.Set(px, py)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
