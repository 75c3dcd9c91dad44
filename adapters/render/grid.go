package render

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg/draw"
)

// SurfaceGrid maps (row, col) to a drawable plot. Removed slots stay empty
// when the grid is tiled onto a canvas.
type SurfaceGrid struct {
	rows  int
	cols  int
	plots [][]*plot.Plot
}

// NewSurfaceGrid allocates a plot for every slot
func NewSurfaceGrid(rows, cols int) *SurfaceGrid {
	plots := make([][]*plot.Plot, rows)
	for i := range plots {
		plots[i] = make([]*plot.Plot, cols)
		for j := range plots[i] {
			plots[i][j] = plot.New()
		}
	}
	return &SurfaceGrid{rows: rows, cols: cols, plots: plots}
}

// Dims returns the grid size in slots
func (g *SurfaceGrid) Dims() (rows, cols int) {
	return g.rows, g.cols
}

// Surface returns the plot at (row, col), or nil when removed or out of range
func (g *SurfaceGrid) Surface(row, col int) *plot.Plot {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return nil
	}
	return g.plots[row][col]
}

// Remove drops the surface at (row, col) from the figure
func (g *SurfaceGrid) Remove(row, col int) {
	if g.Surface(row, col) != nil {
		g.plots[row][col] = nil
	}
}

// Live counts the surfaces that will be drawn
func (g *SurfaceGrid) Live() int {
	n := 0
	for _, row := range g.plots {
		for _, p := range row {
			if p != nil {
				n++
			}
		}
	}
	return n
}

// Each calls fn for every live surface in row-major order
func (g *SurfaceGrid) Each(fn func(row, col int, p *plot.Plot)) {
	for i, row := range g.plots {
		for j, p := range row {
			if p != nil {
				fn(i, j, p)
			}
		}
	}
}

// Draw tiles the live surfaces onto dc with aligned data areas.
func (g *SurfaceGrid) Draw(dc draw.Canvas, t draw.Tiles) {
	if g.rows == 0 || g.cols == 0 {
		return
	}
	t.Rows, t.Cols = g.rows, g.cols
	canvases := plot.Align(g.plots, t, dc)
	g.Each(func(row, col int, p *plot.Plot) {
		p.Draw(canvases[row][col])
	})
}
