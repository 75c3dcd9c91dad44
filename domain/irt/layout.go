package irt

// GridColumns is the fixed number of subplot columns.
const GridColumns = 10

// GridLayout places N items row-major in a grid with a fixed column count.
type GridLayout struct {
	Items int
	Rows  int
	Cols  int
}

// Layout returns the grid for n items: ceil(n/10) rows of 10 columns.
func Layout(n int) GridLayout {
	if n < 0 {
		n = 0
	}
	return GridLayout{
		Items: n,
		Rows:  (n + GridColumns - 1) / GridColumns,
		Cols:  GridColumns,
	}
}

// Cells is the total slot count, used or not
func (g GridLayout) Cells() int {
	return g.Rows * g.Cols
}

// Slot maps an item index to its (row, col)
func (g GridLayout) Slot(i int) (row, col int) {
	return i / g.Cols, i % g.Cols
}

// Unused lists the trailing slot indices in [Items, Cells)
func (g GridLayout) Unused() []int {
	var out []int
	for i := g.Items; i < g.Cells(); i++ {
		out = append(out, i)
	}
	return out
}
