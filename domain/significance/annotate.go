package significance

import (
	"math"
	"strconv"

	"psychoplot/domain/table"
	"psychoplot/internal/errors"
)

// Annotations is a grid of cell labels aligned with the coefficient matrix.
type Annotations struct {
	RowLabels []string
	ColLabels []string
	cells     [][]string
}

// Annotate labels every cell with its coefficient (3 decimals) and stars
// according to retained, the descending threshold list from Correct:
//
//	3 levels: p < L2 "***", p < L1 "**", p < L0 "*"
//	2 levels: p < L1 "**", p < L0 "*"
//	otherwise: p < L0 plain coefficient
//
// Cells that pass no threshold get an empty label.
func Annotate(coef, p *table.LabeledMatrix, retained []float64) (*Annotations, error) {
	if coef == nil || p == nil {
		return nil, errors.InvalidInput("coefficient and p-value matrices are required")
	}
	if !coef.SameShape(p) {
		cr, cc := coef.Dims()
		pr, pc := p.Dims()
		return nil, errors.InvalidInputf("coefficient matrix is %dx%d but p-value matrix is %dx%d", cr, cc, pr, pc)
	}
	if len(retained) == 0 {
		return nil, errors.InvalidInput("at least one retained threshold is required")
	}

	rows, cols := p.Dims()
	cells := make([][]string, rows)
	for i := 0; i < rows; i++ {
		cells[i] = make([]string, cols)
		for j := 0; j < cols; j++ {
			stars, ok := classify(p.At(i, j), retained)
			if ok {
				cells[i][j] = formatCoefficient(coef.At(i, j)) + stars
			}
		}
	}

	return &Annotations{
		RowLabels: append([]string(nil), coef.RowLabels...),
		ColLabels: append([]string(nil), coef.ColLabels...),
		cells:     cells,
	}, nil
}

// formatCoefficient rounds to 3 decimals and spells non-finite values the
// way pandas prints them.
func formatCoefficient(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// classify returns the star suffix for pv and whether the cell is labeled at all.
func classify(pv float64, levels []float64) (string, bool) {
	switch len(levels) {
	case 3:
		switch {
		case pv < levels[2]:
			return "***", true
		case pv < levels[1]:
			return "**", true
		case pv < levels[0]:
			return "*", true
		}
	case 2:
		switch {
		case pv < levels[1]:
			return "**", true
		case pv < levels[0]:
			return "*", true
		}
	default:
		if pv < levels[0] {
			return "", true
		}
	}
	return "", false
}

// Dims returns the grid size
func (a *Annotations) Dims() (int, int) {
	if len(a.cells) == 0 {
		return 0, 0
	}
	return len(a.cells), len(a.cells[0])
}

// Get returns the label of cell (i, j)
func (a *Annotations) Get(i, j int) string {
	return a.cells[i][j]
}

// Count returns the number of labeled cells
func (a *Annotations) Count() int {
	n := 0
	for _, row := range a.cells {
		for _, c := range row {
			if c != "" {
				n++
			}
		}
	}
	return n
}

// Grid returns a copy of all labels, row-major
func (a *Annotations) Grid() [][]string {
	out := make([][]string, len(a.cells))
	for i, row := range a.cells {
		out[i] = append([]string(nil), row...)
	}
	return out
}
