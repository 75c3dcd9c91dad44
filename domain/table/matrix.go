package table

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"psychoplot/internal/errors"
)

// LabeledMatrix is a dense numeric matrix with row and column labels.
type LabeledMatrix struct {
	RowLabels []string
	ColLabels []string
	Values    *mat.Dense
}

// NewLabeledMatrix copies data and attaches labels. Nil labels default to
// positional labels "0".."n-1".
func NewLabeledMatrix(rows, cols []string, data mat.Matrix) (*LabeledMatrix, error) {
	if data == nil {
		return nil, errors.InvalidInput("matrix is nil")
	}
	if d, ok := data.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return nil, errors.InvalidInput("matrix is empty")
	}
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return nil, errors.InvalidInput("matrix is empty")
	}
	if rows == nil {
		rows = positionalLabels(r)
	}
	if cols == nil {
		cols = positionalLabels(c)
	}
	if len(rows) != r || len(cols) != c {
		return nil, errors.InvalidInputf("labels %dx%d do not match matrix %dx%d", len(rows), len(cols), r, c)
	}
	return &LabeledMatrix{
		RowLabels: append([]string(nil), rows...),
		ColLabels: append([]string(nil), cols...),
		Values:    mat.DenseCopyOf(data),
	}, nil
}

// FromGrid builds a positionally labeled matrix from a rectangular grid.
func FromGrid(grid [][]float64) (*LabeledMatrix, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, errors.InvalidInput("numeric grid is empty")
	}
	c := len(grid[0])
	flat := make([]float64, 0, len(grid)*c)
	for i, row := range grid {
		if len(row) != c {
			return nil, errors.InvalidInputf("numeric grid is ragged: row %d has %d columns, want %d", i, len(row), c)
		}
		flat = append(flat, row...)
	}
	return NewLabeledMatrix(nil, nil, mat.NewDense(len(grid), c, flat))
}

// AsLabeledMatrix accepts a labeled matrix or anything convertible from a raw
// numeric grid. name is used in error messages.
func AsLabeledMatrix(name string, v any) (*LabeledMatrix, error) {
	switch x := v.(type) {
	case *LabeledMatrix:
		if x == nil || x.Values == nil {
			return nil, errors.InvalidInputf("%s is nil", name)
		}
		return x, nil
	case LabeledMatrix:
		if x.Values == nil {
			return nil, errors.InvalidInputf("%s has no values", name)
		}
		return NewLabeledMatrix(x.RowLabels, x.ColLabels, x.Values)
	case [][]float64:
		m, err := FromGrid(x)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		return m, nil
	case mat.Matrix:
		m, err := NewLabeledMatrix(nil, nil, x)
		if err != nil {
			return nil, errors.Wrapf(err, "%s", name)
		}
		return m, nil
	default:
		return nil, errors.InvalidInputf("%s must be a labeled matrix or a numeric grid, got %T", name, v)
	}
}

// MatrixFromFrame treats the first column as row labels and every other
// column as a numeric column. Empty cells become NaN.
func MatrixFromFrame(f *Frame) (*LabeledMatrix, error) {
	if f == nil {
		return nil, errors.InvalidInput("table is nil")
	}
	if len(f.Headers) < 2 {
		return nil, errors.InvalidInput("matrix table needs a label column and at least one value column")
	}
	if f.Len() == 0 {
		return nil, errors.InvalidInput("matrix table has no data rows")
	}

	rows := make([]string, f.Len())
	cols := append([]string(nil), f.Headers[1:]...)
	data := mat.NewDense(f.Len(), len(cols), nil)
	for i, row := range f.Rows {
		rows[i] = row[0]
		for j := range cols {
			v, err := parseCell(row[j+1])
			if err != nil {
				return nil, errors.InvalidInputf("row %q column %q: %q is not a number", row[0], cols[j], row[j+1])
			}
			data.Set(i, j, v)
		}
	}
	return NewLabeledMatrix(rows, cols, data)
}

// Dims returns the number of rows and columns
func (m *LabeledMatrix) Dims() (int, int) {
	return m.Values.Dims()
}

// At returns the value at row i, column j
func (m *LabeledMatrix) At(i, j int) float64 {
	return m.Values.At(i, j)
}

// Len is the total cell count
func (m *LabeledMatrix) Len() int {
	r, c := m.Dims()
	return r * c
}

// SameShape reports whether both matrices have identical dimensions
func (m *LabeledMatrix) SameShape(o *LabeledMatrix) bool {
	r1, c1 := m.Dims()
	r2, c2 := o.Dims()
	return r1 == r2 && c1 == c2
}

// T returns a transposed copy with row and column labels swapped
func (m *LabeledMatrix) T() *LabeledMatrix {
	return &LabeledMatrix{
		RowLabels: append([]string(nil), m.ColLabels...),
		ColLabels: append([]string(nil), m.RowLabels...),
		Values:    mat.DenseCopyOf(m.Values.T()),
	}
}

// Finite returns every non-NaN, non-Inf value in row-major order
func (m *LabeledMatrix) Finite() []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				out = append(out, v)
			}
		}
	}
	return out
}

func positionalLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	return labels
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") || strings.EqualFold(cell, "na") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
