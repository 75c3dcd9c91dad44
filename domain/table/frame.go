package table

import (
	"strings"

	"psychoplot/internal/errors"
)

// Frame is a header-labeled table of raw string cells, as read from a CSV
// file or a spreadsheet. Rows are kept in file order.
type Frame struct {
	Headers []string
	Rows    [][]string
}

// NewFrame validates headers and pads short rows with empty cells.
func NewFrame(headers []string, rows [][]string) (*Frame, error) {
	if len(headers) == 0 {
		return nil, errors.InvalidInput("table has no header row")
	}
	seen := make(map[string]bool, len(headers))
	clean := make([]string, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h != "" && seen[h] {
			return nil, errors.InvalidInputf("duplicate column %q", h)
		}
		seen[h] = true
		clean[i] = h
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, len(clean))
		for j := 0; j < len(clean) && j < len(row); j++ {
			cells[j] = strings.TrimSpace(row[j])
		}
		out = append(out, cells)
	}
	return &Frame{Headers: clean, Rows: out}, nil
}

// Len returns the number of data rows
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Index returns the position of a column, or -1
func (f *Frame) Index(name string) int {
	for i, h := range f.Headers {
		if h == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column is present
func (f *Frame) Has(names ...string) bool {
	for _, n := range names {
		if f.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Column returns the raw cells of one column
func (f *Frame) Column(name string) ([]string, error) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, errors.InvalidInputf("column %q not found", name)
	}
	col := make([]string, len(f.Rows))
	for i, row := range f.Rows {
		col[i] = row[idx]
	}
	return col, nil
}

// Floats parses a column as float64 values.
func (f *Frame) Floats(name string) ([]float64, error) {
	raw, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(raw))
	for i, cell := range raw {
		v, err := parseCell(cell)
		if err != nil {
			return nil, errors.InvalidInputf("column %q row %d: %q is not a number", name, i+1, cell)
		}
		vals[i] = v
	}
	return vals, nil
}
