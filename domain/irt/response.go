// Package irt holds item response data for item characteristic curves.
package irt

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"psychoplot/domain/table"
	"psychoplot/internal/errors"
)

const (
	ItemColumn  = "Item"
	ThetaColumn = "Theta"

	// NumCategories is the number of response categories per item
	NumCategories = 5
)

// Categories are the probability column names, in drawing order.
var Categories = [NumCategories]string{"P1", "P2", "P3", "P4", "P5"}

// Row is one (item, theta) observation.
type Row struct {
	Item  string
	Theta float64
	P     [NumCategories]float64
}

// Point is one melted (theta, category, probability) triple.
type Point struct {
	Theta       float64
	Category    string
	Probability float64
}

// Curve is the theta/probability series of one category.
type Curve struct {
	Category string
	Theta    []float64
	P        []float64
}

// ResponseTable is a long-format item response table.
type ResponseTable struct {
	rows   []Row
	items  []string
	byItem map[string][]int
}

// RequiredColumns lists the columns FromFrame needs.
func RequiredColumns() []string {
	cols := []string{ItemColumn, ThetaColumn}
	return append(cols, Categories[:]...)
}

// FromFrame validates and parses a raw table.
func FromFrame(f *table.Frame) (*ResponseTable, error) {
	if f == nil {
		return nil, errors.InvalidInput("item response data must be a table")
	}
	for _, col := range RequiredColumns() {
		if f.Index(col) < 0 {
			return nil, errors.InvalidInputf("item response table is missing column %q", col)
		}
	}

	items, _ := f.Column(ItemColumn)
	theta, err := f.Floats(ThetaColumn)
	if err != nil {
		return nil, err
	}
	var probs [NumCategories][]float64
	for k, cat := range Categories {
		if probs[k], err = f.Floats(cat); err != nil {
			return nil, err
		}
	}

	rows := make([]Row, f.Len())
	for i := range rows {
		rows[i].Item = items[i]
		rows[i].Theta = theta[i]
		for k := range Categories {
			rows[i].P[k] = probs[k][i]
		}
	}
	return NewResponseTable(rows)
}

// NewResponseTable indexes rows by item in first-seen order.
func NewResponseTable(rows []Row) (*ResponseTable, error) {
	t := &ResponseTable{
		rows:   append([]Row(nil), rows...),
		byItem: make(map[string][]int),
	}
	for i, r := range t.rows {
		if r.Item == "" {
			return nil, errors.InvalidInputf("row %d has an empty item identifier", i+1)
		}
		if _, ok := t.byItem[r.Item]; !ok {
			t.items = append(t.items, r.Item)
		}
		t.byItem[r.Item] = append(t.byItem[r.Item], i)
	}
	return t, nil
}

// Len returns the number of rows
func (t *ResponseTable) Len() int {
	return len(t.rows)
}

// Items returns distinct item identifiers in first-seen order
func (t *ResponseTable) Items() []string {
	return append([]string(nil), t.items...)
}

// Rows returns the rows of one item in file order
func (t *ResponseTable) Rows(item string) []Row {
	idx := t.byItem[item]
	out := make([]Row, len(idx))
	for i, j := range idx {
		out[i] = t.rows[j]
	}
	return out
}

// Melt reshapes one item into long (theta, category, probability) triples,
// category-major like a wide-to-long melt.
func (t *ResponseTable) Melt(item string) []Point {
	rows := t.Rows(item)
	out := make([]Point, 0, len(rows)*NumCategories)
	for k, cat := range Categories {
		for _, r := range rows {
			out = append(out, Point{Theta: r.Theta, Category: cat, Probability: r.P[k]})
		}
	}
	return out
}

// Curves groups the melted points of one item into one series per category.
func (t *ResponseTable) Curves(item string) []Curve {
	curves := make([]Curve, NumCategories)
	for k, cat := range Categories {
		curves[k].Category = cat
	}
	for _, p := range t.Melt(item) {
		k := categoryIndex(p.Category)
		curves[k].Theta = append(curves[k].Theta, p.Theta)
		curves[k].P = append(curves[k].P, p.Probability)
	}
	return curves
}

// CheckSums returns the items whose category probabilities miss 1 by more
// than tol at any theta. The result is informational only.
func (t *ResponseTable) CheckSums(tol float64) []string {
	var bad []string
	for _, item := range t.items {
		for _, r := range t.Rows(item) {
			sum := floats.Sum(r.P[:])
			if math.IsNaN(sum) || math.Abs(sum-1) > tol {
				bad = append(bad, item)
				break
			}
		}
	}
	return bad
}

func categoryIndex(cat string) int {
	for k, c := range Categories {
		if c == cat {
			return k
		}
	}
	return -1
}
