// Package testkit generates synthetic scale data for demos and tests.
package testkit

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"psychoplot/domain/irt"
	"psychoplot/domain/table"
)

// ScaleGeneratorConfig configures the synthetic scale generator
type ScaleGeneratorConfig struct {
	Items      int     `json:"items"`
	ThetaMin   float64 `json:"theta_min"`
	ThetaMax   float64 `json:"theta_max"`
	ThetaSteps int     `json:"theta_steps"`
	Scales     int     `json:"scales"`  // heatmap rows
	Factors    int     `json:"factors"` // heatmap columns
	Seed       int64   `json:"seed"`
}

// DefaultScaleConfig returns a 24 item scale against 6 scales and 4 factors
func DefaultScaleConfig() ScaleGeneratorConfig {
	return ScaleGeneratorConfig{
		Items:      24,
		ThetaMin:   -4,
		ThetaMax:   4,
		ThetaSteps: 81,
		Scales:     6,
		Factors:    4,
		Seed:       42,
	}
}

// ScaleDataGenerator produces graded response model curves and coefficient
// matrices. Output depends only on the config.
type ScaleDataGenerator struct {
	config ScaleGeneratorConfig
	rng    *rand.Rand
}

// NewScaleDataGenerator creates a new generator
func NewScaleDataGenerator(config ScaleGeneratorConfig) *ScaleDataGenerator {
	return &ScaleDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// GenerateResponseRows draws one discrimination and four ordered thresholds
// per item and evaluates the category probabilities along the theta axis.
func (g *ScaleDataGenerator) GenerateResponseRows() []irt.Row {
	steps := g.config.ThetaSteps
	if steps < 2 {
		steps = 2
	}
	span := g.config.ThetaMax - g.config.ThetaMin

	var rows []irt.Row
	for i := 0; i < g.config.Items; i++ {
		a := 0.8 + g.rng.Float64()*1.7
		b := make([]float64, irt.NumCategories-1)
		for k := range b {
			b[k] = -2.5 + g.rng.Float64()*5
		}
		sort.Float64s(b)

		item := fmt.Sprintf("Item_%d", i+1)
		for s := 0; s < steps; s++ {
			theta := g.config.ThetaMin + span*float64(s)/float64(steps-1)
			rows = append(rows, irt.Row{Item: item, Theta: theta, P: GradedResponse(theta, a, b)})
		}
	}
	return rows
}

// GradedResponse returns the five category probabilities of Samejima's
// graded response model for discrimination a and ordered thresholds b.
func GradedResponse(theta, a float64, b []float64) [irt.NumCategories]float64 {
	var star [irt.NumCategories + 1]float64
	star[0] = 1
	for k := 0; k < irt.NumCategories-1 && k < len(b); k++ {
		star[k+1] = 1 / (1 + math.Exp(-a*(theta-b[k])))
	}

	var p [irt.NumCategories]float64
	for k := range p {
		p[k] = star[k] - star[k+1]
	}
	return p
}

// GenerateMatrices returns a coefficient matrix and a parallel p-value
// matrix. Larger coefficients get smaller p-values.
func (g *ScaleDataGenerator) GenerateMatrices() (*table.LabeledMatrix, *table.LabeledMatrix, error) {
	rows, cols := g.config.Scales, g.config.Factors
	if rows < 1 || cols < 1 {
		return nil, nil, fmt.Errorf("matrix needs at least one scale and one factor, got %dx%d", rows, cols)
	}
	coef := mat.NewDense(rows, cols, nil)
	p := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			r := -0.8 + g.rng.Float64()*1.6
			coef.Set(i, j, r)
			p.Set(i, j, math.Min(1, math.Exp(-14*math.Abs(r))*(0.5+g.rng.Float64())))
		}
	}

	rowLabels := make([]string, rows)
	for i := range rowLabels {
		rowLabels[i] = fmt.Sprintf("Scale_%d", i+1)
	}
	colLabels := make([]string, cols)
	for j := range colLabels {
		colLabels[j] = fmt.Sprintf("Factor_%d", j+1)
	}

	cm, err := table.NewLabeledMatrix(rowLabels, colLabels, coef)
	if err != nil {
		return nil, nil, err
	}
	pm, err := table.NewLabeledMatrix(rowLabels, colLabels, p)
	if err != nil {
		return nil, nil, err
	}
	return cm, pm, nil
}

// WriteResponseCSV writes rows in the long Item, Theta, P1..P5 layout
func WriteResponseCSV(w io.Writer, rows []irt.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(irt.RequiredColumns()); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{r.Item, formatFloat(r.Theta)}
		for _, v := range r.P {
			rec = append(rec, formatFloat(v))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMatrixCSV writes m with an unnamed row label column
func WriteMatrixCSV(w io.Writer, m *table.LabeledMatrix) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{""}, m.ColLabels...)); err != nil {
		return err
	}
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		rec := []string{m.RowLabels[i]}
		for j := 0; j < cols; j++ {
			rec = append(rec, formatFloat(m.At(i, j)))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}
