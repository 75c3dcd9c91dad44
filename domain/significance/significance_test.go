package significance

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"psychoplot/domain/table"
	"psychoplot/internal/errors"
)

func filled(t *testing.T, r, c int, v float64) *table.LabeledMatrix {
	t.Helper()
	data := make([]float64, r*c)
	for i := range data {
		data[i] = v
	}
	m, err := table.NewLabeledMatrix(nil, nil, mat.NewDense(r, c, data))
	require.NoError(t, err)
	return m
}

func TestCorrectRetainedSets(t *testing.T) {
	tests := []struct {
		name      string
		compared  int
		corrected float64
		retained  []float64
	}{
		{"four comparisons keep three levels", 4, 0.0125, []float64{0.0125, 0.01, 0.001}},
		{"ten comparisons keep two levels", 10, 0.005, []float64{0.005, 0.001}},
		{"hundred comparisons keep one level", 100, 0.0005, []float64{0.0005}},
		{"tie with a supplied level keeps the duplicate", 50, 0.001, []float64{0.001, 0.001}},
		{"single comparison drops nothing", 1, 0.05, []float64{0.05, 0.05, 0.01, 0.001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Correct(DefaultLevels(), tt.compared)
			require.NoError(t, err)
			assert.Equal(t, tt.compared, c.NumCompared)
			assert.Equal(t, 0.05, c.Alpha)
			assert.InDelta(t, tt.corrected, c.Corrected, 1e-15)
			require.Len(t, c.Retained, len(tt.retained))
			for i := range tt.retained {
				assert.InDelta(t, tt.retained[i], c.Retained[i], 1e-15)
			}
			assert.Equal(t, c.Corrected, c.Retained[0])
		})
	}
}

func TestCorrectUsesFirstLevelAsAlpha(t *testing.T) {
	c, err := Correct([]float64{0.01, 0.05, 0.001}, 2)
	require.NoError(t, err)

	assert.Equal(t, 0.01, c.Alpha)
	assert.Equal(t, 0.005, c.Corrected)
	assert.Equal(t, []float64{0.005, 0.001}, c.Retained)
}

func TestCorrectDoesNotMutateCaller(t *testing.T) {
	levels := []float64{0.05, 0.01, 0.001}

	first, err := Correct(levels, 10)
	require.NoError(t, err)
	second, err := Correct(levels, 10)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.05, 0.01, 0.001}, levels)
	assert.Equal(t, first, second)

	first.Retained[0] = 42
	assert.NotEqual(t, first.Retained[0], second.Retained[0])
}

func TestCorrectRejects(t *testing.T) {
	_, err := Correct([]float64{0.05, 0.01}, 10)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = Correct(DefaultLevels(), 0)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestParseLevels(t *testing.T) {
	levels, err := ParseLevels(" 0.1, 0.05 ,1e-3")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.05, 0.001}, levels)

	bad := []string{
		"0.05,0.01",
		"0.05,0.01,0.001,0.0001",
		"0.05,0.01,1",
		"0.05,abc,0.001",
		"0.05,NaN,0.001",
		"",
	}
	for _, s := range bad {
		_, err := ParseLevels(s)
		require.Error(t, err, s)
		assert.True(t, errors.IsInvalidInput(err), s)
	}
}

func TestAnnotateTwoLevels(t *testing.T) {
	coef := filled(t, 1, 4, 0.512)
	p, err := table.FromGrid([][]float64{{0.0003, 0.0007, 0.002, 0.5}})
	require.NoError(t, err)

	ann, err := Annotate(coef, p, []float64{0.001, 0.0005})
	require.NoError(t, err)

	assert.Equal(t, "0.512**", ann.Get(0, 0))
	assert.Equal(t, "0.512*", ann.Get(0, 1))
	assert.Equal(t, "", ann.Get(0, 2))
	assert.Equal(t, "", ann.Get(0, 3))
	assert.Equal(t, 2, ann.Count())
}

func TestAnnotateThreeLevels(t *testing.T) {
	coef, err := table.FromGrid([][]float64{{-0.3456, 0.1, 0.2, 0.9}})
	require.NoError(t, err)
	p, err := table.FromGrid([][]float64{{0.0001, 0.005, 0.02, 0.0125}})
	require.NoError(t, err)

	ann, err := Annotate(coef, p, []float64{0.0125, 0.01, 0.001})
	require.NoError(t, err)

	assert.Equal(t, []string{"-0.346***", "0.100**", "", ""}, ann.Grid()[0])
}

func TestAnnotateSingleLevel(t *testing.T) {
	coef := filled(t, 2, 2, 0.25)
	p, err := table.FromGrid([][]float64{{0.0001, 0.0005}, {0.04, 0.0004}})
	require.NoError(t, err)

	ann, err := Annotate(coef, p, []float64{0.0005})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"0.250", ""}, {"", "0.250"}}, ann.Grid())

	// four retained entries fall through to the single-level rule
	ann, err = Annotate(coef, p, []float64{0.05, 0.05, 0.01, 0.001})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"0.250", "0.250"}, {"0.250", "0.250"}}, ann.Grid())
}

func TestAnnotateCoefficientFromSamePosition(t *testing.T) {
	coef, err := table.NewLabeledMatrix([]string{"a", "b"}, []string{"x", "y"}, mat.NewDense(2, 2, []float64{0.1, 0.2, 0.3, 0.4}))
	require.NoError(t, err)
	p := filled(t, 2, 2, 0.0)

	ann, err := Annotate(coef, p, []float64{0.0125, 0.01, 0.001})
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"0.100***", "0.200***"}, {"0.300***", "0.400***"}}, ann.Grid())
	assert.Equal(t, []string{"a", "b"}, ann.RowLabels)
	assert.Equal(t, []string{"x", "y"}, ann.ColLabels)
	r, c := ann.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
}

func TestAnnotateNonFiniteCoefficients(t *testing.T) {
	coef, err := table.FromGrid([][]float64{{math.NaN(), math.Inf(1), math.Inf(-1), math.NaN()}})
	require.NoError(t, err)
	p, err := table.FromGrid([][]float64{{0.0001, 0.005, 0.02, math.NaN()}})
	require.NoError(t, err)

	ann, err := Annotate(coef, p, []float64{0.05, 0.01, 0.001})
	require.NoError(t, err)

	assert.Equal(t, []string{"nan***", "inf**", "-inf*", ""}, ann.Grid()[0])
}

func TestAnnotateIdempotent(t *testing.T) {
	coef := filled(t, 3, 3, 0.5)
	p, err := table.FromGrid([][]float64{{0.001, 0.2, 0.00001}, {0.03, 0.0004, 0.9}, {0.0, 0.01, 0.005}})
	require.NoError(t, err)

	corr, err := Correct(DefaultLevels(), p.Len())
	require.NoError(t, err)

	first, err := Annotate(coef, p, corr.Retained)
	require.NoError(t, err)
	second, err := Annotate(coef, p, corr.Retained)
	require.NoError(t, err)

	assert.Equal(t, first.Grid(), second.Grid())
}

func TestAnnotateRejectsShapeMismatch(t *testing.T) {
	_, err := Annotate(filled(t, 2, 2, 0), filled(t, 2, 3, 0), DefaultLevels())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = Annotate(filled(t, 2, 2, 0), filled(t, 2, 2, 0), nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestCorrectionReport(t *testing.T) {
	c, err := Correct(DefaultLevels(), 100)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Report(&buf))

	out := buf.String()
	assert.Contains(t, out, "The total number of comparisons is 100")
	assert.Contains(t, out, "alpha before and after correction are 0.05 and 0.0005")
	assert.Contains(t, out, "threshold is: [0.0005]")
}
