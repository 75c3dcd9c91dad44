package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"psychoplot/internal/errors"
)

func TestNewFramePadsAndTrims(t *testing.T) {
	f, err := NewFrame([]string{" Item ", "Theta"}, [][]string{{"Item_1", " -3.0 "}, {"Item_2"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Item", "Theta"}, f.Headers)
	assert.Equal(t, 2, f.Len())
	assert.Equal(t, []string{"Item_2", ""}, f.Rows[1])
	assert.True(t, f.Has("Item", "Theta"))
	assert.False(t, f.Has("P1"))
}

func TestNewFrameRejectsDuplicates(t *testing.T) {
	_, err := NewFrame([]string{"P1", "P1"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = NewFrame(nil, nil)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestFrameFloats(t *testing.T) {
	f, err := NewFrame([]string{"Theta"}, [][]string{{"0.5"}, {""}, {"abc"}})
	require.NoError(t, err)

	_, err = f.Floats("Theta")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	f.Rows = f.Rows[:2]
	vals, err := f.Floats("Theta")
	require.NoError(t, err)
	assert.Equal(t, 0.5, vals[0])
	assert.True(t, math.IsNaN(vals[1]))

	_, err = f.Floats("Missing")
	assert.True(t, errors.IsInvalidInput(err))
}

func TestAsLabeledMatrixAcceptedInputs(t *testing.T) {
	grid := [][]float64{{1, 0.5}, {0.5, 1}}

	fromGrid, err := AsLabeledMatrix("coef", grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, fromGrid.RowLabels)
	assert.Equal(t, 0.5, fromGrid.At(0, 1))

	dense := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	fromDense, err := AsLabeledMatrix("coef", dense)
	require.NoError(t, err)
	r, c := fromDense.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)

	dense.Set(0, 0, 99)
	assert.Equal(t, 1.0, fromDense.At(0, 0), "input must be copied")

	same, err := AsLabeledMatrix("coef", fromDense)
	require.NoError(t, err)
	assert.Same(t, fromDense, same)

	byValue, err := AsLabeledMatrix("coef", *fromDense)
	require.NoError(t, err)
	assert.Equal(t, fromDense.ColLabels, byValue.ColLabels)
}

func TestAsLabeledMatrixRejects(t *testing.T) {
	var nilDense *mat.Dense
	var nilLabeled *LabeledMatrix

	tests := []struct {
		name  string
		input any
	}{
		{"nil", nil},
		{"plain list", []float64{0.1, 0.2}},
		{"strings", [][]string{{"a"}}},
		{"ragged grid", [][]float64{{1, 2}, {3}}},
		{"empty grid", [][]float64{}},
		{"nil dense", nilDense},
		{"nil labeled", nilLabeled},
		{"number", 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AsLabeledMatrix("p_matrix", tt.input)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidInput(err), "got code %s", errors.GetCode(err))
			assert.Contains(t, err.Error(), "p_matrix")
		})
	}
}

func TestNewLabeledMatrixLabelMismatch(t *testing.T) {
	_, err := NewLabeledMatrix([]string{"a"}, nil, mat.NewDense(2, 2, nil))
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestMatrixFromFrame(t *testing.T) {
	f, err := NewFrame(
		[]string{"", "Anxiety", "Sleep"},
		[][]string{
			{"Anxiety", "1", "0.42"},
			{"Sleep", "0.42", ""},
		},
	)
	require.NoError(t, err)

	m, err := MatrixFromFrame(f)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anxiety", "Sleep"}, m.RowLabels)
	assert.Equal(t, []string{"Anxiety", "Sleep"}, m.ColLabels)
	assert.Equal(t, 0.42, m.At(1, 0))
	assert.True(t, math.IsNaN(m.At(1, 1)))
	assert.Equal(t, []float64{1, 0.42, 0.42}, m.Finite())

	f.Rows[0][1] = "high"
	_, err = MatrixFromFrame(f)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestTransposeSwapsLabels(t *testing.T) {
	m, err := NewLabeledMatrix([]string{"r0", "r1"}, []string{"c0", "c1", "c2"}, mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)

	tr := m.T()
	r, c := tr.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []string{"c0", "c1", "c2"}, tr.RowLabels)
	assert.Equal(t, 6.0, tr.At(2, 1))
	assert.False(t, m.SameShape(tr))
	assert.True(t, m.SameShape(tr.T()))
	assert.Equal(t, 6, m.Len())
}
