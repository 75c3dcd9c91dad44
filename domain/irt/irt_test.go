package irt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"psychoplot/domain/table"
	"psychoplot/internal/errors"
)

func sampleFrame(t *testing.T) *table.Frame {
	t.Helper()
	f, err := table.NewFrame(
		[]string{"Item", "Theta", "P1", "P2", "P3", "P4", "P5"},
		[][]string{
			{"Item_2", "-1", "0.6", "0.2", "0.1", "0.05", "0.05"},
			{"Item_1", "-1", "0.5", "0.2", "0.1", "0.1", "0.1"},
			{"Item_2", "1", "0.05", "0.05", "0.1", "0.2", "0.6"},
			{"Item_1", "1", "0.1", "0.1", "0.1", "0.2", "0.3"},
		},
	)
	require.NoError(t, err)
	return f
}

func TestFromFrameFirstSeenOrder(t *testing.T) {
	rt, err := FromFrame(sampleFrame(t))
	require.NoError(t, err)

	assert.Equal(t, 4, rt.Len())
	assert.Equal(t, []string{"Item_2", "Item_1"}, rt.Items())

	rows := rt.Rows("Item_1")
	require.Len(t, rows, 2)
	assert.Equal(t, -1.0, rows[0].Theta)
	assert.Equal(t, 0.3, rows[1].P[4])
}

func TestFromFrameValidation(t *testing.T) {
	_, err := FromFrame(nil)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	f, err := table.NewFrame([]string{"Item", "Theta", "P1"}, [][]string{{"a", "0", "1"}})
	require.NoError(t, err)
	_, err = FromFrame(f)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "P2")

	bad := sampleFrame(t)
	bad.Rows[0][3] = "n/a"
	_, err = FromFrame(bad)
	assert.True(t, errors.IsInvalidInput(err))

	blank := sampleFrame(t)
	blank.Rows[1][0] = ""
	_, err = FromFrame(blank)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestMeltAndCurves(t *testing.T) {
	rt, err := FromFrame(sampleFrame(t))
	require.NoError(t, err)

	melted := rt.Melt("Item_2")
	require.Len(t, melted, 10)
	assert.Equal(t, Point{Theta: -1, Category: "P1", Probability: 0.6}, melted[0])
	assert.Equal(t, Point{Theta: 1, Category: "P1", Probability: 0.05}, melted[1])
	assert.Equal(t, "P5", melted[9].Category)

	curves := rt.Curves("Item_2")
	require.Len(t, curves, NumCategories)
	for k, c := range curves {
		assert.Equal(t, Categories[k], c.Category)
		assert.Equal(t, []float64{-1, 1}, c.Theta)
	}
	assert.Equal(t, []float64{0.05, 0.6}, curves[4].P)

	assert.Empty(t, rt.Melt("missing"))
}

func TestCheckSums(t *testing.T) {
	rt, err := FromFrame(sampleFrame(t))
	require.NoError(t, err)

	// Item_1 at theta=1 sums to 0.8
	assert.Equal(t, []string{"Item_1"}, rt.CheckSums(1e-6))
	assert.Empty(t, rt.CheckSums(0.5))
}

func TestLayout(t *testing.T) {
	tests := []struct {
		n, rows, cells, unused int
	}{
		{0, 0, 0, 0},
		{1, 1, 10, 9},
		{10, 1, 10, 0},
		{11, 2, 20, 9},
		{57, 6, 60, 3},
		{100, 10, 100, 0},
	}

	for _, tt := range tests {
		g := Layout(tt.n)
		assert.Equal(t, tt.rows, g.Rows, "rows for n=%d", tt.n)
		assert.Equal(t, GridColumns, g.Cols)
		assert.Equal(t, tt.cells, g.Cells())
		assert.Len(t, g.Unused(), tt.unused)
		assert.Equal(t, tt.n, g.Cells()-len(g.Unused()), "live cells for n=%d", tt.n)
	}

	row, col := Layout(57).Slot(56)
	assert.Equal(t, 5, row)
	assert.Equal(t, 6, col)
	assert.Equal(t, []int{57, 58, 59}, Layout(57).Unused())
}
