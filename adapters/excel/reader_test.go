package excel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"psychoplot/internal"
	"psychoplot/internal/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadFrameCSV(t *testing.T) {
	path := writeFile(t, "icc_data.csv", "\ufeffItem,Theta,P1,P2,P3,P4,P5\nItem_1,-3,0.9,0.05,0.03,0.01,0.01\nItem_1,3,0.01,0.01,0.03,0.05,0.9\n")

	frame, err := NewDataReader(path, WithLogger(internal.NewNopLogger())).ReadFrame()
	require.NoError(t, err)

	assert.Equal(t, "Item", frame.Headers[0])
	assert.Equal(t, 2, frame.Len())
	assert.Equal(t, "0.9", frame.Rows[1][6])
}

func TestReadFrameErrors(t *testing.T) {
	_, err := NewDataReader(filepath.Join(t.TempDir(), "missing.csv")).ReadFrame()
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	headerOnly := writeFile(t, "empty.csv", "Item,Theta\n")
	_, err = NewDataReader(headerOnly).ReadFrame()
	assert.True(t, errors.IsInvalidInput(err))

	broken := writeFile(t, "broken.csv", "a,b\n\"unterminated,1\n")
	_, err = NewDataReader(broken).ReadFrame()
	assert.True(t, errors.IsInvalidInput(err))
}

func TestReadMatrixCSVWithTranspose(t *testing.T) {
	path := writeFile(t, "cor_matrix.csv", ",Anxiety,Sleep,Mood\nScale_A,0.1,0.2,0.3\nScale_B,0.4,0.5,0.6\n")

	m, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, []string{"Scale_A", "Scale_B"}, m.RowLabels)

	tr, err := NewDataReader(path, WithConfig(ReaderConfig{Transpose: true})).ReadMatrix()
	require.NoError(t, err)
	r, c = tr.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []string{"Anxiety", "Sleep", "Mood"}, tr.RowLabels)
	assert.Equal(t, 0.6, tr.At(2, 1))
}

func TestReadMatrixXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p_matrix.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"", "x", "y"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"a", 0.001, 0.5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"b", 0.02, 0.0001}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	m, err := NewDataReader(path).ReadMatrix()
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, m.ColLabels)
	assert.Equal(t, []string{"a", "b"}, m.RowLabels)
	assert.InDelta(t, 0.0001, m.At(1, 1), 1e-12)

	_, err = NewDataReader(path, WithConfig(ReaderConfig{Sheet: "Nope"})).ReadMatrix()
	assert.True(t, errors.IsInvalidInput(err))
}

func TestReadFrameFromForcedType(t *testing.T) {
	r := NewDataReader("upload", WithFileType("csv"))
	frame, err := r.ReadFrameFrom(strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, frame.Headers)

	_, err = NewDataReader("upload", WithFileType("parquet")).ReadFrameFrom(strings.NewReader(""))
	assert.True(t, errors.IsInvalidInput(err))
}

func TestFileType(t *testing.T) {
	assert.Equal(t, "xlsx", FileType("data/P_MATRIX.XLSX"))
	assert.Equal(t, "csv", FileType("icc_data.csv"))
	assert.Equal(t, "csv", FileType("noext"))
}
