package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"psychoplot/domain/table"
	"psychoplot/internal"
	"psychoplot/internal/errors"
)

// DataReader handles reading Excel and CSV files into tables
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension
func NewDataReader(filePath string, opts ...Option) *DataReader {
	r := &DataReader{
		filePath: filePath,
		fileType: FileType(filePath),
		config:   DefaultReaderConfig(),
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FileType maps a file name to "csv" or "xlsx"
func FileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return "xlsx"
	default:
		return "csv"
	}
}

// ReadFrame reads the whole file. The first row is the header row.
func (r *DataReader) ReadFrame() (*table.Frame, error) {
	r.logger.Debug("[DataReader] Starting to read %s file: %s", r.fileType, r.filePath)

	file, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(fmt.Sprintf("%s file %s", strings.ToUpper(r.fileType), r.filePath))
		}
		return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer file.Close()

	return r.ReadFrameFrom(file)
}

// ReadFrameFrom reads a table of the reader's file type from src.
func (r *DataReader) ReadFrameFrom(src io.Reader) (*table.Frame, error) {
	start := time.Now()

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows(src)
	case "xlsx":
		rows, err = r.readExcelRows(src)
	default:
		return nil, errors.InvalidInputf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, errors.InvalidInputf("%s file must have at least a header row and one data row", strings.ToUpper(r.fileType))
	}

	frame, err := table.NewFrame(rows[0], rows[1:])
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[DataReader] %s processed in %.2fms (%d columns, %d rows)",
		strings.ToUpper(r.fileType), float64(time.Since(start).Nanoseconds())/1e6, len(frame.Headers), frame.Len())
	return frame, nil
}

// ReadMatrix reads a labeled matrix whose first column holds the row labels.
func (r *DataReader) ReadMatrix() (*table.LabeledMatrix, error) {
	frame, err := r.ReadFrame()
	if err != nil {
		return nil, err
	}
	return r.toMatrix(frame)
}

// ReadMatrixFrom is ReadMatrix over an arbitrary source
func (r *DataReader) ReadMatrixFrom(src io.Reader) (*table.LabeledMatrix, error) {
	frame, err := r.ReadFrameFrom(src)
	if err != nil {
		return nil, err
	}
	return r.toMatrix(frame)
}

func (r *DataReader) toMatrix(frame *table.Frame) (*table.LabeledMatrix, error) {
	m, err := table.MatrixFromFrame(frame)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid matrix in %s", r.filePath)
	}
	if r.config.Transpose {
		m = m.T()
	}
	return m, nil
}

func (r *DataReader) readCSVRows(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInputf("failed to read CSV file: %v", err)
	}
	// tolerate a UTF-8 BOM on the first header
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

func (r *DataReader) readExcelRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.InvalidInputf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.InvalidInput("Excel file has no sheets")
		}
		sheet = sheets[0]
	}

	// raw values keep full numeric precision instead of the display format
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.InvalidInputf("failed to read sheet %q: %v", sheet, err)
	}
	r.logger.Debug("[DataReader] sheet %q read (%d rows)", sheet, len(rows))
	return rows, nil
}
