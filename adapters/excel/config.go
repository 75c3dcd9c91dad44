package excel

import "psychoplot/internal"

// ReaderConfig holds options for table loading
type ReaderConfig struct {
	// Sheet is the worksheet to read from xlsx files; empty means the first one
	Sheet string `json:"sheet"`
	// Transpose swaps rows and columns after reading a matrix
	Transpose bool `json:"transpose"`
}

// DefaultReaderConfig returns the defaults: first sheet, no transpose
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{}
}

// Option customises a DataReader
type Option func(*DataReader)

// WithConfig replaces the reader configuration
func WithConfig(cfg ReaderConfig) Option {
	return func(r *DataReader) { r.config = cfg }
}

// WithFileType forces the file type, for sources without a file name
func WithFileType(fileType string) Option {
	return func(r *DataReader) { r.fileType = fileType }
}

// WithLogger sets the logger
func WithLogger(l *internal.Logger) Option {
	return func(r *DataReader) {
		if l != nil {
			r.logger = l
		}
	}
}
