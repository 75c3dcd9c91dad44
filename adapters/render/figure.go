// Package render draws item characteristic curve grids and annotated
// correlation heatmaps with gonum/plot.
package render

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgeps"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"psychoplot/internal/errors"
)

// Figure is a fully laid out drawing waiting for a backend.
type Figure struct {
	Width  vg.Length
	Height vg.Length
	paint  func(dc draw.Canvas)
}

// Encode renders the figure in the given format (png, svg, pdf, jpg, tiff, eps) to w.
func (f *Figure) Encode(w io.Writer, format string) error {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	c, err := draw.NewFormattedCanvas(f.Width, f.Height, format)
	if err != nil {
		return errors.InvalidInputf("unsupported figure format %q", format)
	}
	f.paint(draw.New(c))
	if _, err := c.WriteTo(w); err != nil {
		return errors.RenderError("failed to encode "+format+" figure", err)
	}
	return nil
}

// Bytes is Encode into memory
func (f *Figure) Bytes(format string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Encode(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the figure to path, choosing the format from the extension.
func (f *Figure) Save(path string) error {
	ext := filepath.Ext(path)
	if ext == "" {
		return errors.InvalidInputf("output path %q has no extension", path)
	}
	data, err := f.Bytes(ext)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
