package render

import (
	"image/color"
	"io"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"psychoplot/domain/significance"
	"psychoplot/domain/table"
	"psychoplot/internal"
	"psychoplot/internal/errors"
)

// ColorBarLabel names the heatmap color scale
const ColorBarLabel = "Correlation Coefficient"

// paletteSize is the number of discrete colors sampled from the ramp
const paletteSize = 1024

type heatmapOptions struct {
	cellSize vg.Length
	fontSize vg.Length
	report   io.Writer
	logger   *internal.Logger
}

// HeatmapOption customises an AnnotatedCorrelationHeatmap
type HeatmapOption func(*heatmapOptions)

// WithReport writes the correction diagnostics to w at construction
func WithReport(w io.Writer) HeatmapOption {
	return func(o *heatmapOptions) { o.report = w }
}

// WithHeatmapLogger sets the logger
func WithHeatmapLogger(l *internal.Logger) HeatmapOption {
	return func(o *heatmapOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFontSize sets annotation and tick label size
func WithFontSize(l vg.Length) HeatmapOption {
	return func(o *heatmapOptions) { o.fontSize = l }
}

// AnnotatedCorrelationHeatmap is a coefficient heatmap whose cells carry the
// coefficient plus significance stars. Annotations are derived on construction.
type AnnotatedCorrelationHeatmap struct {
	coef        *table.LabeledMatrix
	p           *table.LabeledMatrix
	correction  significance.Correction
	annotations *significance.Annotations
	opts        heatmapOptions
}

// NewAnnotatedCorrelationHeatmap validates the inputs, corrects the
// thresholds for the number of cells in p and annotates every cell.
// coef and p may be *table.LabeledMatrix, mat.Matrix or [][]float64.
// levels is copied, never modified.
func NewAnnotatedCorrelationHeatmap(coef, p any, levels []float64, opts ...HeatmapOption) (*AnnotatedCorrelationHeatmap, error) {
	o := heatmapOptions{
		cellSize: 1.1 * vg.Inch,
		fontSize: vg.Points(13),
		logger:   internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	cm, err := table.AsLabeledMatrix("corr_matrix", coef)
	if err != nil {
		return nil, err
	}
	pm, err := table.AsLabeledMatrix("p_matrix", p)
	if err != nil {
		return nil, err
	}
	if err := significance.ValidateLevels(levels); err != nil {
		return nil, err
	}

	correction, err := significance.Correct(levels, pm.Len())
	if err != nil {
		return nil, err
	}
	o.logger.Info("[Heatmap] %d comparisons, alpha %g corrected to %g, thresholds %v",
		correction.NumCompared, correction.Alpha, correction.Corrected, correction.Retained)
	if o.report != nil {
		if err := correction.Report(o.report); err != nil {
			return nil, errors.Wrap(err, "failed to write correction report")
		}
	}

	ann, err := significance.Annotate(cm, pm, correction.Retained)
	if err != nil {
		return nil, err
	}

	return &AnnotatedCorrelationHeatmap{
		coef:        cm,
		p:           pm,
		correction:  correction,
		annotations: ann,
		opts:        o,
	}, nil
}

// Correction returns the threshold correction
func (h *AnnotatedCorrelationHeatmap) Correction() significance.Correction {
	return h.correction
}

// Annotations returns the cell labels
func (h *AnnotatedCorrelationHeatmap) Annotations() *significance.Annotations {
	return h.annotations
}

// Limit is the symmetric color scale bound: the largest absolute finite
// coefficient, or 1 when there is none.
func (h *AnnotatedCorrelationHeatmap) Limit() float64 {
	vals := h.coef.Finite()
	lo, err := stats.Min(vals)
	if err != nil {
		return 1
	}
	hi, err := stats.Max(vals)
	if err != nil {
		return 1
	}
	limit := math.Max(math.Abs(lo), math.Abs(hi))
	if limit == 0 {
		return 1
	}
	return limit
}

// Plots builds the heatmap plot and its color bar plot.
func (h *AnnotatedCorrelationHeatmap) Plots() (*plot.Plot, *plot.Plot, error) {
	rows, cols := h.coef.Dims()
	limit := h.Limit()

	ramp, err := NewColorRamp(DivergingStops...)
	if err != nil {
		return nil, nil, err
	}
	ramp.SetMin(-limit)
	ramp.SetMax(limit)

	hm := plotter.NewHeatMap(matrixGrid{m: h.coef}, ramp.Palette(paletteSize))
	hm.Min = -limit
	hm.Max = limit

	p := plot.New()
	p.Add(hm)
	p.Add(cellBorders{rows: rows, cols: cols, style: draw.LineStyle{Color: color.White, Width: vg.Points(0.5)}})

	labels, err := h.labels(rows, cols)
	if err != nil {
		return nil, nil, errors.RenderError("failed to place annotations", err)
	}
	if labels != nil {
		p.Add(labels)
	}

	xticks := make([]plot.Tick, cols)
	for j, name := range h.coef.ColLabels {
		xticks[j] = plot.Tick{Value: float64(j), Label: name}
	}
	yticks := make([]plot.Tick, rows)
	for i, name := range h.coef.RowLabels {
		yticks[i] = plot.Tick{Value: float64(rows - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xticks)
	p.Y.Tick.Marker = plot.ConstantTicks(yticks)
	// rotated labels hang below the axis so the cells cannot cover them
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop
	p.X.Tick.Label.Font.Size = h.opts.fontSize
	p.Y.Tick.Label.Font.Size = h.opts.fontSize
	p.X.Tick.LineStyle.Width = 0
	p.Y.Tick.LineStyle.Width = 0
	p.X.LineStyle.Width = 0
	p.Y.LineStyle.Width = 0
	p.X.Padding = 2 * vg.Millimeter
	p.Y.Padding = 0

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: ramp, Vertical: true, Colors: 256})
	bar.HideX()
	bar.X.Padding = 0
	bar.Y.Padding = 0
	bar.Y.Label.Text = ColorBarLabel
	bar.Y.Label.TextStyle.Font.Size = h.opts.fontSize
	bar.Y.Tick.Label.Font.Size = h.opts.fontSize * 0.8

	return p, bar, nil
}

func (h *AnnotatedCorrelationHeatmap) labels(rows, cols int) (*plotter.Labels, error) {
	var xyl plotter.XYLabels
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			text := h.annotations.Get(i, j)
			if text == "" {
				continue
			}
			xyl.XYs = append(xyl.XYs, plotter.XY{X: float64(j), Y: float64(rows - 1 - i)})
			xyl.Labels = append(xyl.Labels, text)
		}
	}
	if len(xyl.Labels) == 0 {
		return nil, nil
	}

	l, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, err
	}
	for k := range l.TextStyle {
		l.TextStyle[k].XAlign = draw.XCenter
		l.TextStyle[k].YAlign = draw.YCenter
		l.TextStyle[k].Font.Size = h.opts.fontSize
		l.TextStyle[k].Color = color.Black
	}
	return l, nil
}

// Build lays out heatmap and color bar into a Figure.
func (h *AnnotatedCorrelationHeatmap) Build() (*Figure, error) {
	p, bar, err := h.Plots()
	if err != nil {
		return nil, err
	}

	rows, cols := h.coef.Dims()
	cell := h.opts.cellSize
	width := vg.Length(cols)*cell + heatmapLabelMargin + colorBarWidth
	height := vg.Length(rows)*cell + heatmapLabelMargin

	return &Figure{
		Width:  width,
		Height: height,
		paint: func(dc draw.Canvas) {
			dc.SetColor(color.White)
			dc.Fill(dc.Rectangle.Path())
			heatArea, barArea := heatmapAreas(dc, p, bar)
			p.Draw(heatArea)
			bar.Draw(barArea)
		},
	}, nil
}

const (
	heatmapLabelMargin = 1.4 * vg.Inch
	colorBarWidth      = 1.3 * vg.Inch
)

// heatmapAreas splits dc into the heatmap and the color bar strip on its
// right. The strip is stretched so the bar's data area spans exactly the
// cells; the tick labels at the bar ends would otherwise shrink it.
func heatmapAreas(dc draw.Canvas, heat, bar *plot.Plot) (draw.Canvas, draw.Canvas) {
	heatArea := draw.Crop(dc, 0, -colorBarWidth, 0, 0)
	cells := heat.DataCanvas(heatArea)

	barArea := draw.Crop(dc, dc.Max.X-dc.Min.X-colorBarWidth+2*vg.Millimeter, 0, 0, 0)
	barArea.Min.Y, barArea.Max.Y = cells.Min.Y, cells.Max.Y
	data := bar.DataCanvas(barArea)
	barArea.Min.Y -= data.Min.Y - cells.Min.Y
	barArea.Max.Y += cells.Max.Y - data.Max.Y
	return heatArea, barArea
}

// matrixGrid adapts a labeled matrix to plotter.GridXYZ. Row 0 of the matrix
// is drawn at the top.
type matrixGrid struct {
	m *table.LabeledMatrix
}

func (g matrixGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g matrixGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g matrixGrid) X(c int) float64 { return float64(c) }

func (g matrixGrid) Y(r int) float64 { return float64(r) }

// cellBorders strokes the lines between heatmap cells.
type cellBorders struct {
	rows  int
	cols  int
	style draw.LineStyle
}

func (b cellBorders) Plot(c draw.Canvas, p *plot.Plot) {
	trX, trY := p.Transforms(&c)
	x0, x1 := trX(-0.5), trX(float64(b.cols)-0.5)
	y0, y1 := trY(-0.5), trY(float64(b.rows)-0.5)
	for j := 0; j <= b.cols; j++ {
		x := trX(float64(j) - 0.5)
		c.StrokeLine2(b.style, x, y0, x, y1)
	}
	for i := 0; i <= b.rows; i++ {
		y := trY(float64(i) - 0.5)
		c.StrokeLine2(b.style, x0, y, x1, y)
	}
}
