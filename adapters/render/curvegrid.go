package render

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"psychoplot/domain/irt"
	"psychoplot/internal"
	"psychoplot/internal/errors"
)

// LegendTitle heads the figure-level category legend
const LegendTitle = "Response Category"

type curveOptions struct {
	cellSize     vg.Length
	legendMargin vg.Length
	logger       *internal.Logger
}

// CurveOption customises a CurveGridRenderer
type CurveOption func(*curveOptions)

// WithCellSize sets the edge length of one subplot
func WithCellSize(l vg.Length) CurveOption {
	return func(o *curveOptions) { o.cellSize = l }
}

// WithCurveLogger sets the logger
func WithCurveLogger(l *internal.Logger) CurveOption {
	return func(o *curveOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// CurveGridRenderer draws one item characteristic curve panel per item in a
// ten column grid with a single shared legend.
type CurveGridRenderer struct {
	table  *irt.ResponseTable
	items  []string
	layout irt.GridLayout
	opts   curveOptions
}

// NewCurveGridRenderer validates the table and computes the grid layout.
func NewCurveGridRenderer(t *irt.ResponseTable, opts ...CurveOption) (*CurveGridRenderer, error) {
	if t == nil {
		return nil, errors.InvalidInput("icc data must be an item response table")
	}
	items := t.Items()
	if len(items) == 0 {
		return nil, errors.InvalidInput("item response table has no items")
	}

	o := curveOptions{
		cellSize:     1.5 * vg.Inch,
		legendMargin: 1.4 * vg.Inch,
		logger:       internal.DefaultLogger,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &CurveGridRenderer{
		table:  t,
		items:  items,
		layout: irt.Layout(len(items)),
		opts:   o,
	}
	if bad := t.CheckSums(1e-6); len(bad) > 0 {
		o.logger.Warn("[CurveGrid] %d item(s) have category probabilities not summing to 1, first: %s", len(bad), bad[0])
	}
	return r, nil
}

// Layout returns the grid geometry
func (r *CurveGridRenderer) Layout() irt.GridLayout {
	return r.layout
}

// Grid builds one panel per item and removes the unused trailing slots.
func (r *CurveGridRenderer) Grid() (*SurfaceGrid, error) {
	grid := NewSurfaceGrid(r.layout.Rows, r.layout.Cols)

	for idx, item := range r.items {
		row, col := r.layout.Slot(idx)
		if err := r.drawItem(grid.Surface(row, col), item); err != nil {
			return nil, errors.Wrapf(err, "failed to draw %s", item)
		}
	}
	for _, idx := range r.layout.Unused() {
		grid.Remove(r.layout.Slot(idx))
	}
	return grid, nil
}

func (r *CurveGridRenderer) drawItem(p *plot.Plot, item string) error {
	p.BackgroundColor = gridBackground
	p.Title.Text = item
	p.Title.TextStyle.Font.Size = vg.Points(10)
	p.X.Label.Text = ""
	p.Y.Label.Text = ""
	p.X.Tick.Label.Font.Size = vg.Points(6)
	p.Y.Tick.Label.Font.Size = vg.Points(6)
	p.X.LineStyle.Width = 0
	p.Y.LineStyle.Width = 0

	g := plotter.NewGrid()
	g.Vertical.Color = color.White
	g.Horizontal.Color = color.White
	p.Add(g)

	for k, c := range r.table.Curves(item) {
		line, err := plotter.NewLine(meanByTheta(c.Theta, c.P))
		if err != nil {
			return errors.RenderError("bad curve data for "+c.Category, err)
		}
		line.Color = CategoryColor(k)
		line.Width = vg.Points(1.5)
		p.Add(line)
	}

	// fixed after Add, which widens the axes to the data
	p.Y.Min = 0
	p.Y.Max = 1
	return nil
}

// meanByTheta drops NaN points, averages the probabilities of repeated theta
// values and returns the points in theta order.
func meanByTheta(theta, p []float64) plotter.XYs {
	type acc struct {
		sum float64
		n   int
	}
	byTheta := make(map[float64]*acc, len(theta))
	for i := range theta {
		if math.IsNaN(theta[i]) || math.IsNaN(p[i]) {
			continue
		}
		a, ok := byTheta[theta[i]]
		if !ok {
			a = &acc{}
			byTheta[theta[i]] = a
		}
		a.sum += p[i]
		a.n++
	}

	xys := make(plotter.XYs, 0, len(byTheta))
	for x, a := range byTheta {
		xys = append(xys, plotter.XY{X: x, Y: a.sum / float64(a.n)})
	}
	sort.Slice(xys, func(i, j int) bool { return xys[i].X < xys[j].X })
	return xys
}

// Legend returns the figure-level legend: one entry per category
func (r *CurveGridRenderer) Legend() (plot.Legend, error) {
	leg := plot.NewLegend()
	leg.Top = false
	leg.Left = false
	leg.XOffs = -vg.Millimeter * 3
	leg.YOffs = vg.Millimeter * 3
	leg.TextStyle.Font.Size = vg.Points(9)
	for k, cat := range irt.Categories {
		l, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}})
		if err != nil {
			return leg, err
		}
		l.Color = CategoryColor(k)
		l.Width = vg.Points(2)
		leg.Add(cat, l)
	}
	return leg, nil
}

func legendTitleStyle(leg plot.Legend) draw.TextStyle {
	sty := leg.TextStyle
	sty.Font.Size = vg.Points(10)
	sty.XAlign = draw.XRight
	sty.YAlign = draw.YBottom
	return sty
}

// legendTitleAnchor is the bottom right corner of the title, flush with the
// right edge of the entries and just above the first one. Only the height of
// Legend.Rectangle is usable: its box ignores the offsets and sits on the
// left edge when Left is false.
func legendTitleAnchor(dc draw.Canvas, leg plot.Legend) vg.Point {
	box := leg.Rectangle(dc)
	height := box.Max.Y - box.Min.Y
	return vg.Point{
		X: dc.Max.X + leg.XOffs,
		Y: dc.Min.Y + leg.YOffs + height + vg.Millimeter,
	}
}

// Build lays out the grid and legend into a Figure.
func (r *CurveGridRenderer) Build() (*Figure, error) {
	grid, err := r.Grid()
	if err != nil {
		return nil, err
	}
	leg, err := r.Legend()
	if err != nil {
		return nil, errors.RenderError("failed to build legend", err)
	}

	cell := r.opts.cellSize
	margin := r.opts.legendMargin
	width := vg.Length(r.layout.Cols)*cell + margin
	height := vg.Length(r.layout.Rows) * cell

	r.opts.logger.Info("[CurveGrid] %d items in a %dx%d grid (%d slots removed)",
		len(r.items), r.layout.Rows, r.layout.Cols, len(r.layout.Unused()))

	tiles := draw.Tiles{
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Millimeter,
		PadBottom: vg.Millimeter,
		PadLeft:   vg.Millimeter,
	}

	return &Figure{
		Width:  width,
		Height: height,
		paint: func(dc draw.Canvas) {
			dc.SetColor(color.White)
			dc.Fill(dc.Rectangle.Path())
			grid.Draw(draw.Crop(dc, 0, -margin, 0, 0), tiles)

			leg.Draw(dc)
			dc.FillText(legendTitleStyle(leg), legendTitleAnchor(dc, leg), LegendTitle)
		},
	}, nil
}
