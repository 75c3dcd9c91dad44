package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot/vg"

	"psychoplot/adapters/excel"
	"psychoplot/adapters/render"
	"psychoplot/domain/irt"
	"psychoplot/domain/significance"
	"psychoplot/domain/table"
	"psychoplot/internal"
	"psychoplot/internal/config"
	"psychoplot/internal/errors"
)

// FigureKind names what a RenderResult contains
type FigureKind string

const (
	KindCurves  FigureKind = "item_curves"
	KindHeatmap FigureKind = "heatmap"
)

// Source is a table input: a file on disk, or an open reader plus the file
// name used to pick the format.
type Source struct {
	Path   string
	Reader io.Reader
}

// FromPath is a Source read from disk
func FromPath(path string) Source {
	return Source{Path: path}
}

// FromReader is a Source read from r; name only decides csv or xlsx
func FromReader(name string, r io.Reader) Source {
	return Source{Path: name, Reader: r}
}

// CurveRequest defines the inputs for an item characteristic curve grid
type CurveRequest struct {
	Table    Source
	CellSize float64 // panel edge in inches, 0 means the configured size
	Out      string  // optional, defaults to <output dir>/item_curves-<id>.<format>
}

// HeatmapRequest defines the inputs for an annotated correlation heatmap
type HeatmapRequest struct {
	Coef      Source
	P         Source
	Levels    []float64 // nil means the configured levels
	Transpose *bool     // nil means the configured default
	FontSize  float64   // points, 0 means the configured size
	Out       string
}

// RenderResult describes one rendered figure
type RenderResult struct {
	ID         uuid.UUID                `json:"id"`
	Kind       FigureKind               `json:"kind"`
	Path       string                   `json:"path,omitempty"`
	Correction *significance.Correction `json:"correction,omitempty"`
	Figure     *render.Figure           `json:"-"`
}

// PainterService loads tables and turns them into figures
type PainterService struct {
	cfg    *config.Config
	report io.Writer
	logger *internal.Logger
}

// NewPainterService creates a painter service. report receives the
// significance correction diagnostics and may be nil.
func NewPainterService(cfg *config.Config, report io.Writer, logger *internal.Logger) *PainterService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PainterService{cfg: cfg, report: report, logger: logger}
}

func (s *PainterService) reader(src Source, transpose bool) *excel.DataReader {
	rc := excel.ReaderConfig{Sheet: s.cfg.Input.XLSXSheet, Transpose: transpose}
	return excel.NewDataReader(src.Path, excel.WithConfig(rc), excel.WithLogger(s.logger))
}

// BuildCurves loads the item response table and lays out the curve grid.
func (s *PainterService) BuildCurves(ctx context.Context, req CurveRequest) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	frame, err := s.loadFrame(req.Table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load item response table %s", req.Table.Path)
	}
	rt, err := irt.FromFrame(frame)
	if err != nil {
		return nil, err
	}

	opts := []render.CurveOption{render.WithCurveLogger(s.logger)}
	if size := firstPositive(req.CellSize, s.cfg.Render.CellSize); size > 0 {
		opts = append(opts, render.WithCellSize(vg.Length(size)*vg.Inch))
	}
	renderer, err := render.NewCurveGridRenderer(rt, opts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fig, err := renderer.Build()
	if err != nil {
		return nil, err
	}
	return &RenderResult{ID: uuid.New(), Kind: KindCurves, Figure: fig}, nil
}

// BuildHeatmap loads both matrices and lays out the annotated heatmap.
func (s *PainterService) BuildHeatmap(ctx context.Context, req HeatmapRequest) (*RenderResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transpose := s.cfg.Input.Transpose
	if req.Transpose != nil {
		transpose = *req.Transpose
	}
	levels := req.Levels
	if levels == nil {
		levels = s.cfg.Heatmap.Levels
	}

	coef, err := s.loadMatrix(req.Coef, transpose)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load coefficient matrix %s", req.Coef.Path)
	}
	p, err := s.loadMatrix(req.P, transpose)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load p-value matrix %s", req.P.Path)
	}

	opts := []render.HeatmapOption{render.WithHeatmapLogger(s.logger)}
	if s.report != nil {
		opts = append(opts, render.WithReport(s.report))
	}
	if size := firstPositive(req.FontSize, s.cfg.Heatmap.FontSize); size > 0 {
		opts = append(opts, render.WithFontSize(vg.Points(size)))
	}
	hm, err := render.NewAnnotatedCorrelationHeatmap(coef, p, levels, opts...)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fig, err := hm.Build()
	if err != nil {
		return nil, err
	}

	correction := hm.Correction()
	return &RenderResult{ID: uuid.New(), Kind: KindHeatmap, Figure: fig, Correction: &correction}, nil
}

func firstPositive(vals ...float64) float64 {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func (s *PainterService) loadFrame(src Source) (*table.Frame, error) {
	r := s.reader(src, false)
	if src.Reader != nil {
		return r.ReadFrameFrom(src.Reader)
	}
	return r.ReadFrame()
}

func (s *PainterService) loadMatrix(src Source, transpose bool) (*table.LabeledMatrix, error) {
	r := s.reader(src, transpose)
	if src.Reader != nil {
		return r.ReadMatrixFrom(src.Reader)
	}
	return r.ReadMatrix()
}

// RenderCurves builds the curve grid and saves it
func (s *PainterService) RenderCurves(ctx context.Context, req CurveRequest) (*RenderResult, error) {
	res, err := s.BuildCurves(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.save(res, req.Out); err != nil {
		return nil, err
	}
	return res, nil
}

// RenderHeatmap builds the annotated heatmap and saves it
func (s *PainterService) RenderHeatmap(ctx context.Context, req HeatmapRequest) (*RenderResult, error) {
	res, err := s.BuildHeatmap(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.save(res, req.Out); err != nil {
		return nil, err
	}
	return res, nil
}

// RenderAll renders both figures concurrently. The first failure cancels the
// other; results come back curves first.
func (s *PainterService) RenderAll(ctx context.Context, curves CurveRequest, heatmap HeatmapRequest) ([]*RenderResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	results := make([]*RenderResult, 2)

	g.Go(func() error {
		res, err := s.RenderCurves(gctx, curves)
		results[0] = res
		return err
	})
	g.Go(func() error {
		res, err := s.RenderHeatmap(gctx, heatmap)
		results[1] = res
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *PainterService) save(res *RenderResult, out string) error {
	if out == "" {
		out = filepath.Join(s.cfg.Render.OutputDir, fmt.Sprintf("%s-%s.%s", res.Kind, res.ID.String()[:8], s.cfg.Render.Format))
	}
	if err := res.Figure.Save(out); err != nil {
		return err
	}
	res.Path = out
	s.logger.Info("[Painter] wrote %s figure to %s", res.Kind, out)
	return nil
}
