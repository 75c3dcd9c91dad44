package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/google/uuid"

	"psychoplot/app"
	"psychoplot/domain/significance"
	"psychoplot/internal/errors"
	"psychoplot/ports"
)

// figureResponse is returned after a successful render
type figureResponse struct {
	ID         uuid.UUID                `json:"id"`
	Kind       app.FigureKind           `json:"kind"`
	URL        string                   `json:"url"`
	Correction *significance.Correction `json:"correction,omitempty"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIndex lists every stored figure, newest first
func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	figures, err := a.store.ListFigures(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	body := markdown.ToHTML([]byte(indexMarkdown(figures)), newParser(), newRenderer())

	var buf bytes.Buffer
	data := map[string]interface{}{
		"Title": "Figures",
		"Body":  template.HTML(body),
	}
	if err := a.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		a.writeError(w, errors.Wrap(err, "failed to render index"))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func indexMarkdown(figures []*ports.StoredFigure) string {
	var sb strings.Builder
	sb.WriteString("# Figures\n\n")
	if len(figures) == 0 {
		sb.WriteString("Nothing rendered yet. POST a table to `/api/curves` or a coefficient and p-value matrix pair to `/api/heatmap`.\n")
		return sb.String()
	}
	for _, fig := range figures {
		fmt.Fprintf(&sb, "## %s\n\n", escapeMarkdown(fig.Title))
		fmt.Fprintf(&sb, "*%s, %s*\n\n", fig.Kind, fig.CreatedAt.Format(time.RFC3339))
		fmt.Fprintf(&sb, "![%s](/figures/%s)\n\n", fig.Kind, fig.ID)
		if fig.Summary != "" {
			sb.WriteString(fig.Summary)
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}

// escapeMarkdown makes user supplied text such as upload file names render
// literally: markup characters are backslash escaped and line breaks folded.
func escapeMarkdown(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\n' || c == '\r':
			c = ' '
		case bytes.IndexByte(parser.EscapeChars, c) >= 0:
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func newParser() *parser.Parser {
	return parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
}

func newRenderer() *mdhtml.Renderer {
	return mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags | mdhtml.SkipHTML})
}

// handleFigure serves the encoded image of one figure
func (a *App) handleFigure(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, errors.InvalidInputf("bad figure id %q", chi.URLParam(r, "id")))
		return
	}
	fig, err := a.store.GetFigure(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", fig.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(fig.Data)))
	w.Write(fig.Data)
}

// handleCurves renders an item response table uploaded as the "table" field
func (a *App) handleCurves(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.writeError(w, errors.InvalidInput("expected a multipart form with a table file"))
		return
	}

	file, header, err := r.FormFile("table")
	if err != nil {
		a.writeError(w, errors.InvalidInput("missing table file"))
		return
	}
	defer file.Close()

	res, err := a.painter.BuildCurves(r.Context(), app.CurveRequest{Table: app.FromReader(header.Filename, file)})
	if err != nil {
		a.writeError(w, err)
		return
	}
	a.storeAndRespond(w, r, res, "Item characteristic curves: "+header.Filename, "")
}

// handleHeatmap renders the "coef" and "p" matrix uploads. Optional fields:
// levels ("0.05,0.01,0.001") and transpose (bool).
func (a *App) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		a.writeError(w, errors.InvalidInput("expected a multipart form with coef and p files"))
		return
	}

	req := app.HeatmapRequest{}
	if raw := r.FormValue("levels"); raw != "" {
		levels, err := significance.ParseLevels(raw)
		if err != nil {
			a.writeError(w, err)
			return
		}
		req.Levels = levels
	}
	if raw := r.FormValue("transpose"); raw != "" {
		transpose, err := strconv.ParseBool(raw)
		if err != nil {
			a.writeError(w, errors.InvalidInputf("transpose must be a boolean, got %q", raw))
			return
		}
		req.Transpose = &transpose
	}

	coef, coefName, err := formFile(r, "coef")
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer coef.Close()
	p, pName, err := formFile(r, "p")
	if err != nil {
		a.writeError(w, err)
		return
	}
	defer p.Close()

	req.Coef = app.FromReader(coefName, coef)
	req.P = app.FromReader(pName, p)

	res, err := a.painter.BuildHeatmap(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	summary := ""
	if res.Correction != nil {
		summary = "```\n" + res.Correction.String() + "\n```"
	}
	a.storeAndRespond(w, r, res, "Correlation heatmap: "+coefName, summary)
}

func formFile(r *http.Request, field string) (multipart.File, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", errors.InvalidInputf("missing %s file", field)
	}
	return file, header.Filename, nil
}

func (a *App) storeAndRespond(w http.ResponseWriter, r *http.Request, res *app.RenderResult, title, summary string) {
	data, err := res.Figure.Bytes("png")
	if err != nil {
		a.writeError(w, err)
		return
	}

	fig := &ports.StoredFigure{
		ID:          res.ID,
		Kind:        string(res.Kind),
		Title:       title,
		ContentType: "image/png",
		Data:        data,
		Summary:     summary,
		CreatedAt:   time.Now(),
	}
	if err := a.store.SaveFigure(r.Context(), fig); err != nil {
		a.writeError(w, err)
		return
	}

	a.logger.Info("[UI] stored %s figure %s (%d bytes)", res.Kind, res.ID, len(data))
	writeJSON(w, http.StatusCreated, figureResponse{
		ID:         res.ID,
		Kind:       res.Kind,
		URL:        "/figures/" + res.ID.String(),
		Correction: res.Correction,
	})
}

func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.CodeNotFound:
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("[UI] request failed: %v", err)
	} else {
		a.logger.Debug("[UI] rejected request: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": errors.GetCode(err)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
