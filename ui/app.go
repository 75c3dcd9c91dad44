package ui

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"psychoplot/app"
	"psychoplot/internal"
	"psychoplot/internal/errors"
	"psychoplot/ports"
)

//go:embed templates/*.html
var embeddedFiles embed.FS

// maxUploadBytes caps the multipart form held in memory
const maxUploadBytes = 32 << 20

// App is the figure viewer: upload tables, render them and browse the results
type App struct {
	router    *chi.Mux
	painter   *app.PainterService
	store     ports.FigureStore
	templates *template.Template
	logger    *internal.Logger
}

// Config holds UI application configuration
type Config struct {
	Port string
}

// NewApp creates a new UI application
func NewApp(painter *app.PainterService, store ports.FigureStore, logger *internal.Logger) (*App, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	templates, err := template.ParseFS(embeddedFiles, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}

	a := &App{
		router:    chi.NewRouter(),
		painter:   painter,
		store:     store,
		templates: templates,
		logger:    logger,
	}
	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

func (a *App) setupMiddleware() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
}

func (a *App) setupRoutes() {
	a.router.Get("/", a.handleIndex)
	a.router.Get("/healthz", a.handleHealth)
	a.router.Get("/figures/{id}", a.handleFigure)

	a.router.Route("/api", func(r chi.Router) {
		r.Post("/curves", a.handleCurves)
		r.Post("/heatmap", a.handleHeatmap)
	})
}

// Handler exposes the router
func (a *App) Handler() http.Handler {
	return a.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (a *App) Start(ctx context.Context, cfg Config) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("[UI] serving figures on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, "figure viewer stopped")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.logger.Info("[UI] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
