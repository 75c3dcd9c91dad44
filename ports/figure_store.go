package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StoredFigure is an encoded figure kept for the viewer
type StoredFigure struct {
	ID          uuid.UUID
	Kind        string
	Title       string
	ContentType string
	Data        []byte
	Summary     string // optional markdown shown on the index page
	CreatedAt   time.Time
}

// FigureStore defines the interface for rendered figure storage
type FigureStore interface {
	// SaveFigure stores fig under fig.ID
	SaveFigure(ctx context.Context, fig *StoredFigure) error

	// GetFigure retrieves a figure, or a not found error
	GetFigure(ctx context.Context, id uuid.UUID) (*StoredFigure, error)

	// ListFigures returns every figure, newest first
	ListFigures(ctx context.Context) ([]*StoredFigure, error)
}
