// Package figstore keeps rendered figures in process memory.
package figstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"psychoplot/internal/errors"
	"psychoplot/ports"
)

// MemoryStore implements ports.FigureStore. Contents are lost on exit.
type MemoryStore struct {
	mu      sync.RWMutex
	figures map[uuid.UUID]*ports.StoredFigure
}

var _ ports.FigureStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{figures: make(map[uuid.UUID]*ports.StoredFigure)}
}

func (s *MemoryStore) SaveFigure(ctx context.Context, fig *ports.StoredFigure) error {
	if fig == nil || fig.ID == uuid.Nil {
		return errors.InvalidInput("figure needs an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.figures[fig.ID] = fig
	return nil
}

func (s *MemoryStore) GetFigure(ctx context.Context, id uuid.UUID) (*ports.StoredFigure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fig, ok := s.figures[id]
	if !ok {
		return nil, errors.NotFound("figure " + id.String())
	}
	return fig, nil
}

func (s *MemoryStore) ListFigures(ctx context.Context) ([]*ports.StoredFigure, error) {
	s.mu.RLock()
	out := make([]*ports.StoredFigure, 0, len(s.figures))
	for _, fig := range s.figures {
		out = append(out, fig)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
