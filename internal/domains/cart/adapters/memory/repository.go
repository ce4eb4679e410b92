package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/storefront/backoffice/internal/domains/cart/domain"
	"github.com/storefront/backoffice/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory cart adapter.
type Repository struct {
	mu     sync.RWMutex
	lines  map[int64]*domain.Line
	nextID int64
}

func NewRepository() *Repository {
	return &Repository{lines: map[int64]*domain.Line{}}
}

func (r *Repository) LinesForUser(_ context.Context, userID string) ([]domain.Line, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var list []domain.Line
	for _, line := range r.lines {
		if line.UserID == userID {
			list = append(list, *line)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) Add(_ context.Context, line *domain.Line) (*domain.Line, error) {
	if line == nil {
		return nil, errors.New("cart line is nil")
	}
	clone := *line
	if err := clone.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if clone.ID == 0 {
		r.nextID++
		clone.ID = r.nextID
	} else if clone.ID > r.nextID {
		r.nextID = clone.ID
	}
	r.lines[clone.ID] = &clone
	stored := clone
	return &stored, nil
}

func (r *Repository) Remove(_ context.Context, userID string, lineID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	line, ok := r.lines[lineID]
	if !ok || line.UserID != userID {
		return ports.ErrNotFound
	}
	delete(r.lines, lineID)
	return nil
}

func (r *Repository) RemoveLines(_ context.Context, userID string, lineIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range lineIDs {
		if line, ok := r.lines[id]; ok && line.UserID == userID {
			delete(r.lines, id)
		}
	}
	return nil
}
