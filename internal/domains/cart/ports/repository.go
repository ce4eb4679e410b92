package ports

import (
	"context"
	"errors"

	"github.com/storefront/backoffice/internal/domains/cart/domain"
)

var ErrNotFound = errors.New("cart line not found")

// Repository persists pending cart lines per user.
type Repository interface {
	LinesForUser(ctx context.Context, userID string) ([]domain.Line, error)
	Add(ctx context.Context, line *domain.Line) (*domain.Line, error)
	Remove(ctx context.Context, userID string, lineID int64) error
	// RemoveLines clears the given lines after checkout. Missing lines are
	// ignored so a replayed checkout does not fail on an already-cleared cart.
	RemoveLines(ctx context.Context, userID string, lineIDs []int64) error
}
