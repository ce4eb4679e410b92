package ports

import (
	"context"
	"errors"

	"github.com/storefront/backoffice/internal/domains/orders/domain"
)

var (
	ErrNotFound = errors.New("order not found")

	// ErrTransitionConflict signals that the order's status changed between
	// the caller's read and the transition attempt.
	ErrTransitionConflict = errors.New("order status changed concurrently")

	// ErrIntegrity classifies persistence-layer constraint violations. The
	// underlying driver error stays joined for diagnostics.
	ErrIntegrity = errors.New("persistence integrity violation")
)

// CheckoutCommand carries the validated order plus the cart lines it consumes.
type CheckoutCommand struct {
	Order       *domain.Order
	CartLineIDs []int64
}

// Repository persists orders. The three mutating operations are units of
// work: each commits fully or not at all, and stock re-verification happens
// inside the same transaction as the order write so concurrent checkouts can
// never drive stock negative.
type Repository interface {
	// Checkout persists the order in status New, debits stock for every
	// line, and clears the consumed cart lines, all atomically. A stock
	// shortfall or vanished product surfaces as the corresponding business
	// error with nothing committed.
	Checkout(ctx context.Context, cmd CheckoutCommand) (*domain.Order, error)

	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)

	// Transition compare-and-swaps the order status from `from` to `to`.
	// A stale `from` yields ErrTransitionConflict and no write.
	Transition(ctx context.Context, id int64, from, to domain.Status) (*domain.Order, error)

	// CancelAndRestock credits back every line's quantity exactly once and
	// sets the order to Cancelled in one unit of work. An already-cancelled
	// order is rejected before any restock. Lines whose product has been
	// deleted are skipped and logged; the cancellation still proceeds.
	CancelAndRestock(ctx context.Context, id int64) (*domain.Order, error)
}
