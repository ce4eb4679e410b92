package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront/backoffice/internal/domains/orders/domain"
)

// CheckoutInput identifies the cart to convert into an order.
type CheckoutInput struct {
	UserID  string
	Remarks string
	// IdempotencyKey deduplicates re-submitted checkouts when the durable
	// orchestrator is in use. Optional.
	IdempotencyKey string
}

// StatusSummary aggregates orders per status for the back-office dashboard.
type StatusSummary struct {
	Orders        int
	TotalQuantity decimal.Decimal
}

// Service exposes the order engine use cases to adapters.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error)
	Advance(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error)
	Cancel(ctx context.Context, orderID int64) (*domain.Order, error)
	GetByID(ctx context.Context, orderID int64) (*domain.Order, error)
	List(ctx context.Context) ([]*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Order, error)
	Summary(ctx context.Context) (map[domain.Status]StatusSummary, error)
}
