package ports

import (
	"context"

	"github.com/storefront/backoffice/internal/domains/orders/domain"
)

// WorkflowOrchestrator exposes durable workflow operations required by the
// orders bounded context.
type WorkflowOrchestrator interface {
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error)
}
