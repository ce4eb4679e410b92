package ports

import (
	"context"
	"errors"

	"github.com/storefront/backoffice/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository persists catalog products.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	List(ctx context.Context) ([]*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
}

// Ledger applies stock movements against the catalog. Debit is all-or-nothing:
// either every movement is applied or none is, and stock never goes negative.
// Credit restores stock and reports movements skipped because the product has
// been deleted since the debit.
type Ledger interface {
	Debit(ctx context.Context, movements []domain.StockMovement) error
	Credit(ctx context.Context, movements []domain.StockMovement) (skipped []int64, err error)
}
