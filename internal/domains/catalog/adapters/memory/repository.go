package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Ledger     = (*Repository)(nil)
)

// Repository is an in-memory catalog adapter. It doubles as the stock ledger:
// movements are applied under a single lock so a debit batch is atomic.
type Repository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

func NewRepository() *Repository {
	return &Repository{products: map[int64]*domain.Product{}}
}

func (r *Repository) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *product
	return &clone, nil
}

func (r *Repository) List(_ context.Context) ([]*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*domain.Product, 0, len(r.products))
	for _, product := range r.products {
		clone := *product
		list = append(list, &clone)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *Repository) Save(_ context.Context, product *domain.Product) (*domain.Product, error) {
	if product == nil {
		return nil, errors.New("product is nil")
	}
	clone := *product
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
	r.products[clone.ID] = &clone
	stored := clone
	return &stored, nil
}

func (r *Repository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// Debit applies every movement or none. The first unavailable product or
// stock shortfall aborts the batch before any product has been mutated.
// Movements for the same product are summed so a batch cannot pass the
// check line by line and still overdraw the product.
func (r *Repository) Debit(_ context.Context, movements []domain.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	required := make(map[int64]decimal.Decimal, len(movements))
	for _, m := range movements {
		product, ok := r.products[m.ProductID]
		if !ok {
			return &domain.ProductUnavailableError{ProductID: m.ProductID}
		}
		total := required[m.ProductID].Add(m.Quantity)
		if product.Stock.LessThan(total) {
			return &domain.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: total,
			}
		}
		required[m.ProductID] = total
	}
	for _, m := range movements {
		r.products[m.ProductID].Stock = r.products[m.ProductID].Stock.Sub(m.Quantity)
	}
	return nil
}

// Credit restores stock, skipping products deleted since the debit.
func (r *Repository) Credit(_ context.Context, movements []domain.StockMovement) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var skipped []int64
	for _, m := range movements {
		product, ok := r.products[m.ProductID]
		if !ok {
			skipped = append(skipped, m.ProductID)
			continue
		}
		product.Credit(m.Quantity)
	}
	return skipped, nil
}
