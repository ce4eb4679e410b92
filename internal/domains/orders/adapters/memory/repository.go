package memory

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	cartports "github.com/storefront/backoffice/internal/domains/cart/ports"
	catalogports "github.com/storefront/backoffice/internal/domains/catalog/ports"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter. A single mutex
// serializes checkout, transition, and cancellation so each behaves as one
// unit of work: stock is debited through the ledger only after the whole
// batch is known to fit, and two racing status writes cannot both win.
type Repository struct {
	mu      sync.Mutex
	orders  map[int64]*domain.Order
	nextID  int64
	lineID  int64
	catalog catalogports.Repository
	ledger  catalogports.Ledger
	carts   cartports.Repository
}

func NewRepository(catalog catalogports.Repository, ledger catalogports.Ledger, carts cartports.Repository) *Repository {
	return &Repository{
		orders:  map[int64]*domain.Order{},
		catalog: catalog,
		ledger:  ledger,
		carts:   carts,
	}
}

func (r *Repository) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*domain.Order, error) {
	if cmd.Order == nil {
		return nil, errors.New("order is nil")
	}
	clone := cloneOrder(cmd.Order)
	if err := clone.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Commit-time stock verification; the ledger debit is all-or-nothing.
	if err := r.ledger.Debit(ctx, clone.StockMovements()); err != nil {
		return nil, err
	}
	// The cart clear runs before the order insert. A failed clear credits
	// the debit back so nothing of the checkout remains.
	if err := r.carts.RemoveLines(ctx, clone.UserID, cmd.CartLineIDs); err != nil {
		if _, creditErr := r.ledger.Credit(ctx, clone.StockMovements()); creditErr != nil {
			return nil, errors.Join(err, creditErr)
		}
		return nil, err
	}
	r.nextID++
	clone.ID = r.nextID
	for i := range clone.Lines {
		r.lineID++
		clone.Lines[i].ID = r.lineID
		clone.Lines[i].OrderID = clone.ID
		clone.Lines[i].Product = nil
	}
	r.orders[clone.ID] = clone
	return r.hydrate(ctx, clone), nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	order, ok := r.orders[id]
	var clone *domain.Order
	if ok {
		clone = cloneOrder(order)
	}
	r.mu.Unlock()
	if !ok {
		return nil, ports.ErrNotFound
	}
	return r.hydrate(ctx, clone), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, func(*domain.Order) bool { return true })
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.list(ctx, func(o *domain.Order) bool { return o.UserID == userID })
}

func (r *Repository) Transition(ctx context.Context, id int64, from, to domain.Status) (*domain.Order, error) {
	r.mu.Lock()
	order, ok := r.orders[id]
	if !ok {
		r.mu.Unlock()
		return nil, ports.ErrNotFound
	}
	if order.Status != from {
		r.mu.Unlock()
		return nil, ports.ErrTransitionConflict
	}
	guard := cloneOrder(order)
	if err := guard.Advance(to); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	order.Status = to
	clone := cloneOrder(order)
	r.mu.Unlock()
	return r.hydrate(ctx, clone), nil
}

func (r *Repository) CancelAndRestock(ctx context.Context, id int64) (*domain.Order, error) {
	r.mu.Lock()
	order, ok := r.orders[id]
	if !ok {
		r.mu.Unlock()
		return nil, ports.ErrNotFound
	}
	if order.Status == domain.StatusCancelled {
		r.mu.Unlock()
		return nil, &domain.AlreadyCancelledError{OrderID: id}
	}
	skipped, err := r.ledger.Credit(ctx, order.StockMovements())
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	order.Status = domain.StatusCancelled
	clone := cloneOrder(order)
	r.mu.Unlock()

	if len(skipped) > 0 {
		slog.Warn("restock skipped for deleted products",
			slog.Int64("order.id", id), slog.Any("product.ids", skipped))
	}
	return r.hydrate(ctx, clone), nil
}

func (r *Repository) list(ctx context.Context, match func(*domain.Order) bool) ([]*domain.Order, error) {
	r.mu.Lock()
	clones := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if match(order) {
			clones = append(clones, cloneOrder(order))
		}
	}
	r.mu.Unlock()
	sort.Slice(clones, func(i, j int) bool { return clones[i].ID < clones[j].ID })
	for i, clone := range clones {
		clones[i] = r.hydrate(ctx, clone)
	}
	return clones, nil
}

// hydrate attaches the current catalog row to each line so values reflect
// the product's present price. Deleted products stay nil.
func (r *Repository) hydrate(ctx context.Context, order *domain.Order) *domain.Order {
	for i := range order.Lines {
		product, err := r.catalog.GetByID(ctx, order.Lines[i].ProductID)
		if err != nil {
			order.Lines[i].Product = nil
			continue
		}
		order.Lines[i].Product = product
	}
	return order
}

func cloneOrder(order *domain.Order) *domain.Order {
	clone := *order
	clone.Lines = make([]domain.OrderLine, len(order.Lines))
	copy(clone.Lines, order.Lines)
	return &clone
}
