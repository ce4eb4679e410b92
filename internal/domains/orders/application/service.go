package application

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	cartports "github.com/storefront/backoffice/internal/domains/cart/ports"
	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	catalogports "github.com/storefront/backoffice/internal/domains/catalog/ports"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
)

// Service is the order engine. It owns checkout (cart to order with stock
// debit), the dispatch pipeline transitions, and cancellation with restock.
// Persistence atomicity lives in the repository; this layer runs the
// read-only validation pass and converts failures into business errors.
type Service struct {
	orders  ports.Repository
	catalog catalogports.Repository
	carts   cartports.Repository
}

func NewService(orders ports.Repository, catalog catalogports.Repository, carts cartports.Repository) *Service {
	return &Service{orders: orders, catalog: catalog, carts: carts}
}

// Checkout converts the user's pending cart lines into a persisted order in
// status New. The first pass only reads: every product must still exist and
// cover the requested quantity. The commit pass is a single repository unit
// of work that re-verifies stock under lock, so a shortfall that appears
// between the two passes still cannot drive stock negative.
func (s *Service) Checkout(ctx context.Context, input ports.CheckoutInput) (*domain.Order, error) {
	lines, err := s.carts.LinesForUser(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	orderLines := make([]domain.OrderLine, 0, len(lines))
	lineIDs := make([]int64, 0, len(lines))
	// Quantities are summed per product so a cart holding the same product
	// on several lines is checked against the combined demand.
	requested := make(map[int64]decimal.Decimal, len(lines))
	for _, line := range lines {
		product, err := s.catalog.GetByID(ctx, line.ProductID)
		if errors.Is(err, catalogports.ErrNotFound) {
			return nil, &catalogdomain.ProductUnavailableError{ProductID: line.ProductID}
		}
		if err != nil {
			return nil, err
		}
		total := requested[line.ProductID].Add(line.Quantity)
		if product.Stock.LessThan(total) {
			return nil, &catalogdomain.InsufficientStockError{
				ProductID: product.ID,
				Name:      product.Name,
				Available: product.Stock,
				Requested: total,
			}
		}
		requested[line.ProductID] = total
		orderLines = append(orderLines, domain.OrderLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Remarks:   line.Remarks,
			Product:   product,
		})
		lineIDs = append(lineIDs, line.ID)
	}

	order, err := domain.NewOrder(input.UserID, input.Remarks, orderLines)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.orders.Checkout(ctx, ports.CheckoutCommand{Order: order, CartLineIDs: lineIDs})
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// Advance moves an order one step along the dispatch pipeline. A request for
// Cancelled delegates to Cancel so restock always runs. The status write is a
// compare-and-swap against the status read here; a concurrent writer turns
// into an invalid-transition business error carrying the fresh status.
func (s *Service) Advance(ctx context.Context, orderID int64, target domain.Status) (*domain.Order, error) {
	if target == domain.StatusCancelled {
		return s.Cancel(ctx, orderID)
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	current := order.Status
	if err := order.Advance(target); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.orders.Transition(ctx, orderID, current, target)
	if errors.Is(err, ports.ErrTransitionConflict) {
		fresh, getErr := s.orders.GetByID(ctx, orderID)
		if getErr != nil {
			return nil, mapError(getErr)
		}
		return nil, &domain.InvalidTransitionError{OrderID: orderID, Current: fresh.Status, Requested: target}
	}
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// Cancel restocks every line exactly once and moves the order to Cancelled.
// An already-cancelled order is rejected before any restock runs.
func (s *Service) Cancel(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orders.CancelAndRestock(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) GetByID(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, mapError(err)
	}
	return order, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Order, error) {
	return s.orders.List(ctx)
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// Summary aggregates order counts and quantities per status for the dashboard.
func (s *Service) Summary(ctx context.Context) (map[domain.Status]ports.StatusSummary, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	result := map[domain.Status]ports.StatusSummary{}
	for _, order := range orders {
		entry := result[order.Status]
		entry.Orders++
		entry.TotalQuantity = entry.TotalQuantity.Add(order.TotalQuantity())
		result[order.Status] = entry
	}
	return result, nil
}

var _ ports.Service = (*Service)(nil)
