package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
)

// Status enumerates the dispatch pipeline. Orders move strictly forward
// through New -> Dispatched -> Shipped -> Confirmed, or escape to the
// terminal Cancelled state from any non-terminal state.
type Status string

const (
	StatusNew        Status = "new"
	StatusDispatched Status = "dispatched"
	StatusShipped    Status = "shipped"
	StatusConfirmed  Status = "confirmed"
	StatusCancelled  Status = "cancelled"
)

// predecessor maps each pipeline target to the only status it may follow.
var predecessor = map[Status]Status{
	StatusDispatched: StatusNew,
	StatusShipped:    StatusDispatched,
	StatusConfirmed:  StatusShipped,
}

// Statuses lists every order status in pipeline order, Cancelled last.
func Statuses() []Status {
	return []Status{StatusNew, StatusDispatched, StatusShipped, StatusConfirmed, StatusCancelled}
}

func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusDispatched, StatusShipped, StatusConfirmed, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition may leave this status.
func (s Status) Terminal() bool { return s == StatusCancelled }

// Predecessor returns the status an order must currently hold for the given
// pipeline target to be legal. Cancelled has no single predecessor.
func Predecessor(target Status) (Status, bool) {
	from, ok := predecessor[target]
	return from, ok
}

// CanTransition reports whether an order in `current` may move to `target`.
func CanTransition(current, target Status) bool {
	if target == StatusCancelled {
		return !current.Terminal()
	}
	from, ok := predecessor[target]
	return ok && from == current
}

var (
	ErrEmptyUserID     = errors.New("order user id is required")
	ErrEmptyOrder      = errors.New("order must contain at least one line")
	ErrInvalidStatus   = errors.New("order status is invalid")
	ErrInvalidQuantity = errors.New("order line quantity must be greater than zero")
)

// InvalidTransitionError rejects a transition whose current status is not the
// required predecessor. It is a business error and leaves the order untouched.
type InvalidTransitionError struct {
	OrderID   int64
	Current   Status
	Requested Status
}

func (e *InvalidTransitionError) Error() string {
	if required, ok := Predecessor(e.Requested); ok {
		return fmt.Sprintf("order %d cannot move to %q: requires status %q, currently %q",
			e.OrderID, e.Requested, required, e.Current)
	}
	return fmt.Sprintf("order %d cannot move from %q to %q", e.OrderID, e.Current, e.Requested)
}

// AlreadyCancelledError rejects cancelling an order a second time, keeping
// restock from running twice.
type AlreadyCancelledError struct {
	OrderID int64
}

func (e *AlreadyCancelledError) Error() string {
	return fmt.Sprintf("order %d is already cancelled", e.OrderID)
}

// OrderLine is one product position on an order. Quantity is fixed at
// checkout; Product is the current catalog row resolved when the order is
// loaded, nil when the product has since been deleted.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  decimal.Decimal
	Remarks   string
	Product   *catalogdomain.Product
}

// Value prices the line at the product's current catalog price. Lines of
// deleted products value to zero.
func (l OrderLine) Value() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price.Mul(l.Quantity)
}

// Order is the aggregate owned by the order engine.
type Order struct {
	ID        int64
	CreatedAt time.Time
	UserID    string
	Remarks   string
	Status    Status
	Lines     []OrderLine
}

// NewOrder builds an order in status New from the given lines.
func NewOrder(userID, remarks string, lines []OrderLine) (*Order, error) {
	order := &Order{
		CreatedAt: time.Now().UTC(),
		UserID:    userID,
		Remarks:   remarks,
		Status:    StatusNew,
		Lines:     lines,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return order, nil
}

// Validate enforces invariants on the aggregate.
func (o *Order) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return ErrEmptyUserID
	}
	if len(o.Lines) == 0 {
		return ErrEmptyOrder
	}
	if !o.Status.Valid() {
		return ErrInvalidStatus
	}
	for _, line := range o.Lines {
		if !line.Quantity.IsPositive() {
			return ErrInvalidQuantity
		}
	}
	return nil
}

// Advance moves the order to target if the transition table allows it.
func (o *Order) Advance(target Status) error {
	if !target.Valid() {
		return ErrInvalidStatus
	}
	if target == StatusCancelled && o.Status == StatusCancelled {
		return &AlreadyCancelledError{OrderID: o.ID}
	}
	if !CanTransition(o.Status, target) {
		return &InvalidTransitionError{OrderID: o.ID, Current: o.Status, Requested: target}
	}
	o.Status = target
	return nil
}

// StockMovements derives the ledger movements this order debited at checkout.
func (o *Order) StockMovements() []catalogdomain.StockMovement {
	movements := make([]catalogdomain.StockMovement, 0, len(o.Lines))
	for _, line := range o.Lines {
		movements = append(movements, catalogdomain.StockMovement{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return movements
}

// LineCount returns the number of positions on the order.
func (o *Order) LineCount() int { return len(o.Lines) }

// TotalQuantity sums the quantities across all lines.
func (o *Order) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Quantity)
	}
	return total
}

// TotalValue sums line values at current catalog prices.
func (o *Order) TotalValue() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Value())
	}
	return total
}
