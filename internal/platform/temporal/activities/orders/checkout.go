package orders

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.temporal.io/sdk/activity"

	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/orders/application"
	ordersdomain "github.com/storefront/backoffice/internal/domains/orders/domain"
	ordersports "github.com/storefront/backoffice/internal/domains/orders/ports"
)

// CheckoutActivityName converts a cart into a persisted order.
const CheckoutActivityName = "orders.activities.Checkout"

// Failure codes carried across the workflow boundary.
const (
	FailureInsufficientStock  = "insufficient_stock"
	FailureProductUnavailable = "product_unavailable"
	FailureEmptyCart          = "empty_cart"
	FailureInvalidInput       = "invalid_input"
)

// CheckoutResult is the activity's envelope. Business failures travel as data
// rather than activity errors so Temporal never retries them; only system
// faults surface as errors and hit the retry policy.
type CheckoutResult struct {
	Order   *ordersdomain.Order
	Failure *CheckoutFailure
}

// CheckoutFailure is a serializable business error.
type CheckoutFailure struct {
	Code        string
	Message     string
	ProductID   int64
	ProductName string
	Available   decimal.Decimal
	Requested   decimal.Decimal
}

// AsError reconstructs the typed business error on the caller's side.
func (f *CheckoutFailure) AsError() error {
	switch f.Code {
	case FailureInsufficientStock:
		return &catalogdomain.InsufficientStockError{
			ProductID: f.ProductID,
			Name:      f.ProductName,
			Available: f.Available,
			Requested: f.Requested,
		}
	case FailureProductUnavailable:
		return &catalogdomain.ProductUnavailableError{ProductID: f.ProductID, Name: f.ProductName}
	case FailureEmptyCart:
		return application.ErrEmptyCart
	default:
		return errors.Join(application.ErrInvalidInput, errors.New(f.Message))
	}
}

// Activities groups activities that operate on the orders bounded context.
type Activities struct {
	service ordersports.Service
}

// NewActivities wires the order engine into the Temporal activities bundle.
func NewActivities(service ordersports.Service) *Activities {
	return &Activities{service: service}
}

// Checkout runs the order engine's checkout and folds business errors into
// the result envelope.
func (a *Activities) Checkout(ctx context.Context, input ordersports.CheckoutInput) (*CheckoutResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("checkout activity not initialized", "userId", input.UserID)
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("Checkout activity started", "userId", input.UserID)
	order, err := a.service.Checkout(ctx, input)
	if err != nil {
		if application.IsBusinessError(err) {
			logger.Info("Checkout rejected", "userId", input.UserID, "reason", err.Error())
			return &CheckoutResult{Failure: toFailure(err)}, nil
		}
		logger.Error("Checkout activity failed", "userId", input.UserID, "error", err)
		return nil, err
	}
	logger.Info("Checkout activity completed", "userId", input.UserID, "orderId", order.ID)
	return &CheckoutResult{Order: order}, nil
}

func toFailure(err error) *CheckoutFailure {
	var insufficient *catalogdomain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return &CheckoutFailure{
			Code:        FailureInsufficientStock,
			Message:     insufficient.Error(),
			ProductID:   insufficient.ProductID,
			ProductName: insufficient.Name,
			Available:   insufficient.Available,
			Requested:   insufficient.Requested,
		}
	}
	var unavailable *catalogdomain.ProductUnavailableError
	if errors.As(err, &unavailable) {
		return &CheckoutFailure{
			Code:        FailureProductUnavailable,
			Message:     unavailable.Error(),
			ProductID:   unavailable.ProductID,
			ProductName: unavailable.Name,
		}
	}
	if errors.Is(err, application.ErrEmptyCart) {
		return &CheckoutFailure{Code: FailureEmptyCart, Message: err.Error()}
	}
	return &CheckoutFailure{Code: FailureInvalidInput, Message: err.Error()}
}
