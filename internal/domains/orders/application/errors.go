package application

import (
	"errors"
	"fmt"

	cartdomain "github.com/storefront/backoffice/internal/domains/cart/domain"
	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid order input")

	// ErrEmptyCart rejects a checkout against a cart with no pending lines.
	ErrEmptyCart = errors.New("cart has no lines to check out")
)

// IsBusinessError reports whether err is an expected, user-facing failure as
// opposed to a system fault. Business errors never mutate state.
func IsBusinessError(err error) bool {
	var (
		insufficient *catalogdomain.InsufficientStockError
		unavailable  *catalogdomain.ProductUnavailableError
		transition   *domain.InvalidTransitionError
		cancelled    *domain.AlreadyCancelledError
	)
	return errors.As(err, &insufficient) ||
		errors.As(err, &unavailable) ||
		errors.As(err, &transition) ||
		errors.As(err, &cancelled) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyCart)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyUserID) ||
		errors.Is(err, domain.ErrEmptyOrder) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, cartdomain.ErrInvalidQuantity) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}
