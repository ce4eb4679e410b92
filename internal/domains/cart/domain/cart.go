package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyUserID     = errors.New("cart line user id is required")
	ErrInvalidProduct  = errors.New("cart line product id must be greater than zero")
	ErrInvalidQuantity = errors.New("cart line quantity must be greater than zero")
)

// Line is one pending purchase in a user's cart. Lines live only between
// "add to cart" and checkout or removal.
type Line struct {
	ID        int64
	UserID    string
	ProductID int64
	Quantity  decimal.Decimal
	Remarks   string
	CreatedAt time.Time
}

// NewLine validates and constructs a cart line.
func NewLine(userID string, productID int64, quantity decimal.Decimal, remarks string) (*Line, error) {
	line := &Line{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Remarks:   remarks,
		CreatedAt: time.Now().UTC(),
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	return line, nil
}

// Validate enforces invariants on the line.
func (l *Line) Validate() error {
	if strings.TrimSpace(l.UserID) == "" {
		return ErrEmptyUserID
	}
	if l.ProductID <= 0 {
		return ErrInvalidProduct
	}
	if !l.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	return nil
}
