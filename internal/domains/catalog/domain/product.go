package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName     = errors.New("product name is required")
	ErrNegativePrice = errors.New("product price must not be negative")
	ErrNegativeStock = errors.New("product stock must not be negative")
)

// Product is the catalog aggregate referenced by carts and orders. Stock is a
// decimal because some products are sold in fractional units (weight).
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       decimal.Decimal
	ImageURLs   []string
}

// NewProduct validates the invariants and builds a new Product aggregate.
func NewProduct(id int64, name string, price, stock decimal.Decimal) (*Product, error) {
	p := &Product{ID: id, Name: name, Price: price, Stock: stock}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces invariants on the aggregate.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Stock.IsNegative() {
		return ErrNegativeStock
	}
	return nil
}

// Debit removes quantity from stock, refusing to let it go negative.
func (p *Product) Debit(quantity decimal.Decimal) error {
	if p.Stock.LessThan(quantity) {
		return &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Stock,
			Requested: quantity,
		}
	}
	p.Stock = p.Stock.Sub(quantity)
	return nil
}

// Credit returns quantity to stock.
func (p *Product) Credit(quantity decimal.Decimal) {
	p.Stock = p.Stock.Add(quantity)
}

// StockMovement is a single debit or credit against one product's stock.
type StockMovement struct {
	ProductID int64
	Quantity  decimal.Decimal
}

// ProductUnavailableError reports a cart or order line referencing a product
// that no longer exists in the catalog. It is a business error, not a fault.
type ProductUnavailableError struct {
	ProductID int64
	Name      string
}

func (e *ProductUnavailableError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("product %q is no longer available", e.Name)
	}
	return fmt.Sprintf("product %d is no longer available", e.ProductID)
}

// InsufficientStockError reports that available stock cannot cover the
// requested quantity. It is a business error, not a fault.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock of product %q: %s available, %s requested",
		e.Name, e.Available, e.Requested)
}
