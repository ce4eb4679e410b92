package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/catalog/ports"
)

var (
	_ ports.Repository = (*Repository)(nil)
	_ ports.Ledger     = (*Repository)(nil)
)

// Repository persists catalog products in PostgreSQL using GORM. Ledger
// operations run inside a transaction with row locks so a debit batch is
// atomic against concurrent checkouts.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// productRecord maps the product aggregate to a relational table.
type productRecord struct {
	ID          int64           `gorm:"primaryKey;column:id"`
	Name        string          `gorm:"column:name"`
	Description string          `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(14,2)"`
	Stock       decimal.Decimal `gorm:"column:stock;type:numeric(14,3)"`
	ImageURLs   pq.StringArray  `gorm:"column:image_urls;type:text[]"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":        record.Name,
				"description": record.Description,
				"price":       record.Price,
				"stock":       record.Stock,
				"image_urls":  record.ImageURLs,
				"updated_at":  gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&productRecord{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Debit locks each product row, verifies availability, and decrements stock.
// Rows are locked in product-id order to avoid deadlocks between competing
// checkouts; any shortfall rolls the whole batch back.
func (r *Repository) Debit(ctx context.Context, movements []domain.StockMovement) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return DebitInTx(tx, movements)
	})
}

// Credit locks and increments each product row, skipping deleted products.
func (r *Repository) Credit(ctx context.Context, movements []domain.StockMovement) ([]int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var skipped []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		skipped, err = CreditInTx(tx, movements)
		return err
	})
	if err != nil {
		return nil, err
	}
	return skipped, nil
}

// DebitInTx applies debits within the supplied transaction. Shared with the
// orders repository so checkout commits stock and order rows atomically.
func DebitInTx(tx *gorm.DB, movements []domain.StockMovement) error {
	for _, m := range orderMovements(movements) {
		var record productRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", m.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &domain.ProductUnavailableError{ProductID: m.ProductID}
			}
			return err
		}
		if record.Stock.LessThan(m.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: record.ID,
				Name:      record.Name,
				Available: record.Stock,
				Requested: m.Quantity,
			}
		}
		if err := tx.Model(&productRecord{}).Where("id = ?", m.ProductID).
			Updates(map[string]any{
				"stock":      record.Stock.Sub(m.Quantity),
				"updated_at": gorm.Expr("NOW()"),
			}).Error; err != nil {
			return err
		}
	}
	return nil
}

func CreditInTx(tx *gorm.DB, movements []domain.StockMovement) ([]int64, error) {
	var skipped []int64
	for _, m := range orderMovements(movements) {
		var record productRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", m.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				skipped = append(skipped, m.ProductID)
				continue
			}
			return nil, err
		}
		if err := tx.Model(&productRecord{}).Where("id = ?", m.ProductID).
			Updates(map[string]any{
				"stock":      record.Stock.Add(m.Quantity),
				"updated_at": gorm.Expr("NOW()"),
			}).Error; err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

func orderMovements(movements []domain.StockMovement) []domain.StockMovement {
	ordered := make([]domain.StockMovement, len(movements))
	copy(ordered, movements)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })
	return ordered
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres catalog repository not configured")
	}
	return nil
}

func toRecord(product *domain.Product) productRecord {
	return productRecord{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Stock:       product.Stock,
		ImageURLs:   pq.StringArray(product.ImageURLs),
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		ImageURLs:   []string(r.ImageURLs),
	}
}
