package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/storefront/backoffice/internal/domains/cart/domain"
	"github.com/storefront/backoffice/internal/domains/cart/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists cart lines in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// cartLineRecord maps a pending cart line to a relational table.
type cartLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	UserID    string          `gorm:"column:user_id;type:varchar(64);index"`
	ProductID int64           `gorm:"column:product_id;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3)"`
	Remarks   string          `gorm:"column:remarks"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (cartLineRecord) TableName() string { return "cart_lines" }

func (r *Repository) LinesForUser(ctx context.Context, userID string) ([]domain.Line, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []cartLineRecord
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	lines := make([]domain.Line, 0, len(records))
	for i := range records {
		lines = append(lines, records[i].toDomain())
	}
	return lines, nil
}

func (r *Repository) Add(ctx context.Context, line *domain.Line) (*domain.Line, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if line == nil {
		return nil, errors.New("cart line is nil")
	}
	if err := line.Validate(); err != nil {
		return nil, err
	}
	record := cartLineRecord{
		ID:        line.ID,
		UserID:    line.UserID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Remarks:   line.Remarks,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	stored := record.toDomain()
	return &stored, nil
}

func (r *Repository) Remove(ctx context.Context, userID string, lineID int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Where("user_id = ?", userID).Delete(&cartLineRecord{}, lineID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) RemoveLines(ctx context.Context, userID string, lineIDs []int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if len(lineIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id IN ?", userID, lineIDs).
		Delete(&cartLineRecord{}).Error
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres cart repository not configured")
	}
	return nil
}

func (r cartLineRecord) toDomain() domain.Line {
	return domain.Line{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Remarks:   r.Remarks,
		CreatedAt: r.CreatedAt,
	}
}
