package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	catalogpostgres "github.com/storefront/backoffice/internal/domains/catalog/adapters/persistence/postgres"
	catalogdomain "github.com/storefront/backoffice/internal/domains/catalog/domain"
	"github.com/storefront/backoffice/internal/domains/orders/domain"
	"github.com/storefront/backoffice/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM. Checkout, transition,
// and cancellation each run inside one database transaction: product rows are
// locked with SELECT ... FOR UPDATE so competing checkouts serialize per
// product and re-verify stock under the lock.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);index"`
	Remarks   string    `gorm:"column:remarks"`
	Status    string    `gorm:"column:status;type:varchar(32);index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// orderLineRecord maps one order position.
type orderLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;index"`
	ProductID int64           `gorm:"column:product_id;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3)"`
	Remarks   string          `gorm:"column:remarks"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (orderLineRecord) TableName() string { return "order_lines" }

// cartLineRecord mirrors the cart adapter's table so checkout can clear the
// consumed lines inside the same transaction as the order insert.
type cartLineRecord struct {
	ID     int64  `gorm:"primaryKey;column:id"`
	UserID string `gorm:"column:user_id"`
}

func (cartLineRecord) TableName() string { return "cart_lines" }

// productRecord is the read-side mirror used to hydrate lines with the
// current catalog row.
type productRecord struct {
	ID    int64           `gorm:"primaryKey;column:id"`
	Name  string          `gorm:"column:name"`
	Price decimal.Decimal `gorm:"column:price"`
	Stock decimal.Decimal `gorm:"column:stock"`
}

func (productRecord) TableName() string { return "products" }

// Checkout persists the order, debits stock, and clears the cart lines in a
// single transaction. The stock debit locks product rows in id order and
// re-verifies availability, so a shortfall that appeared after the caller's
// validation pass rolls everything back.
func (r *Repository) Checkout(ctx context.Context, cmd ports.CheckoutCommand) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if cmd.Order == nil {
		return nil, errors.New("order is nil")
	}
	if err := cmd.Order.Validate(); err != nil {
		return nil, err
	}

	var orderID int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := catalogpostgres.DebitInTx(tx, cmd.Order.StockMovements()); err != nil {
			return err
		}
		record := orderRecord{
			UserID:    cmd.Order.UserID,
			Remarks:   cmd.Order.Remarks,
			Status:    string(cmd.Order.Status),
			CreatedAt: cmd.Order.CreatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return classify(err)
		}
		lines := make([]orderLineRecord, 0, len(cmd.Order.Lines))
		for _, line := range cmd.Order.Lines {
			lines = append(lines, orderLineRecord{
				OrderID:   record.ID,
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Remarks:   line.Remarks,
			})
		}
		if err := tx.Create(&lines).Error; err != nil {
			return classify(err)
		}
		if len(cmd.CartLineIDs) > 0 {
			if err := tx.Where("user_id = ? AND id IN ?", cmd.Order.UserID, cmd.CartLineIDs).
				Delete(&cartLineRecord{}).Error; err != nil {
				return err
			}
		}
		orderID = record.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, orderID)
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	orders, err := r.attachLines(ctx, []orderRecord{record})
	if err != nil {
		return nil, err
	}
	return orders[0], nil
}

func (r *Repository) List(ctx context.Context) ([]*domain.Order, error) {
	return r.listWhere(ctx, nil)
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.listWhere(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	})
}

// Transition compare-and-swaps the order status under a row lock.
func (r *Repository) Transition(ctx context.Context, id int64, from, to domain.Status) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record orderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status) != from {
			return ports.ErrTransitionConflict
		}
		guard := domain.Order{ID: id, Status: from}
		if err := guard.Advance(to); err != nil {
			return err
		}
		return tx.Model(&orderRecord{}).Where("id = ?", id).
			Updates(map[string]any{
				"status":     string(to),
				"updated_at": gorm.Expr("NOW()"),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// CancelAndRestock credits stock for every line and sets Cancelled in one
// transaction. The order row lock makes repeated cancellations race-free:
// the second request sees Cancelled and is rejected before any credit.
func (r *Repository) CancelAndRestock(ctx context.Context, id int64) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var skipped []int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record orderRecord
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&record, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ports.ErrNotFound
			}
			return err
		}
		if domain.Status(record.Status) == domain.StatusCancelled {
			return &domain.AlreadyCancelledError{OrderID: id}
		}
		var lines []orderLineRecord
		if err := tx.Where("order_id = ?", id).Find(&lines).Error; err != nil {
			return err
		}
		movements := make([]catalogdomain.StockMovement, 0, len(lines))
		for _, line := range lines {
			movements = append(movements, catalogdomain.StockMovement{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
			})
		}
		var err error
		skipped, err = catalogpostgres.CreditInTx(tx, movements)
		if err != nil {
			return err
		}
		return tx.Model(&orderRecord{}).Where("id = ?", id).
			Updates(map[string]any{
				"status":     string(domain.StatusCancelled),
				"updated_at": gorm.Expr("NOW()"),
			}).Error
	})
	if err != nil {
		return nil, err
	}
	if len(skipped) > 0 {
		slog.Warn("restock skipped for deleted products",
			slog.Int64("order.id", id), slog.Any("product.ids", skipped))
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) listWhere(ctx context.Context, scope func(*gorm.DB) *gorm.DB) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	db := r.db.WithContext(ctx)
	if scope != nil {
		db = scope(db)
	}
	var records []orderRecord
	if err := db.Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	return r.attachLines(ctx, records)
}

// attachLines loads order lines plus the referenced products' current rows.
// Line values therefore always reflect the present catalog price; lines of
// deleted products carry a nil product.
func (r *Repository) attachLines(ctx context.Context, records []orderRecord) ([]*domain.Order, error) {
	if len(records) == 0 {
		return []*domain.Order{}, nil
	}
	orderIDs := make([]int64, 0, len(records))
	for _, record := range records {
		orderIDs = append(orderIDs, record.ID)
	}
	var lineRecords []orderLineRecord
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).Order("id").Find(&lineRecords).Error; err != nil {
		return nil, err
	}

	productIDs := make([]int64, 0, len(lineRecords))
	seen := map[int64]bool{}
	for _, line := range lineRecords {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			productIDs = append(productIDs, line.ProductID)
		}
	}
	products := map[int64]*catalogdomain.Product{}
	if len(productIDs) > 0 {
		var productRecords []productRecord
		if err := r.db.WithContext(ctx).
			Where("id IN ?", productIDs).Find(&productRecords).Error; err != nil {
			return nil, err
		}
		for _, p := range productRecords {
			products[p.ID] = &catalogdomain.Product{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock}
		}
	}

	linesByOrder := map[int64][]domain.OrderLine{}
	for _, line := range lineRecords {
		linesByOrder[line.OrderID] = append(linesByOrder[line.OrderID], domain.OrderLine{
			ID:        line.ID,
			OrderID:   line.OrderID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Remarks:   line.Remarks,
			Product:   products[line.ProductID],
		})
	}

	orders := make([]*domain.Order, 0, len(records))
	for _, record := range records {
		orders = append(orders, &domain.Order{
			ID:        record.ID,
			CreatedAt: record.CreatedAt,
			UserID:    record.UserID,
			Remarks:   record.Remarks,
			Status:    domain.Status(record.Status),
			Lines:     linesByOrder[record.ID],
		})
	}
	return orders, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

// classify surfaces constraint violations as the integrity category while
// preserving the driver error for diagnostics.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return errors.Join(ports.ErrIntegrity, err)
	}
	return err
}
