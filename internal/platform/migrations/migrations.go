package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the schema for the bounded contexts. Intended to replace adapter-level automigrate.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&productRecord{},
		&cartLineRecord{},
		&orderRecord{},
		&orderLineRecord{},
	)
}

// Product schema mirrors the catalog Postgres adapter.
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

// Cart line schema mirrors the cart Postgres adapter.
type cartLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	UserID    string          `gorm:"column:user_id;type:varchar(64);index"`
	ProductID int64           `gorm:"column:product_id;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3)"`
	Remarks   string          `gorm:"column:remarks"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (cartLineRecord) TableName() string { return "cart_lines" }

// Order schema mirrors the orders Postgres adapter.
type orderRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);index"`
	Remarks   string    `gorm:"column:remarks"`
	Status    string    `gorm:"column:status;type:varchar(32);index"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Order line schema mirrors the orders Postgres adapter.
type orderLineRecord struct {
	ID        int64           `gorm:"primaryKey;column:id"`
	OrderID   int64           `gorm:"column:order_id;index"`
	ProductID int64           `gorm:"column:product_id;index"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:numeric(14,3)"`
	Remarks   string          `gorm:"column:remarks"`
	CreatedAt time.Time       `gorm:"column:created_at"`
}

func (orderLineRecord) TableName() string { return "order_lines" }
