package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receipt is one scanned purchase: a store, a total, and its line items.
type Receipt struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreName   string          `gorm:"column:store_name;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	PurchasedAt time.Time       `gorm:"column:purchased_at;not null"`
	Items       []ReceiptItem   `gorm:"foreignKey:ReceiptID"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ReceiptItem is a single purchased product on a receipt. Position is the
// item's index in the receipt's decoded item list and backs the
// "local-item-N" fallback identity used before an item has a server id.
type ReceiptItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ReceiptID uuid.UUID       `gorm:"column:receipt_id;type:uuid;not null"`
	Position  int             `gorm:"column:position;not null"`
	Name      string          `gorm:"column:name;not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Quantity  int             `gorm:"column:quantity;not null;default:1"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
