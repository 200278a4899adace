package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is a catalog entry. Stock and price are read at the moment of use
// and snapshotted onto line items; they are never cached across requests.
type Product struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SKU        string           `gorm:"column:sku;not null;uniqueIndex"`
	Title      string           `gorm:"column:title;not null"`
	PriceCents int              `gorm:"column:price_cents;not null"`
	StockQty   int              `gorm:"column:stock_qty;not null;default:0"`
	Active     bool             `gorm:"column:active;not null;default:true"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
