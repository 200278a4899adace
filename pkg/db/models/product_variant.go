package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a purchasable variation of a parent product. An empty
// string attribute value is the wildcard marker: it matches any requested
// value on that axis.
type ProductVariant struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	SKU        string            `gorm:"column:sku;not null"`
	Attributes map[string]string `gorm:"column:attributes;type:jsonb;serializer:json"`
	PriceCents *int              `gorm:"column:price_cents"`
	StockQty   int               `gorm:"column:stock_qty;not null;default:0"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
