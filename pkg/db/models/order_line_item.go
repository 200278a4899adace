package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem snapshots one cart line: the unit price is captured at
// add-time and never re-read from the catalog.
type OrderLineItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	TotalCents     int        `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
