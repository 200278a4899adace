package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

// FulfillmentEvent is an append-only timeline entry on an order. Tracking
// details ride on shipped events when the carrier provides them.
type FulfillmentEvent struct {
	ID             uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID                  `gorm:"column:order_id;type:uuid;not null"`
	Type           enums.FulfillmentEventType `gorm:"column:type;type:text;not null"`
	TrackingNumber *string                    `gorm:"column:tracking_number"`
	TrackingURL    *string                    `gorm:"column:tracking_url"`
	CreatedAt      time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
