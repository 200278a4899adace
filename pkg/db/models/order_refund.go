package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

// OrderRefund is one entry in an order's append-only refund history.
// Settlement is delegated to the payment backend, so entries start pending.
type OrderRefund struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	AmountCents int                `gorm:"column:amount_cents;not null"`
	Reason      string             `gorm:"column:reason;not null;default:''"`
	Status      enums.RefundStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}
