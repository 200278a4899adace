package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

// CheckoutSession layers the session-only fields onto its order record:
// creation time (TTL anchor), shipping selection, and the validated coupon
// code cache. Everything else lives on the order itself.
type CheckoutSession struct {
	ID                       uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                  uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	Status                   enums.CheckoutStatus `gorm:"column:status;type:text;not null;default:'incomplete'"`
	SelectedShippingOptionID *string              `gorm:"column:selected_shipping_option_id"`
	PaymentHandlerID         *string              `gorm:"column:payment_handler_id"`
	PaymentToken             *string              `gorm:"column:payment_token"`
	CouponCodes              pq.StringArray       `gorm:"column:coupon_codes;type:text[]"`
	Version                  int                  `gorm:"column:version;not null;default:0"`
	Order                    *Order               `gorm:"foreignKey:OrderID"`
	CreatedAt                time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
