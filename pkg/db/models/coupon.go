package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

// Coupon is the validity record the promotion validator consults. Percent
// coupons carry an exact decimal rate; fixed coupons carry cents.
type Coupon struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string           `gorm:"column:code;not null;uniqueIndex"`
	Type        enums.CouponType `gorm:"column:type;type:text;not null"`
	AmountCents int              `gorm:"column:amount_cents;not null;default:0"`
	Percent     decimal.Decimal  `gorm:"column:percent;type:numeric(5,2);not null;default:0"`
	Active      bool             `gorm:"column:active;not null;default:true"`
	ExpiresAt   *time.Time       `gorm:"column:expires_at"`
	UsageLimit  *int             `gorm:"column:usage_limit"`
	UsageCount  int              `gorm:"column:usage_count;not null;default:0"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
