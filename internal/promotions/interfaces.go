package promotions

import (
	"context"

	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
)

// Repository defines the coupon lookup surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
}

// Service validates coupon sets and computes their discount. Validation is
// all-or-nothing: the first invalid code fails the whole set before any
// state changes.
type Service interface {
	ValidateCodes(ctx context.Context, codes []string) ([]models.Coupon, error)
	DiscountCents(coupons []models.Coupon, subtotalCents int) int
}
