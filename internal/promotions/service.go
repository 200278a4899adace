package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a promotions service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promotions repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

// Normalize trims and case-folds a coupon code into its canonical form.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

func (s *service) ValidateCodes(ctx context.Context, codes []string) ([]models.Coupon, error) {
	validated := make([]models.Coupon, 0, len(codes))
	seen := make(map[string]bool, len(codes))
	for _, raw := range codes {
		code := Normalize(raw)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		coupon, err := s.repo.FindByCode(ctx, code)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, invalidCoupon(code, "coupon does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
		}
		if !coupon.Active {
			return nil, invalidCoupon(code, "coupon is not active")
		}
		if coupon.ExpiresAt != nil && !coupon.ExpiresAt.After(s.now()) {
			return nil, invalidCoupon(code, "coupon has expired")
		}
		if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
			return nil, invalidCoupon(code, "coupon usage limit reached")
		}
		validated = append(validated, *coupon)
	}
	return validated, nil
}

// DiscountCents totals the discount the validated set yields on the given
// subtotal, clamped so it never exceeds the subtotal. Percent coupons floor
// to whole cents.
func (s *service) DiscountCents(coupons []models.Coupon, subtotalCents int) int {
	if subtotalCents <= 0 {
		return 0
	}
	total := 0
	for _, coupon := range coupons {
		switch coupon.Type {
		case enums.CouponTypeFixedCart:
			total += coupon.AmountCents
		case enums.CouponTypePercent:
			discount := decimal.NewFromInt(int64(subtotalCents)).
				Mul(coupon.Percent).
				Div(decimal.NewFromInt(100)).
				Floor()
			total += int(discount.IntPart())
		}
	}
	if total > subtotalCents {
		return subtotalCents
	}
	if total < 0 {
		return 0
	}
	return total
}

func invalidCoupon(code, reason string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidCoupon, reason).
		WithDetails(map[string]any{"code": code})
}
