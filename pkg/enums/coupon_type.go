package enums

import "fmt"

// CouponType distinguishes how a coupon's amount is interpreted.
type CouponType string

const (
	CouponTypeFixedCart CouponType = "fixed_cart"
	CouponTypePercent   CouponType = "percent"
)

var validCouponTypes = []CouponType{
	CouponTypeFixedCart,
	CouponTypePercent,
}

// IsValid reports whether the value is a known coupon type.
func (c CouponType) IsValid() bool {
	for _, candidate := range validCouponTypes {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCouponType converts the raw string to CouponType.
func ParseCouponType(value string) (CouponType, error) {
	for _, candidate := range validCouponTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid coupon type %q", value)
}
