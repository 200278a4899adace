package enums

import "fmt"

// RefundStatus tracks the settlement state of a recorded refund. Money
// movement is delegated to the payment backend; this engine only records.
type RefundStatus string

const (
	RefundStatusPending RefundStatus = "pending"
	RefundStatusSettled RefundStatus = "settled"
)

var validRefundStatuses = []RefundStatus{
	RefundStatusPending,
	RefundStatusSettled,
}

// IsValid reports whether the value is a known refund status.
func (r RefundStatus) IsValid() bool {
	for _, candidate := range validRefundStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRefundStatus converts the raw string to RefundStatus.
func ParseRefundStatus(value string) (RefundStatus, error) {
	for _, candidate := range validRefundStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid refund status %q", value)
}
