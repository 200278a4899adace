package enums

import "fmt"

// NativeOrderStatus is the merchant backend's own order status vocabulary.
// It is the durable value; every externally visible status is derived from it.
type NativeOrderStatus string

const (
	NativeOrderStatusPending    NativeOrderStatus = "pending"
	NativeOrderStatusOnHold     NativeOrderStatus = "on-hold"
	NativeOrderStatusProcessing NativeOrderStatus = "processing"
	NativeOrderStatusCompleted  NativeOrderStatus = "completed"
	NativeOrderStatusCancelled  NativeOrderStatus = "cancelled"
	NativeOrderStatusFailed     NativeOrderStatus = "failed"
	NativeOrderStatusRefunded   NativeOrderStatus = "refunded"
	NativeOrderStatusShipped    NativeOrderStatus = "shipped"
)

var validNativeOrderStatuses = []NativeOrderStatus{
	NativeOrderStatusPending,
	NativeOrderStatusOnHold,
	NativeOrderStatusProcessing,
	NativeOrderStatusCompleted,
	NativeOrderStatusCancelled,
	NativeOrderStatusFailed,
	NativeOrderStatusRefunded,
	NativeOrderStatusShipped,
}

// IsValid reports whether the value matches the canonical native order status enum.
func (n NativeOrderStatus) IsValid() bool {
	for _, candidate := range validNativeOrderStatuses {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNativeOrderStatus converts the raw string to NativeOrderStatus.
func ParseNativeOrderStatus(value string) (NativeOrderStatus, error) {
	for _, candidate := range validNativeOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid native order status %q", value)
}
