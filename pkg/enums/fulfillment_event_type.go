package enums

import "fmt"

// FulfillmentEventType labels entries on an order's append-only fulfillment timeline.
type FulfillmentEventType string

const (
	FulfillmentEventConfirmed FulfillmentEventType = "confirmed"
	FulfillmentEventShipped   FulfillmentEventType = "shipped"
	FulfillmentEventDelivered FulfillmentEventType = "delivered"
)

var validFulfillmentEventTypes = []FulfillmentEventType{
	FulfillmentEventConfirmed,
	FulfillmentEventShipped,
	FulfillmentEventDelivered,
}

// IsValid reports whether the value is a known fulfillment event type.
func (f FulfillmentEventType) IsValid() bool {
	for _, candidate := range validFulfillmentEventTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentEventType converts the raw string to FulfillmentEventType.
func ParseFulfillmentEventType(value string) (FulfillmentEventType, error) {
	for _, candidate := range validFulfillmentEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment event type %q", value)
}
