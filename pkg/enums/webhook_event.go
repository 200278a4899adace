package enums

import "fmt"

// WebhookEvent names the outbound notification topics a registration can
// subscribe to. Payloads are always the full order projection, never a delta.
type WebhookEvent string

const (
	WebhookEventOrderCreated WebhookEvent = "order_created"
	WebhookEventOrderUpdated WebhookEvent = "order_updated"
)

var validWebhookEvents = []WebhookEvent{
	WebhookEventOrderCreated,
	WebhookEventOrderUpdated,
}

// IsValid reports whether the value is a known webhook event.
func (w WebhookEvent) IsValid() bool {
	for _, candidate := range validWebhookEvents {
		if candidate == w {
			return true
		}
	}
	return false
}

// ParseWebhookEvent converts the raw string to WebhookEvent.
func ParseWebhookEvent(value string) (WebhookEvent, error) {
	for _, candidate := range validWebhookEvents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid webhook event %q", value)
}
