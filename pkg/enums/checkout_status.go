package enums

import "fmt"

// CheckoutStatus tracks a checkout session through its lifecycle. The three
// terminal values are sticky: once persisted they are never recomputed.
type CheckoutStatus string

const (
	CheckoutStatusIncomplete         CheckoutStatus = "incomplete"
	CheckoutStatusReadyForComplete   CheckoutStatus = "ready_for_complete"
	CheckoutStatusCompleted          CheckoutStatus = "completed"
	CheckoutStatusCanceled           CheckoutStatus = "canceled"
	CheckoutStatusRequiresEscalation CheckoutStatus = "requires_escalation"
)

var validCheckoutStatuses = []CheckoutStatus{
	CheckoutStatusIncomplete,
	CheckoutStatusReadyForComplete,
	CheckoutStatusCompleted,
	CheckoutStatusCanceled,
	CheckoutStatusRequiresEscalation,
}

// IsValid reports whether the value matches the canonical checkout status enum.
func (c CheckoutStatus) IsValid() bool {
	for _, candidate := range validCheckoutStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status permits no further protocol mutation.
func (c CheckoutStatus) IsTerminal() bool {
	switch c {
	case CheckoutStatusCompleted, CheckoutStatusCanceled, CheckoutStatusRequiresEscalation:
		return true
	default:
		return false
	}
}

// LegacyValue renders the status in the legacy dialect's coarser vocabulary:
// open, completed, cancelled. The legacy API predates the ready and escalation
// states, so readiness collapses into open and an escalated session reads as
// cancelled (the session cannot be retried either way).
func (c CheckoutStatus) LegacyValue() string {
	switch c {
	case CheckoutStatusCompleted:
		return "completed"
	case CheckoutStatusCanceled, CheckoutStatusRequiresEscalation:
		return "cancelled"
	default:
		return "open"
	}
}

// ParseCheckoutStatus converts the raw string to CheckoutStatus.
func ParseCheckoutStatus(value string) (CheckoutStatus, error) {
	for _, candidate := range validCheckoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout status %q", value)
}
