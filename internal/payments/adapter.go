package payments

import "context"

// Outcome classifies a charge attempt. Declines, missing configuration and
// step-up requirements are distinct conditions: callers map each to its own
// wire-level signal.
type Outcome string

const (
	OutcomeSucceeded      Outcome = "succeeded"
	OutcomeDeclined       Outcome = "declined"
	OutcomeRequiresAction Outcome = "requires_action"
	OutcomeConfigMissing  Outcome = "config_missing"
	// OutcomeManual is the backward-compatible path for tokens that do not
	// match the expected scheme: the order is accepted for manual capture
	// instead of being rejected.
	OutcomeManual Outcome = "manual"
)

// ChargeInput carries everything one charge attempt needs. IdempotencyKey is
// derived from the session id so a completion call charges at most once.
type ChargeInput struct {
	HandlerID      string
	Token          string
	AmountCents    int
	Currency       string
	IdempotencyKey string
	BuyerEmail     string
	Note           string
}

// ChargeResult reports one attempt. Reference is the backend's payment id
// when the outcome is succeeded.
type ChargeResult struct {
	Outcome   Outcome
	Reference string
	Reason    string
}

// Adapter is the card-charging abstraction the completion path drives.
type Adapter interface {
	Charge(ctx context.Context, input ChargeInput) (ChargeResult, error)
}
