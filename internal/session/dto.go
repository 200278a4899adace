package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/internal/catalog"
	"github.com/shopwalk/shopwalk-backend/internal/shipping"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// ItemInput is one requested line in a create call.
type ItemInput struct {
	Ref catalog.ItemRef
	Qty int
}

// CreateInput carries a session-create request.
type CreateInput struct {
	Items []ItemInput
}

// BuyerInput replaces the buyer group as a whole.
type BuyerInput struct {
	Email     string
	FirstName string
	LastName  string
}

// PaymentInstrumentInput selects the instrument used at completion.
type PaymentInstrumentInput struct {
	HandlerID string
	Token     string
}

// UpdateInput carries a session update. Nil pointers mean "field absent,
// leave unchanged". Promotions distinguishes absent (nil) from empty
// (remove all coupons).
type UpdateInput struct {
	Buyer                    *BuyerInput
	Destination              *types.Address
	SelectedShippingOptionID *string
	PaymentInstrument        *PaymentInstrumentInput
	Promotions               *[]string
}

// CompleteInput is the payment mandate presented at completion. Empty
// fields fall back to the instrument cached by a prior update.
type CompleteInput struct {
	HandlerID string
	Token     string
}

// LineItemView is a presented cart line.
type LineItemView struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	Qty            int
	UnitPriceCents int
	TotalCents     int
}

// Totals is the session money summary in minor units.
type Totals struct {
	SubtotalCents int
	DiscountCents int
	ShippingCents int
	TotalCents    int
}

// View is the dialect-independent session representation; controllers shape
// it into each wire format.
type View struct {
	Number                   int64
	Status                   enums.CheckoutStatus
	Currency                 enums.Currency
	LineItems                []LineItemView
	Totals                   Totals
	Buyer                    *BuyerInput
	Destination              *types.Address
	ShippingOptions          []shipping.Option
	SelectedShippingOptionID *string
	CouponCodes              []string
	Messages                 []types.Message
	CreatedAt                time.Time
}

// CompleteResult reports a completion attempt that reached a decision:
// either the order is placed or the session escalated.
type CompleteResult struct {
	Session     *View
	OrderNumber int64
	Escalated   bool
	Messages    []types.Message
}
