package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// LineItemView is a presented order line.
type LineItemView struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	Qty            int
	UnitPriceCents int
	TotalCents     int
}

// RefundView is one entry of the refund history.
type RefundView struct {
	ID          uuid.UUID
	AmountCents int
	Reason      string
	Status      enums.RefundStatus
	CreatedAt   time.Time
}

// FulfillmentEventView is one timeline entry.
type FulfillmentEventView struct {
	ID             uuid.UUID
	Type           enums.FulfillmentEventType
	TrackingNumber *string
	TrackingURL    *string
	CreatedAt      time.Time
}

// View is the order projection served to both dialects. Status is always
// recomputed from the native status at read time.
type View struct {
	Number            int64
	Status            enums.UCPOrderStatus
	NativeStatus      enums.NativeOrderStatus
	Currency          enums.Currency
	BuyerEmail        string
	BuyerFirstName    string
	BuyerLastName     string
	ShippingAddress   *types.Address
	LineItems         []LineItemView
	SubtotalCents     int
	DiscountCents     int
	ShippingCents     int
	TotalCents        int
	RefundedCents     int
	Refunds           []RefundView
	FulfillmentEvents []FulfillmentEventView
	PermalinkURL      string
	CheckoutSessionID string
	CreatedAt         time.Time
}

// List is one page of order projections.
type List struct {
	Orders []View
	Meta   pagination.Meta
}

// RefundInput carries a refund request. A nil amount refunds the full
// remaining balance.
type RefundInput struct {
	Reason      string
	AmountCents *int
}

// FulfillmentInput records one timeline event.
type FulfillmentInput struct {
	Type           enums.FulfillmentEventType
	TrackingNumber *string
	TrackingURL    *string
}
