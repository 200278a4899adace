package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// Order is the durable commerce record. A checkout session is a view over
// exactly one order; the native status column is the single source of truth
// every externally visible status derives from.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64                   `gorm:"column:order_number;not null;uniqueIndex"`
	Status            enums.NativeOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Currency          enums.Currency          `gorm:"column:currency;type:text;not null;default:'USD'"`
	BuyerEmail        string                  `gorm:"column:buyer_email;not null;default:''"`
	BuyerFirstName    string                  `gorm:"column:buyer_first_name;not null;default:''"`
	BuyerLastName     string                  `gorm:"column:buyer_last_name;not null;default:''"`
	ShippingAddress   *types.Address          `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	SubtotalCents     int                     `gorm:"column:subtotal_cents;not null;default:0"`
	DiscountCents     int                     `gorm:"column:discount_cents;not null;default:0"`
	ShippingCents     int                     `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents        int                     `gorm:"column:total_cents;not null;default:0"`
	PaymentReference  *string                 `gorm:"column:payment_reference"`
	Items             []OrderLineItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Refunds           []OrderRefund           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	FulfillmentEvents []FulfillmentEvent      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Session           *CheckoutSession        `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// RefundedCents sums the recorded refund history. Always computed at read
// time, never cached.
func (o *Order) RefundedCents() int {
	total := 0
	for _, refund := range o.Refunds {
		total += refund.AmountCents
	}
	return total
}
