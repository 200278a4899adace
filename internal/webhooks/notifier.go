package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shopwalk/shopwalk-backend/internal/orders"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/metrics"
	"github.com/shopwalk/shopwalk-backend/pkg/signing"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

const (
	legacySignatureHeader = "X-Shopwalk-Sig"
	ucpSignatureHeader    = "X-UCP-Signature"
)

// Notifier delivers order webhooks. Delivery is one-shot and best-effort:
// failures are logged and counted, never retried, and never surfaced to the
// request that triggered them.
type Notifier struct {
	registrations Repository
	orders        orders.Repository
	signer        *signing.Signer
	client        *http.Client
	endpoint      string
	baseURL       string
	logger        *logger.Logger
	commerce      *metrics.CommerceMetrics

	// dispatch is swapped in tests to run deliveries synchronously.
	dispatch func(fn func())
}

// NewNotifier builds the webhook notifier. signer may be nil when no seed is
// configured; current-dialect deliveries are skipped in that case.
func NewNotifier(
	registrations Repository,
	ordersRepo orders.Repository,
	signer *signing.Signer,
	logg *logger.Logger,
	commerce *metrics.CommerceMetrics,
	webhooksCfg config.WebhooksConfig,
	merchantCfg config.MerchantConfig,
) (*Notifier, error) {
	if registrations == nil {
		return nil, fmt.Errorf("webhooks repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("webhooks logger required")
	}
	timeout := webhooksCfg.DeliveryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Notifier{
		registrations: registrations,
		orders:        ordersRepo,
		signer:        signer,
		client:        &http.Client{Timeout: timeout},
		endpoint:      webhooksCfg.PlatformEndpoint,
		baseURL:       merchantCfg.BaseURL,
		logger:        logg,
		commerce:      commerce,
		dispatch:      func(fn func()) { go fn() },
	}, nil
}

// OrderCompleted fires the order_created event.
func (n *Notifier) OrderCompleted(ctx context.Context, orderID uuid.UUID) {
	n.fire(ctx, enums.WebhookEventOrderCreated, orderID)
}

// OrderUpdated fires the order_updated event.
func (n *Notifier) OrderUpdated(ctx context.Context, orderID uuid.UUID) {
	n.fire(ctx, enums.WebhookEventOrderUpdated, orderID)
}

func (n *Notifier) fire(ctx context.Context, event enums.WebhookEvent, orderID uuid.UUID) {
	detached := context.WithoutCancel(ctx)
	n.dispatch(func() {
		if err := n.deliver(detached, event, orderID); err != nil {
			n.logger.Error(detached, "webhook delivery failed", err)
		}
	})
}

type payload struct {
	Event     string       `json:"event"`
	Order     orderPayload `json:"order"`
	CreatedAt time.Time    `json:"created_at"`
}

type orderPayload struct {
	ID                string                    `json:"id"`
	Status            string                    `json:"status"`
	NativeStatus      string                    `json:"native_status"`
	Currency          string                    `json:"currency"`
	BuyerEmail        string                    `json:"buyer_email"`
	ShippingAddress   *types.Address            `json:"shipping_address,omitempty"`
	LineItems         []lineItemPayload         `json:"line_items"`
	SubtotalCents     int                       `json:"subtotal_cents"`
	DiscountCents     int                       `json:"discount_cents"`
	ShippingCents     int                       `json:"shipping_cents"`
	TotalCents        int                       `json:"total_cents"`
	RefundedCents     int                       `json:"refunded_cents"`
	Refunds           []refundPayload           `json:"refunds"`
	FulfillmentEvents []fulfillmentEventPayload `json:"fulfillment_events"`
	CheckoutSessionID string                    `json:"checkout_session_id,omitempty"`
	PermalinkURL      string                    `json:"permalink_url"`
	CreatedAt         time.Time                 `json:"created_at"`
}

type lineItemPayload struct {
	Name           string `json:"name"`
	Qty            int    `json:"qty"`
	UnitPriceCents int    `json:"unit_price_cents"`
	TotalCents     int    `json:"total_cents"`
}

type refundPayload struct {
	AmountCents int       `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type fulfillmentEventPayload struct {
	Type           string    `json:"type"`
	TrackingNumber *string   `json:"tracking_number,omitempty"`
	TrackingURL    *string   `json:"tracking_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// deliver sends the full current order projection to every matching target.
// Consumers re-process whole objects, not deltas.
func (n *Notifier) deliver(ctx context.Context, event enums.WebhookEvent, orderID uuid.UUID) error {
	order, err := n.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order for webhook: %w", err)
	}
	// Orders created through other channels carry no session marker and
	// never trigger protocol webhooks.
	if order.Session == nil {
		return nil
	}

	view := orders.Project(order, n.baseURL)
	body, err := json.Marshal(buildPayload(event, view))
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	var errs error
	registrations, err := n.registrations.ListActiveForEvent(ctx, event)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("list registrations: %w", err))
	}
	for _, registration := range registrations {
		signature := signing.HMACSign(registration.Secret, body)
		if err := n.post(ctx, registration.URL, body, legacySignatureHeader, signature); err != nil {
			n.commerce.IncWebhookDelivery("failure")
			errs = multierr.Append(errs, fmt.Errorf("deliver to %s: %w", registration.URL, err))
			continue
		}
		n.commerce.IncWebhookDelivery("success")
	}

	if n.endpoint != "" && n.signer != nil {
		signature, err := n.signer.SignDetached(body)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sign webhook payload: %w", err))
		} else if err := n.post(ctx, n.endpoint, body, ucpSignatureHeader, signature); err != nil {
			n.commerce.IncWebhookDelivery("failure")
			errs = multierr.Append(errs, fmt.Errorf("deliver to platform endpoint: %w", err))
		} else {
			n.commerce.IncWebhookDelivery("success")
		}
	}
	return errs
}

func (n *Notifier) post(ctx context.Context, endpoint string, body []byte, header, signature string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(header, signature)

	resp, err := n.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func buildPayload(event enums.WebhookEvent, view *orders.View) payload {
	order := orderPayload{
		ID:                orders.UCPOrderID(view.Number),
		Status:            string(view.Status),
		NativeStatus:      string(view.NativeStatus),
		Currency:          string(view.Currency),
		BuyerEmail:        view.BuyerEmail,
		ShippingAddress:   view.ShippingAddress,
		SubtotalCents:     view.SubtotalCents,
		DiscountCents:     view.DiscountCents,
		ShippingCents:     view.ShippingCents,
		TotalCents:        view.TotalCents,
		RefundedCents:     view.RefundedCents,
		CheckoutSessionID: view.CheckoutSessionID,
		PermalinkURL:      view.PermalinkURL,
		CreatedAt:         view.CreatedAt,
	}
	for _, item := range view.LineItems {
		order.LineItems = append(order.LineItems, lineItemPayload{
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	for _, refund := range view.Refunds {
		order.Refunds = append(order.Refunds, refundPayload{
			AmountCents: refund.AmountCents,
			Reason:      refund.Reason,
			Status:      string(refund.Status),
			CreatedAt:   refund.CreatedAt,
		})
	}
	for _, fe := range view.FulfillmentEvents {
		order.FulfillmentEvents = append(order.FulfillmentEvents, fulfillmentEventPayload{
			Type:           string(fe.Type),
			TrackingNumber: fe.TrackingNumber,
			TrackingURL:    fe.TrackingURL,
			CreatedAt:      fe.CreatedAt,
		})
	}
	return payload{Event: string(event), Order: order, CreatedAt: time.Now().UTC()}
}
