package legacy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/api/validators"
	ordersvc "github.com/shopwalk/shopwalk-backend/internal/orders"
	sessionsvc "github.com/shopwalk/shopwalk-backend/internal/session"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// OrderGet serves the projection of a completed checkout. Orders whose
// session never completed read as not found.
func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(view))
	}
}

// OrderList pages completed orders for one buyer email.
func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			responses.WriteLegacyError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "email query parameter required"))
			return
		}

		page, err := validators.QueryInt(r, "page", 1, 1, 1<<30)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.QueryInt(r, "per_page", 0, 1, pagination.MaxPerPage)
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByEmail(r.Context(), email, pagination.Params{Page: page, PerPage: perPage})
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		orders := make([]orderResponse, 0, len(list.Orders))
		for i := range list.Orders {
			orders = append(orders, newOrderResponse(&list.Orders[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: orders, Meta: list.Meta})
	}
}

// OrderRefund records a refund against the remaining balance. Omitting the
// amount refunds whatever is left.
func OrderRefund(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refundRequest
		if err := validators.DecodeStrict(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Refund(r.Context(), chi.URLParam(r, "orderId"), ordersvc.RefundInput{
			Reason:      body.Reason,
			AmountCents: body.AmountCents,
		})
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRefundResponse(refund))
	}
}

type refundRequest struct {
	Reason      string `json:"reason,omitempty"`
	AmountCents *int   `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
}

type orderResponse struct {
	ID                string                     `json:"id"`
	Status            string                     `json:"status"`
	NativeStatus      string                     `json:"native_status"`
	Currency          string                     `json:"currency"`
	Buyer             buyerRequest               `json:"buyer"`
	ShippingAddress   *types.Address             `json:"shipping_address,omitempty"`
	LineItems         []lineItemResponse         `json:"line_items"`
	Totals            totalsResponse             `json:"totals"`
	RefundedCents     int                        `json:"refunded_cents"`
	Refunds           []refundResponse           `json:"refunds,omitempty"`
	FulfillmentEvents []fulfillmentEventResponse `json:"fulfillment_events,omitempty"`
	PermalinkURL      string                     `json:"permalink_url"`
	CheckoutSessionID string                     `json:"checkout_session_id"`
	CreatedAt         time.Time                  `json:"created_at"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

type refundResponse struct {
	ID          uuid.UUID `json:"id"`
	AmountCents int       `json:"amount_cents"`
	Reason      string    `json:"reason,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type fulfillmentEventResponse struct {
	ID             uuid.UUID `json:"id"`
	Type           string    `json:"type"`
	TrackingNumber *string   `json:"tracking_number,omitempty"`
	TrackingURL    *string   `json:"tracking_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func newOrderResponse(view *ordersvc.View) orderResponse {
	if view == nil {
		return orderResponse{}
	}
	items := make([]lineItemResponse, 0, len(view.LineItems))
	for _, item := range view.LineItems {
		items = append(items, lineItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Quantity:       item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	refunds := make([]refundResponse, 0, len(view.Refunds))
	for _, refund := range view.Refunds {
		refunds = append(refunds, newRefundResponseValue(refund))
	}
	events := make([]fulfillmentEventResponse, 0, len(view.FulfillmentEvents))
	for _, event := range view.FulfillmentEvents {
		events = append(events, fulfillmentEventResponse{
			ID:             event.ID,
			Type:           string(event.Type),
			TrackingNumber: event.TrackingNumber,
			TrackingURL:    event.TrackingURL,
			CreatedAt:      event.CreatedAt,
		})
	}
	return orderResponse{
		ID:           ordersvc.LegacyOrderID(view.Number),
		Status:       string(view.Status),
		NativeStatus: string(view.NativeStatus),
		Currency:     string(view.Currency),
		Buyer: buyerRequest{
			Email:     view.BuyerEmail,
			FirstName: view.BuyerFirstName,
			LastName:  view.BuyerLastName,
		},
		ShippingAddress: view.ShippingAddress,
		LineItems:       items,
		Totals: totalsResponse{
			SubtotalCents: view.SubtotalCents,
			DiscountCents: view.DiscountCents,
			ShippingCents: view.ShippingCents,
			TotalCents:    view.TotalCents,
		},
		RefundedCents:     view.RefundedCents,
		Refunds:           refunds,
		FulfillmentEvents: events,
		PermalinkURL:      view.PermalinkURL,
		CheckoutSessionID: sessionsvc.LegacyID(view.Number),
		CreatedAt:         view.CreatedAt,
	}
}

func newRefundResponse(refund *ordersvc.RefundView) refundResponse {
	if refund == nil {
		return refundResponse{}
	}
	return newRefundResponseValue(*refund)
}

func newRefundResponseValue(refund ordersvc.RefundView) refundResponse {
	return refundResponse{
		ID:          refund.ID,
		AmountCents: refund.AmountCents,
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		CreatedAt:   refund.CreatedAt,
	}
}
