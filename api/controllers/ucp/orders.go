package ucp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/api/validators"
	ordersvc "github.com/shopwalk/shopwalk-backend/internal/orders"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

func OrderGet(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "orderId"))
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(view))
	}
}

func OrderList(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.URL.Query().Get("email")
		if email == "" {
			responses.WriteUCPError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "email query parameter required"))
			return
		}

		params := pagination.ParseQuery(r.URL.Query().Get("page"), r.URL.Query().Get("per_page"))
		list, err := svc.ListByEmail(r.Context(), email, params)
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		items := make([]orderResponse, 0, len(list.Orders))
		for i := range list.Orders {
			items = append(items, newOrderResponse(&list.Orders[i]))
		}
		responses.WriteSuccess(w, orderListResponse{Orders: items, Meta: list.Meta})
	}
}

func OrderRefund(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body refundRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		refund, err := svc.Refund(r.Context(), chi.URLParam(r, "orderId"), ordersvc.RefundInput{
			Reason:      body.Reason,
			AmountCents: body.AmountCents,
		})
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newRefundResponse(refund))
	}
}

// OrderFulfillment appends a timeline event. A shipped event moves the
// native status forward and notifies registered endpoints.
func OrderFulfillment(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body fulfillmentEventRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		eventType, err := enums.ParseFulfillmentEventType(body.Type)
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		view, err := svc.RecordFulfillment(r.Context(), chi.URLParam(r, "orderId"), ordersvc.FulfillmentInput{
			Type:           eventType,
			TrackingNumber: body.TrackingNumber,
			TrackingURL:    body.TrackingURL,
		})
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderResponse(view))
	}
}

// OrderStatus is the admin-facing native status transition.
func OrderStatus(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body orderStatusRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParseNativeOrderStatus(body.Status)
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, err.Error()))
			return
		}

		view, err := svc.UpdateNativeStatus(r.Context(), chi.URLParam(r, "orderId"), status)
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(view))
	}
}

type refundRequest struct {
	Reason      string `json:"reason,omitempty"`
	AmountCents *int   `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
}

type fulfillmentEventRequest struct {
	Type           string  `json:"type" validate:"required"`
	TrackingNumber *string `json:"tracking_number,omitempty"`
	TrackingURL    *string `json:"tracking_url,omitempty" validate:"omitempty,url"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type orderResponse struct {
	ID                string                     `json:"id"`
	Status            string                     `json:"status"`
	Currency          string                     `json:"currency"`
	Buyer             buyerPayload               `json:"buyer"`
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
		refunds = append(refunds, refundResponse{
			ID:          refund.ID,
			AmountCents: refund.AmountCents,
			Reason:      refund.Reason,
			Status:      string(refund.Status),
			CreatedAt:   refund.CreatedAt,
		})
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
		ID:       ordersvc.UCPOrderID(view.Number),
		Status:   string(view.Status),
		Currency: string(view.Currency),
		Buyer: buyerPayload{
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
		CheckoutSessionID: view.CheckoutSessionID,
		CreatedAt:         view.CreatedAt,
	}
}

func newRefundResponse(refund *ordersvc.RefundView) refundResponse {
	if refund == nil {
		return refundResponse{}
	}
	return refundResponse{
		ID:          refund.ID,
		AmountCents: refund.AmountCents,
		Reason:      refund.Reason,
		Status:      string(refund.Status),
		CreatedAt:   refund.CreatedAt,
	}
}
