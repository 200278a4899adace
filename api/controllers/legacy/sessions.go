package legacy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/api/validators"
	"github.com/shopwalk/shopwalk-backend/internal/catalog"
	"github.com/shopwalk/shopwalk-backend/internal/orders"
	sessionsvc "github.com/shopwalk/shopwalk-backend/internal/session"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// SessionCreate opens a checkout session from a line-item list. Items that
// fail to resolve become messages on the response rather than a hard error.
func SessionCreate(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteLegacyError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var body createSessionRequest
		if err := validators.DecodeStrict(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(view))
	}
}

func SessionGet(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(view))
	}
}

// SessionUpdate applies any subset of buyer, fulfillment, payment and
// promotions. Each provided group replaces the prior value wholesale;
// address sub-fields fill in over the stored destination.
func SessionUpdate(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateSessionRequest
		if err := validators.DecodeStrict(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), chi.URLParam(r, "sessionId"), body.toInput())
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(view))
	}
}

// SessionComplete charges the mandate and places the order. A gateway
// decline escalates the session and surfaces as a 402 in this dialect.
func SessionComplete(svc sessionsvc.Service, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body completeSessionRequest
		if err := validators.DecodeStrict(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), chi.URLParam(r, "sessionId"), sessionsvc.CompleteInput{
			HandlerID: body.PaymentMandate.HandlerID,
			Token:     body.PaymentMandate.Token,
		})
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		if result.Escalated {
			responses.WriteLegacyError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodePaymentDeclined, "payment was declined"))
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, completeSessionResponse{
			ID:           orders.LegacyOrderID(result.OrderNumber),
			CheckoutID:   sessionsvc.LegacyID(result.OrderNumber),
			PermalinkURL: baseURL + "/order/" + orders.UCPOrderID(result.OrderNumber),
			LineItems:    newLineItemResponses(result.Session.LineItems),
			Totals:       newTotalsResponse(result.Session.Totals),
			Fulfillment:  newFulfillmentResponse(result.Session),
		})
	}
}

func SessionCancel(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := svc.Cancel(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cancelled"})
	}
}

// SessionShippingOptions quotes rates for the session's stored destination.
// The legacy dialect fetches options on demand; the current dialect embeds
// them in the session body instead.
func SessionShippingOptions(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		options := make([]shippingOptionResponse, 0, len(view.ShippingOptions))
		for _, opt := range view.ShippingOptions {
			options = append(options, shippingOptionResponse{
				ID:     opt.ID,
				Title:  opt.Title,
				Totals: shippingOptionTotals{TotalCents: opt.CostCents},
			})
		}
		responses.WriteSuccess(w, shippingOptionsResponse{
			Groups: []shippingGroupResponse{{ID: "default", Options: options}},
		})
	}
}

type createSessionRequest struct {
	LineItems []createLineItemRequest `json:"line_items" validate:"required,min=1,dive"`
}

type createLineItemRequest struct {
	Item     itemRefRequest `json:"item"`
	Quantity int            `json:"quantity"`
}

type itemRefRequest struct {
	ID         string            `json:"id" validate:"required"`
	VariantID  string            `json:"variant_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (req createSessionRequest) toInput() sessionsvc.CreateInput {
	items := make([]sessionsvc.ItemInput, 0, len(req.LineItems))
	for _, line := range req.LineItems {
		items = append(items, sessionsvc.ItemInput{
			Ref: catalog.ItemRef{
				ProductRef: line.Item.ID,
				VariantRef: line.Item.VariantID,
				Attributes: line.Item.Attributes,
			},
			Qty: line.Quantity,
		})
	}
	return sessionsvc.CreateInput{Items: items}
}

type updateSessionRequest struct {
	Buyer       *buyerRequest       `json:"buyer,omitempty"`
	Fulfillment *fulfillmentRequest `json:"fulfillment,omitempty"`
	Payment     *paymentRequest     `json:"payment,omitempty"`
	Promotions  *[]promotionRequest `json:"promotions,omitempty"`
}

type buyerRequest struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type fulfillmentRequest struct {
	Destinations []types.Address           `json:"destinations,omitempty"`
	Groups       []fulfillmentGroupRequest `json:"groups,omitempty"`
}

type fulfillmentGroupRequest struct {
	SelectedOptionID *string `json:"selected_option_id,omitempty"`
}

type paymentRequest struct {
	Instruments []paymentInstrumentRequest `json:"instruments,omitempty"`
}

type paymentInstrumentRequest struct {
	HandlerID string `json:"handler_id,omitempty"`
	Token     string `json:"token,omitempty"`
}

type promotionRequest struct {
	Code string `json:"code" validate:"required"`
}

func (req updateSessionRequest) toInput() sessionsvc.UpdateInput {
	input := sessionsvc.UpdateInput{}
	if req.Buyer != nil {
		input.Buyer = &sessionsvc.BuyerInput{
			Email:     req.Buyer.Email,
			FirstName: req.Buyer.FirstName,
			LastName:  req.Buyer.LastName,
		}
	}
	if req.Fulfillment != nil {
		if len(req.Fulfillment.Destinations) > 0 {
			dest := req.Fulfillment.Destinations[0]
			input.Destination = &dest
		}
		if len(req.Fulfillment.Groups) > 0 && req.Fulfillment.Groups[0].SelectedOptionID != nil {
			input.SelectedShippingOptionID = req.Fulfillment.Groups[0].SelectedOptionID
		}
	}
	if req.Payment != nil && len(req.Payment.Instruments) > 0 {
		inst := req.Payment.Instruments[0]
		input.PaymentInstrument = &sessionsvc.PaymentInstrumentInput{
			HandlerID: inst.HandlerID,
			Token:     inst.Token,
		}
	}
	if req.Promotions != nil {
		codes := make([]string, 0, len(*req.Promotions))
		for _, promo := range *req.Promotions {
			codes = append(codes, promo.Code)
		}
		input.Promotions = &codes
	}
	return input
}

type completeSessionRequest struct {
	PaymentMandate paymentMandateRequest `json:"payment_mandate"`
}

type paymentMandateRequest struct {
	HandlerID string `json:"handler_id,omitempty"`
	Token     string `json:"token,omitempty"`
}

type sessionResponse struct {
	ID          string                `json:"id"`
	Status      string                `json:"status"`
	Currency    string                `json:"currency"`
	LineItems   []lineItemResponse    `json:"line_items"`
	Totals      totalsResponse        `json:"totals"`
	Buyer       *buyerRequest         `json:"buyer,omitempty"`
	Fulfillment *fulfillmentResponse  `json:"fulfillment,omitempty"`
	Promotions  []promotionRequest    `json:"promotions,omitempty"`
	Messages    []types.Message       `json:"messages,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

type lineItemResponse struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"product_id"`
	VariantID      *uuid.UUID `json:"variant_id,omitempty"`
	Name           string     `json:"name"`
	Quantity       int        `json:"quantity"`
	UnitPriceCents int        `json:"unit_price_cents"`
	TotalCents     int        `json:"total_cents"`
}

type totalsResponse struct {
	SubtotalCents int `json:"subtotal_cents"`
	DiscountCents int `json:"discount_cents"`
	ShippingCents int `json:"shipping_cents"`
	TotalCents    int `json:"total_cents"`
}

type fulfillmentResponse struct {
	Destinations []types.Address            `json:"destinations,omitempty"`
	Groups       []fulfillmentGroupResponse `json:"groups"`
}

type fulfillmentGroupResponse struct {
	ID               string  `json:"id"`
	SelectedOptionID *string `json:"selected_option_id,omitempty"`
}

type completeSessionResponse struct {
	ID           string               `json:"id"`
	CheckoutID   string               `json:"checkout_id"`
	PermalinkURL string               `json:"permalink_url"`
	LineItems    []lineItemResponse   `json:"line_items"`
	Totals       totalsResponse       `json:"totals"`
	Fulfillment  *fulfillmentResponse `json:"fulfillment,omitempty"`
}

type shippingOptionsResponse struct {
	Groups []shippingGroupResponse `json:"groups"`
}

type shippingGroupResponse struct {
	ID      string                   `json:"id"`
	Options []shippingOptionResponse `json:"options"`
}

type shippingOptionResponse struct {
	ID     string               `json:"id"`
	Title  string               `json:"title"`
	Totals shippingOptionTotals `json:"totals"`
}

type shippingOptionTotals struct {
	TotalCents int `json:"total_cents"`
}

func newSessionResponse(view *sessionsvc.View) sessionResponse {
	if view == nil {
		return sessionResponse{}
	}
	resp := sessionResponse{
		ID:        sessionsvc.LegacyID(view.Number),
		Status:    view.Status.LegacyValue(),
		Currency:  string(view.Currency),
		LineItems: newLineItemResponses(view.LineItems),
		Totals:    newTotalsResponse(view.Totals),
		Messages:  view.Messages,
		CreatedAt: view.CreatedAt,
	}
	if view.Buyer != nil {
		resp.Buyer = &buyerRequest{
			Email:     view.Buyer.Email,
			FirstName: view.Buyer.FirstName,
			LastName:  view.Buyer.LastName,
		}
	}
	resp.Fulfillment = newFulfillmentResponse(view)
	for _, code := range view.CouponCodes {
		resp.Promotions = append(resp.Promotions, promotionRequest{Code: code})
	}
	return resp
}

func newLineItemResponses(items []sessionsvc.LineItemView) []lineItemResponse {
	out := make([]lineItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, lineItemResponse{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Quantity:       item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	return out
}

func newTotalsResponse(totals sessionsvc.Totals) totalsResponse {
	return totalsResponse{
		SubtotalCents: totals.SubtotalCents,
		DiscountCents: totals.DiscountCents,
		ShippingCents: totals.ShippingCents,
		TotalCents:    totals.TotalCents,
	}
}

func newFulfillmentResponse(view *sessionsvc.View) *fulfillmentResponse {
	if view == nil || (view.Destination == nil && view.SelectedShippingOptionID == nil) {
		return nil
	}
	resp := &fulfillmentResponse{
		Groups: []fulfillmentGroupResponse{{ID: "default", SelectedOptionID: view.SelectedShippingOptionID}},
	}
	if view.Destination != nil {
		resp.Destinations = []types.Address{*view.Destination}
	}
	return resp
}
