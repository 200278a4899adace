package ucp

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

// SessionCreate opens a checkout session. Unresolvable items surface as
// recoverable messages addressed to their line-item path.
func SessionCreate(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteUCPError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session service unavailable"))
			return
		}

		var body createSessionRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(view))
	}
}

func SessionGet(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Get(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(view))
	}
}

// SessionUpdate applies path-addressed field groups. Provided groups
// replace prior state; destination sub-fields fill in over stored values.
func SessionUpdate(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateSessionRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Update(r.Context(), chi.URLParam(r, "sessionId"), body.toInput())
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(view))
	}
}

// SessionComplete places the order. A gateway decline does not error in
// this dialect; the session escalates and the caller is told so.
func SessionComplete(svc sessionsvc.Service, baseURL string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body completeSessionRequest
		if err := validators.DecodeLenient(r, &body); err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Complete(r.Context(), chi.URLParam(r, "sessionId"), body.toInput())
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}

		if result.Escalated {
			responses.WriteSuccess(w, completeSessionResponse{
				Status:   "requires_escalation",
				Messages: result.Messages,
			})
			return
		}
		responses.WriteSuccess(w, completeSessionResponse{
			Status: "completed",
			Order: &completedOrderResponse{
				ID:           orders.UCPOrderID(result.OrderNumber),
				PermalinkURL: baseURL + "/order/" + orders.UCPOrderID(result.OrderNumber),
			},
		})
	}
}

func SessionCancel(svc sessionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := svc.Cancel(r.Context(), chi.URLParam(r, "sessionId"))
		if err != nil {
			responses.WriteUCPError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(view))
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
	Buyer       *buyerPayload       `json:"buyer,omitempty"`
	Fulfillment *fulfillmentPayload `json:"fulfillment,omitempty"`
	Payment     *paymentPayload     `json:"payment,omitempty"`
	Promotions  *[]promotionPayload `json:"promotions,omitempty"`
}

type buyerPayload struct {
	Email     string `json:"email" validate:"omitempty,email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type fulfillmentPayload struct {
	Methods []fulfillmentMethodPayload `json:"methods,omitempty"`
}

type fulfillmentMethodPayload struct {
	Type         string                    `json:"type,omitempty"`
	Destinations []types.Address           `json:"destinations,omitempty"`
	Groups       []fulfillmentGroupPayload `json:"groups,omitempty"`
}

type fulfillmentGroupPayload struct {
	ID               string                   `json:"id,omitempty"`
	SelectedOptionID *string                  `json:"selected_option_id,omitempty"`
	Options          []shippingOptionPayload  `json:"options,omitempty"`
}

type shippingOptionPayload struct {
	ID     string                `json:"id"`
	Title  string                `json:"title"`
	Totals shippingTotalsPayload `json:"totals"`
}

type shippingTotalsPayload struct {
	TotalCents int `json:"total_cents"`
}

type paymentPayload struct {
	Instruments []paymentInstrumentPayload `json:"instruments,omitempty"`
}

type paymentInstrumentPayload struct {
	Credential credentialPayload `json:"credential"`
}

type credentialPayload struct {
	Type  string `json:"type,omitempty"`
	Token string `json:"token,omitempty"`
}

type promotionPayload struct {
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
	if req.Fulfillment != nil && len(req.Fulfillment.Methods) > 0 {
		method := req.Fulfillment.Methods[0]
		if len(method.Destinations) > 0 {
			dest := method.Destinations[0]
			input.Destination = &dest
		}
		if len(method.Groups) > 0 && method.Groups[0].SelectedOptionID != nil {
			input.SelectedShippingOptionID = method.Groups[0].SelectedOptionID
		}
	}
	if req.Payment != nil && len(req.Payment.Instruments) > 0 {
		cred := req.Payment.Instruments[0].Credential
		input.PaymentInstrument = &sessionsvc.PaymentInstrumentInput{
			HandlerID: cred.Type,
			Token:     cred.Token,
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
	Payment *paymentPayload `json:"payment,omitempty"`
}

func (req completeSessionRequest) toInput() sessionsvc.CompleteInput {
	if req.Payment == nil || len(req.Payment.Instruments) == 0 {
		return sessionsvc.CompleteInput{}
	}
	cred := req.Payment.Instruments[0].Credential
	return sessionsvc.CompleteInput{HandlerID: cred.Type, Token: cred.Token}
}

type sessionResponse struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Currency    string              `json:"currency"`
	LineItems   []lineItemResponse  `json:"line_items"`
	Totals      totalsResponse      `json:"totals"`
	Buyer       *buyerPayload       `json:"buyer,omitempty"`
	Fulfillment *fulfillmentPayload `json:"fulfillment,omitempty"`
	Promotions  []promotionPayload  `json:"promotions,omitempty"`
	Messages    []types.Message     `json:"messages,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
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

type completeSessionResponse struct {
	Status   string                  `json:"status"`
	Order    *completedOrderResponse `json:"order,omitempty"`
	Messages []types.Message         `json:"messages,omitempty"`
}

type completedOrderResponse struct {
	ID           string `json:"id"`
	PermalinkURL string `json:"permalink_url"`
}

func newSessionResponse(view *sessionsvc.View) sessionResponse {
	if view == nil {
		return sessionResponse{}
	}
	resp := sessionResponse{
		ID:        sessionsvc.UCPID(view.Number),
		Status:    string(view.Status),
		Currency:  string(view.Currency),
		LineItems: newLineItemResponses(view.LineItems),
		Totals: totalsResponse{
			SubtotalCents: view.Totals.SubtotalCents,
			DiscountCents: view.Totals.DiscountCents,
			ShippingCents: view.Totals.ShippingCents,
			TotalCents:    view.Totals.TotalCents,
		},
		Messages:  view.Messages,
		CreatedAt: view.CreatedAt,
	}
	if view.Buyer != nil {
		resp.Buyer = &buyerPayload{
			Email:     view.Buyer.Email,
			FirstName: view.Buyer.FirstName,
			LastName:  view.Buyer.LastName,
		}
	}
	resp.Fulfillment = newFulfillmentPayload(view)
	for _, code := range view.CouponCodes {
		resp.Promotions = append(resp.Promotions, promotionPayload{Code: code})
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

// newFulfillmentPayload embeds live shipping options in the session body
// whenever a destination is known, so agents never need a second call.
func newFulfillmentPayload(view *sessionsvc.View) *fulfillmentPayload {
	if view.Destination == nil && view.SelectedShippingOptionID == nil {
		return nil
	}
	group := fulfillmentGroupPayload{
		ID:               "default",
		SelectedOptionID: view.SelectedShippingOptionID,
	}
	for _, opt := range view.ShippingOptions {
		group.Options = append(group.Options, shippingOptionPayload{
			ID:     opt.ID,
			Title:  opt.Title,
			Totals: shippingTotalsPayload{TotalCents: opt.CostCents},
		})
	}
	method := fulfillmentMethodPayload{
		Type:   "shipping",
		Groups: []fulfillmentGroupPayload{group},
	}
	if view.Destination != nil {
		method.Destinations = []types.Address{*view.Destination}
	}
	return &fulfillmentPayload{Methods: []fulfillmentMethodPayload{method}}
}
