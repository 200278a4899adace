package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/internal/session"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/metrics"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StatusNotifier is told about order status transitions so webhook
// deliveries can fire. Implementations must not block the caller.
type StatusNotifier interface {
	OrderUpdated(ctx context.Context, orderID uuid.UUID)
}

type service struct {
	repo     Repository
	tx       txRunner
	notifier StatusNotifier
	commerce *metrics.CommerceMetrics
	baseURL  string
}

// NewService builds the order projection and refund engine. notifier and
// commerce may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	notifier StatusNotifier,
	commerce *metrics.CommerceMetrics,
	merchantCfg config.MerchantConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		notifier: notifier,
		commerce: commerce,
		baseURL:  strings.TrimRight(merchantCfg.BaseURL, "/"),
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*View, error) {
	order, err := s.loadCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.project(order), nil
}

func (s *service) GetByID(ctx context.Context, orderID uuid.UUID) (*View, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return s.project(order), nil
}

func (s *service) ListByEmail(ctx context.Context, email string, params pagination.Params) (*List, error) {
	if strings.TrimSpace(email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	orders, total, err := s.repo.ListCompletedByEmail(ctx, email, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	list := &List{Meta: pagination.NewMeta(params, total)}
	for i := range orders {
		list.Orders = append(list.Orders, *s.project(&orders[i]))
	}
	return list, nil
}

func (s *service) Refund(ctx context.Context, id string, input RefundInput) (*RefundView, error) {
	order, err := s.loadCompleted(ctx, id)
	if err != nil {
		return nil, err
	}

	// The available balance is computed from the refund history at request
	// time, never cached.
	available := order.TotalCents - order.RefundedCents()
	amount := available
	if input.AmountCents != nil {
		amount = *input.AmountCents
		if amount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidRefundAmount, "refund amount must be greater than zero")
		}
		if amount > available {
			return nil, pkgerrors.New(pkgerrors.CodeRefundExceedsTotal, "refund amount exceeds the refundable balance").
				WithDetails(map[string]any{"available_cents": available})
		}
	} else if amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidRefundAmount, "order has no refundable balance")
	}

	refund := &models.OrderRefund{
		ID:          uuid.New(),
		OrderID:     order.ID,
		AmountCents: amount,
		Reason:      strings.TrimSpace(input.Reason),
		Status:      enums.RefundStatusPending,
	}
	fullyRefunded := amount == available
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateRefund(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record refund")
		}
		if fullyRefunded {
			if err := repo.UpdateStatus(ctx, order.ID, enums.NativeOrderStatusRefunded); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commerce.IncRefundRecorded()
	if fullyRefunded {
		s.notify(ctx, order.ID)
	}
	return &RefundView{
		ID:          refund.ID,
		AmountCents: refund.AmountCents,
		Reason:      refund.Reason,
		Status:      refund.Status,
		CreatedAt:   refund.CreatedAt,
	}, nil
}

func (s *service) RecordFulfillment(ctx context.Context, id string, input FulfillmentInput) (*View, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid fulfillment event type")
	}
	order, err := s.loadCompleted(ctx, id)
	if err != nil {
		return nil, err
	}

	event := &models.FulfillmentEvent{
		ID:             uuid.New(),
		OrderID:        order.ID,
		Type:           input.Type,
		TrackingNumber: input.TrackingNumber,
		TrackingURL:    input.TrackingURL,
	}
	shipped := input.Type == enums.FulfillmentEventShipped
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateFulfillmentEvent(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record fulfillment event")
		}
		if shipped {
			if err := repo.UpdateStatus(ctx, order.ID, enums.NativeOrderStatusShipped); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.FulfillmentEvents = append(order.FulfillmentEvents, *event)
	if shipped {
		order.Status = enums.NativeOrderStatusShipped
		s.notify(ctx, order.ID)
	}
	return s.project(order), nil
}

func (s *service) UpdateNativeStatus(ctx context.Context, id string, status enums.NativeOrderStatus) (*View, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	order, err := s.loadCompleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return s.project(order), nil
	}
	if err := s.repo.UpdateStatus(ctx, order.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	s.notify(ctx, order.ID)
	return s.project(order), nil
}

// loadCompleted resolves any public order id encoding and enforces the
// completed-checkout rule: an order whose session never completed resolves
// as not-found even though the record exists.
func (s *service) loadCompleted(ctx context.Context, id string) (*models.Order, error) {
	number, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.Session == nil || order.Session.Status != enums.CheckoutStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) notify(ctx context.Context, orderID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderUpdated(ctx, orderID)
}

func (s *service) project(order *models.Order) *View {
	return Project(order, s.baseURL)
}

// Project builds the externally served order view. The UCP status is
// recomputed from the native status on every call.
func Project(order *models.Order, baseURL string) *View {
	view := &View{
		Number:          order.OrderNumber,
		Status:          enums.UCPStatusFor(order.Status),
		NativeStatus:    order.Status,
		Currency:        order.Currency,
		BuyerEmail:      order.BuyerEmail,
		BuyerFirstName:  order.BuyerFirstName,
		BuyerLastName:   order.BuyerLastName,
		ShippingAddress: order.ShippingAddress,
		SubtotalCents:   order.SubtotalCents,
		DiscountCents:   order.DiscountCents,
		ShippingCents:   order.ShippingCents,
		TotalCents:      order.TotalCents,
		RefundedCents:   order.RefundedCents(),
		PermalinkURL:    fmt.Sprintf("%s/order/%s", strings.TrimRight(baseURL, "/"), UCPOrderID(order.OrderNumber)),
		CreatedAt:       order.CreatedAt,
	}
	if order.Session != nil {
		view.CheckoutSessionID = session.UCPID(order.OrderNumber)
	}
	for _, item := range order.Items {
		view.LineItems = append(view.LineItems, LineItemView{
			ID:             item.ID,
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
			TotalCents:     item.TotalCents,
		})
	}
	for _, refund := range order.Refunds {
		view.Refunds = append(view.Refunds, RefundView{
			ID:          refund.ID,
			AmountCents: refund.AmountCents,
			Reason:      refund.Reason,
			Status:      refund.Status,
			CreatedAt:   refund.CreatedAt,
		})
	}
	for _, event := range order.FulfillmentEvents {
		view.FulfillmentEvents = append(view.FulfillmentEvents, FulfillmentEventView{
			ID:             event.ID,
			Type:           event.Type,
			TrackingNumber: event.TrackingNumber,
			TrackingURL:    event.TrackingURL,
			CreatedAt:      event.CreatedAt,
		})
	}
	return view
}
