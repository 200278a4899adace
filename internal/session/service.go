package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/internal/catalog"
	"github.com/shopwalk/shopwalk-backend/internal/payments"
	"github.com/shopwalk/shopwalk-backend/internal/promotions"
	"github.com/shopwalk/shopwalk-backend/internal/shipping"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db"
	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/metrics"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// CompletionHook is notified exactly once after a session completes
// successfully. It runs after the completing transaction commits.
type CompletionHook interface {
	OrderCompleted(ctx context.Context, orderID uuid.UUID)
}

type service struct {
	repo     Repository
	tx       txRunner
	catalog  catalog.Service
	promos   promotions.Service
	shipping shipping.Service
	payments payments.Adapter
	hook     CompletionHook
	commerce *metrics.CommerceMetrics
	ttl      time.Duration
	currency enums.Currency
	domain   string
	now      func() time.Time
}

// NewService builds the checkout session state machine. hook and commerce
// may be nil.
func NewService(
	repo Repository,
	tx txRunner,
	catalogSvc catalog.Service,
	promosSvc promotions.Service,
	shippingSvc shipping.Service,
	adapter payments.Adapter,
	hook CompletionHook,
	commerce *metrics.CommerceMetrics,
	checkoutCfg config.CheckoutConfig,
	merchantCfg config.MerchantConfig,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("session repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalogSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if promosSvc == nil {
		return nil, fmt.Errorf("promotions service required")
	}
	if shippingSvc == nil {
		return nil, fmt.Errorf("shipping service required")
	}
	if adapter == nil {
		return nil, fmt.Errorf("payment adapter required")
	}
	ttl := checkoutCfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	currency, err := enums.ParseCurrency(merchantCfg.Currency)
	if err != nil {
		return nil, err
	}
	return &service{
		repo:     repo,
		tx:       tx,
		catalog:  catalogSvc,
		promos:   promosSvc,
		shipping: shippingSvc,
		payments: adapter,
		hook:     hook,
		commerce: commerce,
		ttl:      ttl,
		currency: currency,
		domain:   merchantCfg.Domain,
		now:      time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*View, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "line_items must not be empty")
	}

	type accepted struct {
		candidate catalog.LineItemCandidate
		qty       int
	}
	var (
		acceptedItems []accepted
		messages      []types.Message
	)
	for i, item := range input.Items {
		if item.Qty < 1 {
			messages = append(messages, types.NewRecoverableMessage(
				"invalid_quantity",
				fmt.Sprintf("$.line_items[%d].quantity", i),
				"quantity must be at least 1",
			))
			continue
		}
		resolution, err := s.catalog.Resolve(ctx, item.Ref, item.Qty)
		if err != nil {
			return nil, err
		}
		switch resolution.Result {
		case catalog.ResolutionOK:
			acceptedItems = append(acceptedItems, accepted{candidate: *resolution.Candidate, qty: item.Qty})
		case catalog.ResolutionOutOfStock:
			messages = append(messages, types.NewRecoverableMessage(
				"out_of_stock",
				fmt.Sprintf("$.line_items[%d]", i),
				fmt.Sprintf("item %q is out of stock", item.Ref.ProductRef),
			))
		default:
			messages = append(messages, types.NewRecoverableMessage(
				"item_not_found",
				fmt.Sprintf("$.line_items[%d]", i),
				fmt.Sprintf("item %q could not be found", item.Ref.ProductRef),
			))
		}
	}

	// Rejected items never fail the request as a whole; a session with zero
	// accepted items is still created with a zero total.
	var created *models.CheckoutSession
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		subtotal := 0
		order := &models.Order{
			ID:          uuid.New(),
			OrderNumber: number,
			Status:      enums.NativeOrderStatusPending,
			Currency:    s.currency,
		}
		items := make([]models.OrderLineItem, 0, len(acceptedItems))
		for _, item := range acceptedItems {
			total := item.candidate.UnitPriceCents * item.qty
			subtotal += total
			items = append(items, models.OrderLineItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				ProductID:      item.candidate.ProductID,
				VariantID:      item.candidate.VariantID,
				Name:           item.candidate.Name,
				Qty:            item.qty,
				UnitPriceCents: item.candidate.UnitPriceCents,
				TotalCents:     total,
			})
		}
		order.SubtotalCents = subtotal
		order.TotalCents = subtotal

		if err := repo.CreateOrder(ctx, order); err != nil {
			// Two concurrent creates can allocate the same order number;
			// the unique index turns the loser into a retryable conflict.
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, retry the request")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		sess := &models.CheckoutSession{
			ID:      uuid.New(),
			OrderID: order.ID,
			Status:  enums.CheckoutStatusIncomplete,
		}
		if err := repo.CreateSession(ctx, sess); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
		}
		order.Items = items
		sess.Order = order
		sess.CreatedAt = s.now()
		created = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.commerce.IncSessionCreated()
	return s.buildView(created, messages), nil
}

func (s *service) Get(ctx context.Context, id string) (*View, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildView(sess, nil), nil
}

func (s *service) Update(ctx context.Context, id string, input UpdateInput) (*View, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rejectTerminal(sess); err != nil {
		return nil, err
	}
	order := sess.Order

	orderUpdates := map[string]any{}
	sessionUpdates := map[string]any{}

	// Each provided group replaces prior state wholesale; address sub-fields
	// are the one exception and fill in over the stored value.
	if input.Buyer != nil {
		order.BuyerEmail = strings.TrimSpace(input.Buyer.Email)
		order.BuyerFirstName = strings.TrimSpace(input.Buyer.FirstName)
		order.BuyerLastName = strings.TrimSpace(input.Buyer.LastName)
		orderUpdates["buyer_email"] = order.BuyerEmail
		orderUpdates["buyer_first_name"] = order.BuyerFirstName
		orderUpdates["buyer_last_name"] = order.BuyerLastName
	}
	if input.Destination != nil {
		base := types.Address{}
		if order.ShippingAddress != nil {
			base = *order.ShippingAddress
		}
		merged := input.Destination.MergedInto(base)
		order.ShippingAddress = &merged
		orderUpdates["shipping_address"] = &merged
	}
	if input.SelectedShippingOptionID != nil {
		selected := strings.TrimSpace(*input.SelectedShippingOptionID)
		if selected == "" {
			sess.SelectedShippingOptionID = nil
			sessionUpdates["selected_shipping_option_id"] = nil
		} else {
			sess.SelectedShippingOptionID = &selected
			sessionUpdates["selected_shipping_option_id"] = selected
		}
	}
	if input.PaymentInstrument != nil {
		handler := strings.TrimSpace(input.PaymentInstrument.HandlerID)
		token := strings.TrimSpace(input.PaymentInstrument.Token)
		sess.PaymentHandlerID = &handler
		sess.PaymentToken = &token
		sessionUpdates["payment_handler_id"] = handler
		sessionUpdates["payment_token"] = token
	}

	if input.Promotions != nil {
		// Validate the whole requested set before touching the applied set;
		// the first invalid code leaves the session untouched.
		coupons, err := s.promos.ValidateCodes(ctx, *input.Promotions)
		if err != nil {
			return nil, err
		}
		codes := make(pq.StringArray, 0, len(coupons))
		for _, coupon := range coupons {
			codes = append(codes, coupon.Code)
		}
		sess.CouponCodes = codes
		sessionUpdates["coupon_codes"] = codes
		order.DiscountCents = s.promos.DiscountCents(coupons, order.SubtotalCents)
		orderUpdates["discount_cents"] = order.DiscountCents
	}

	order.ShippingCents = s.shippingCents(sess)
	order.TotalCents = totalCents(order)
	orderUpdates["shipping_cents"] = order.ShippingCents
	orderUpdates["total_cents"] = order.TotalCents

	if next := s.computeStatus(sess); next != sess.Status {
		sess.Status = next
		sessionUpdates["status"] = next
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return repo.UpdateSession(ctx, sess.ID, sess.Version, sessionUpdates)
	})
	if err != nil {
		return nil, err
	}
	sess.Version++
	return s.buildView(sess, nil), nil
}

func (s *service) Complete(ctx context.Context, id string, input CompleteInput) (*CompleteResult, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.rejectTerminal(sess); err != nil {
		return nil, err
	}
	order := sess.Order

	if missing := missingFieldMessages(order); len(missing) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeMissingFields, "required checkout fields missing").
			WithDetails(missing)
	}

	// Synthetic identity is derived from the session id, never from request
	// content, so repeated attempts regenerate the same buyer.
	if strings.TrimSpace(order.BuyerEmail) == "" {
		order.BuyerEmail = s.syntheticEmail(order.OrderNumber)
	}

	// Re-apply the coupon codes cached on the session; the order row may
	// have been reloaded without the discount applied.
	coupons, err := s.promos.ValidateCodes(ctx, sess.CouponCodes)
	if err != nil {
		return nil, err
	}
	order.DiscountCents = s.promos.DiscountCents(coupons, order.SubtotalCents)
	order.ShippingCents = s.shippingCents(sess)
	order.TotalCents = totalCents(order)

	result := payments.ChargeResult{Outcome: payments.OutcomeSucceeded}
	if order.TotalCents > 0 {
		handler, token := s.resolveInstrument(sess, input)
		result, err = s.payments.Charge(ctx, payments.ChargeInput{
			HandlerID:      handler,
			Token:          token,
			AmountCents:    order.TotalCents,
			Currency:       string(order.Currency),
			IdempotencyKey: fmt.Sprintf("checkout-%d", order.OrderNumber),
			BuyerEmail:     order.BuyerEmail,
			Note:           fmt.Sprintf("Shopwalk order #%d", order.OrderNumber),
		})
		if err != nil {
			return nil, err
		}
	}
	s.commerce.IncPaymentOutcome(string(result.Outcome))

	switch result.Outcome {
	case payments.OutcomeConfigMissing:
		return nil, pkgerrors.New(pkgerrors.CodePaymentNotConfigured, "payment backend is not configured")
	case payments.OutcomeRequiresAction:
		return nil, pkgerrors.New(pkgerrors.CodePaymentRequiresAction, result.Reason)
	case payments.OutcomeDeclined:
		return s.escalate(ctx, sess, result.Reason)
	}

	// Succeeded or manual capture: place the order.
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderUpdates := map[string]any{
			"status":         enums.NativeOrderStatusProcessing,
			"discount_cents": order.DiscountCents,
			"shipping_cents": order.ShippingCents,
			"total_cents":    order.TotalCents,
			"buyer_email":    order.BuyerEmail,
		}
		if result.Reference != "" {
			orderUpdates["payment_reference"] = result.Reference
		}
		if err := repo.UpdateOrder(ctx, order.ID, orderUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		for _, item := range order.Items {
			candidate := catalog.LineItemCandidate{ProductID: item.ProductID, VariantID: item.VariantID}
			if err := s.catalog.DecrementStock(ctx, tx, candidate, item.Qty); err != nil {
				return err
			}
		}
		if err := repo.IncrementCouponUsage(ctx, []string(sess.CouponCodes)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment coupon usage")
		}
		return repo.UpdateSession(ctx, sess.ID, sess.Version, map[string]any{
			"status": enums.CheckoutStatusCompleted,
		})
	})
	if err != nil {
		return nil, err
	}
	sess.Status = enums.CheckoutStatusCompleted
	sess.Version++
	order.Status = enums.NativeOrderStatusProcessing
	if result.Reference != "" {
		order.PaymentReference = &result.Reference
	}

	s.commerce.IncSessionCompleted()
	if s.hook != nil {
		s.hook.OrderCompleted(ctx, order.ID)
	}
	return &CompleteResult{
		Session:     s.buildView(sess, nil),
		OrderNumber: order.OrderNumber,
	}, nil
}

func (s *service) Cancel(ctx context.Context, id string) (*View, error) {
	sess, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch sess.Status {
	case enums.CheckoutStatusCompleted:
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyCompleted, "session already completed")
	case enums.CheckoutStatusRequiresEscalation:
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "session requires escalation")
	case enums.CheckoutStatusCanceled:
		// Re-cancel is a no-op rather than a conflict.
		return s.buildView(sess, nil), nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, sess.OrderID, map[string]any{
			"status": enums.NativeOrderStatusCancelled,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return repo.UpdateSession(ctx, sess.ID, sess.Version, map[string]any{
			"status": enums.CheckoutStatusCanceled,
		})
	})
	if err != nil {
		return nil, err
	}
	sess.Status = enums.CheckoutStatusCanceled
	sess.Version++
	sess.Order.Status = enums.NativeOrderStatusCancelled
	s.commerce.IncSessionCanceled()
	return s.buildView(sess, nil), nil
}

func (s *service) escalate(ctx context.Context, sess *models.CheckoutSession, reason string) (*CompleteResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, sess.OrderID, map[string]any{
			"status": enums.NativeOrderStatusFailed,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		return repo.UpdateSession(ctx, sess.ID, sess.Version, map[string]any{
			"status": enums.CheckoutStatusRequiresEscalation,
		})
	})
	if err != nil {
		return nil, err
	}
	sess.Status = enums.CheckoutStatusRequiresEscalation
	sess.Version++
	sess.Order.Status = enums.NativeOrderStatusFailed

	content := "payment was declined"
	if strings.TrimSpace(reason) != "" {
		content = reason
	}
	return &CompleteResult{
		Session:   s.buildView(sess, nil),
		Escalated: true,
		Messages: []types.Message{
			types.NewErrorMessage("payment_declined", "$.payment", content),
		},
	}, nil
}

// load parses either id encoding, fetches the session, and applies the
// read-time TTL check. Expiry is computed from created_at on every call;
// there is no background sweep.
func (s *service) load(ctx context.Context, id string) (*models.CheckoutSession, error) {
	number, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeSessionNotFound, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	if sess.Order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeSessionNotFound, "session not found")
	}
	if s.now().Sub(sess.CreatedAt) > s.ttl {
		return nil, pkgerrors.New(pkgerrors.CodeSessionExpired, "session has expired")
	}
	return sess, nil
}

func (s *service) rejectTerminal(sess *models.CheckoutSession) error {
	switch sess.Status {
	case enums.CheckoutStatusCompleted:
		return pkgerrors.New(pkgerrors.CodeAlreadyCompleted, "session already completed")
	case enums.CheckoutStatusCanceled, enums.CheckoutStatusRequiresEscalation:
		return pkgerrors.New(pkgerrors.CodeConflict, "session is in a terminal state")
	}
	return nil
}

// computeStatus derives the non-terminal status from field completeness.
// Terminal statuses are sticky and returned as stored.
func (s *service) computeStatus(sess *models.CheckoutSession) enums.CheckoutStatus {
	if sess.Status.IsTerminal() {
		return sess.Status
	}
	order := sess.Order
	ready := strings.TrimSpace(order.BuyerEmail) != "" &&
		order.ShippingAddress != nil && order.ShippingAddress.HasCountry() &&
		sess.SelectedShippingOptionID != nil
	if ready {
		return enums.CheckoutStatusReadyForComplete
	}
	return enums.CheckoutStatusIncomplete
}

func (s *service) shippingCents(sess *models.CheckoutSession) int {
	order := sess.Order
	if sess.SelectedShippingOptionID == nil {
		return 0
	}
	option, ok := s.shipping.FindOption(order.ShippingAddress, order.SubtotalCents, *sess.SelectedShippingOptionID)
	if !ok {
		return 0
	}
	return option.CostCents
}

func (s *service) resolveInstrument(sess *models.CheckoutSession, input CompleteInput) (string, string) {
	handler := strings.TrimSpace(input.HandlerID)
	token := strings.TrimSpace(input.Token)
	if token == "" && sess.PaymentToken != nil {
		token = *sess.PaymentToken
	}
	if handler == "" && sess.PaymentHandlerID != nil {
		handler = *sess.PaymentHandlerID
	}
	return handler, token
}

func (s *service) syntheticEmail(number int64) string {
	return fmt.Sprintf("agent+%s@%s", UCPID(number), s.domain)
}

func (s *service) buildView(sess *models.CheckoutSession, messages []types.Message) *View {
	order := sess.Order
	view := &View{
		Number:                   order.OrderNumber,
		Status:                   s.computeStatus(sess),
		Currency:                 order.Currency,
		SelectedShippingOptionID: sess.SelectedShippingOptionID,
		CouponCodes:              []string(sess.CouponCodes),
		Messages:                 messages,
		CreatedAt:                sess.CreatedAt,
		Totals: Totals{
			SubtotalCents: order.SubtotalCents,
			DiscountCents: order.DiscountCents,
			ShippingCents: order.ShippingCents,
			TotalCents:    totalCents(order),
		},
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
	if strings.TrimSpace(order.BuyerEmail) != "" || order.BuyerFirstName != "" || order.BuyerLastName != "" {
		view.Buyer = &BuyerInput{
			Email:     order.BuyerEmail,
			FirstName: order.BuyerFirstName,
			LastName:  order.BuyerLastName,
		}
	}
	if order.ShippingAddress != nil && !order.ShippingAddress.IsZero() {
		view.Destination = order.ShippingAddress
		view.ShippingOptions = s.shipping.Quote(order.ShippingAddress, order.SubtotalCents)
	}
	return view
}

func missingFieldMessages(order *models.Order) []types.Message {
	var missing []types.Message
	if order.ShippingAddress == nil || !order.ShippingAddress.HasCountry() {
		missing = append(missing, types.NewErrorMessage(
			"missing",
			"$.fulfillment.address",
			"a shipping destination is required",
		))
	}
	return missing
}

func totalCents(order *models.Order) int {
	total := order.SubtotalCents - order.DiscountCents + order.ShippingCents
	if total < 0 {
		return 0
	}
	return total
}
