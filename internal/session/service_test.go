package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/internal/catalog"
	"github.com/shopwalk/shopwalk-backend/internal/payments"
	"github.com/shopwalk/shopwalk-backend/internal/promotions"
	"github.com/shopwalk/shopwalk-backend/internal/shipping"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

func setupSessionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  currency TEXT NOT NULL DEFAULT 'USD',
  buyer_email TEXT NOT NULL DEFAULT '',
  buyer_first_name TEXT NOT NULL DEFAULT '',
  buyer_last_name TEXT NOT NULL DEFAULT '',
  shipping_address TEXT,
  subtotal_cents INTEGER NOT NULL DEFAULT 0,
  discount_cents INTEGER NOT NULL DEFAULT 0,
  shipping_cents INTEGER NOT NULL DEFAULT 0,
  total_cents INTEGER NOT NULL DEFAULT 0,
  payment_reference TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	lineItems := `
CREATE TABLE IF NOT EXISTS order_line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  name TEXT NOT NULL,
  qty INTEGER NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`
	refunds := `
CREATE TABLE IF NOT EXISTS order_refunds (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  reason TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME
);`
	sessions := `
CREATE TABLE IF NOT EXISTS checkout_sessions (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'incomplete',
  selected_shipping_option_id TEXT,
  payment_handler_id TEXT,
  payment_token TEXT,
  coupon_codes TEXT,
  version INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	coupons := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL DEFAULT 0,
  percent TEXT NOT NULL DEFAULT '0',
  active INTEGER NOT NULL DEFAULT 1,
  expires_at DATETIME,
  usage_limit INTEGER,
  usage_count INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	for _, stmt := range []string{orders, lineItems, refunds, sessions, coupons} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type stubCatalogService struct {
	resolutions map[string]catalog.Resolution
	decremented map[uuid.UUID]int
}

func (s *stubCatalogService) Resolve(_ context.Context, ref catalog.ItemRef, _ int) (catalog.Resolution, error) {
	if res, ok := s.resolutions[ref.ProductRef]; ok {
		res.Ref = ref
		return res, nil
	}
	return catalog.Resolution{Result: catalog.ResolutionNotFound, Ref: ref}, nil
}

func (s *stubCatalogService) DecrementStock(_ context.Context, _ *gorm.DB, candidate catalog.LineItemCandidate, qty int) error {
	s.decremented[candidate.ProductID] += qty
	return nil
}

type stubChargeAdapter struct {
	result payments.ChargeResult
	err    error
	calls  []payments.ChargeInput
}

func (s *stubChargeAdapter) Charge(_ context.Context, input payments.ChargeInput) (payments.ChargeResult, error) {
	s.calls = append(s.calls, input)
	if s.err != nil {
		return payments.ChargeResult{}, s.err
	}
	return s.result, nil
}

type stubCompletionHook struct {
	completed []uuid.UUID
}

func (s *stubCompletionHook) OrderCompleted(_ context.Context, orderID uuid.UUID) {
	s.completed = append(s.completed, orderID)
}

type sessionCouponRepo struct {
	coupons map[string]*models.Coupon
}

func (s *sessionCouponRepo) WithTx(tx *gorm.DB) promotions.Repository { return s }

func (s *sessionCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	if coupon, ok := s.coupons[code]; ok {
		return coupon, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type sessionFixture struct {
	svc     *service
	db      *gorm.DB
	catalog *stubCatalogService
	adapter *stubChargeAdapter
	hook    *stubCompletionHook
	teeID   uuid.UUID
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	gdb := setupSessionTestDB(t)
	teeID := uuid.New()
	catalogSvc := &stubCatalogService{
		resolutions: map[string]catalog.Resolution{
			"tee": {Result: catalog.ResolutionOK, Candidate: &catalog.LineItemCandidate{
				ProductID: teeID, Name: "Logo Tee", UnitPriceCents: 1500, AvailableQty: 10,
			}},
			"mug": {Result: catalog.ResolutionOK, Candidate: &catalog.LineItemCandidate{
				ProductID: uuid.New(), Name: "Mug", UnitPriceCents: 800, AvailableQty: 10,
			}},
			"sold-out": {Result: catalog.ResolutionOutOfStock},
		},
		decremented: map[uuid.UUID]int{},
	}
	promoSvc, err := promotions.NewService(&sessionCouponRepo{coupons: map[string]*models.Coupon{
		"save5": {Code: "save5", Type: enums.CouponTypeFixedCart, AmountCents: 500, Active: true},
	}})
	require.NoError(t, err)
	shippingSvc := shipping.NewService(config.ShippingConfig{
		FlatRateCents:          500,
		ExpeditedRateCents:     1500,
		DomesticCountry:        "US",
		InternationalSurcharge: 1000,
	})
	adapter := &stubChargeAdapter{result: payments.ChargeResult{Outcome: payments.OutcomeSucceeded, Reference: "pay_test"}}
	hook := &stubCompletionHook{}

	svc, err := NewService(
		NewRepository(gdb),
		gormTxRunner{db: gdb},
		catalogSvc,
		promoSvc,
		shippingSvc,
		adapter,
		hook,
		nil,
		config.CheckoutConfig{SessionTTL: time.Hour},
		config.MerchantConfig{Currency: "USD", Domain: "shopwalk.example"},
	)
	require.NoError(t, err)

	return &sessionFixture{
		svc:     svc.(*service),
		db:      gdb,
		catalog: catalogSvc,
		adapter: adapter,
		hook:    hook,
		teeID:   teeID,
	}
}

func (f *sessionFixture) createCart(t *testing.T, refs ...string) *View {
	t.Helper()
	items := make([]ItemInput, 0, len(refs))
	for _, ref := range refs {
		items = append(items, ItemInput{Ref: catalog.ItemRef{ProductRef: ref}, Qty: 2})
	}
	view, err := f.svc.Create(context.Background(), CreateInput{Items: items})
	require.NoError(t, err)
	return view
}

func (f *sessionFixture) makeReady(t *testing.T, id string) *View {
	t.Helper()
	selected := "flat_500"
	view, err := f.svc.Update(context.Background(), id, UpdateInput{
		Buyer:                    &BuyerInput{Email: "buyer@example.com"},
		Destination:              &types.Address{Line1: "1 Main St", City: "Portland", Country: "US"},
		SelectedShippingOptionID: &selected,
	})
	require.NoError(t, err)
	return view
}

func messageCodes(messages []types.Message) []string {
	codes := make([]string, 0, len(messages))
	for _, m := range messages {
		codes = append(codes, m.Code)
	}
	return codes
}

func TestCreateAcceptsGoodLinesAndFlagsBadOnes(t *testing.T) {
	f := newSessionFixture(t)

	view, err := f.svc.Create(context.Background(), CreateInput{Items: []ItemInput{
		{Ref: catalog.ItemRef{ProductRef: "tee"}, Qty: 2},
		{Ref: catalog.ItemRef{ProductRef: "ghost"}, Qty: 1},
		{Ref: catalog.ItemRef{ProductRef: "sold-out"}, Qty: 1},
		{Ref: catalog.ItemRef{ProductRef: "mug"}, Qty: 0},
	}})
	require.NoError(t, err)

	assert.Equal(t, enums.CheckoutStatusIncomplete, view.Status)
	require.Len(t, view.LineItems, 1)
	assert.Equal(t, "Logo Tee", view.LineItems[0].Name)
	assert.Equal(t, 3000, view.Totals.SubtotalCents)
	assert.Equal(t, 3000, view.Totals.TotalCents)
	codes := messageCodes(view.Messages)
	assert.Contains(t, codes, "item_not_found")
	assert.Contains(t, codes, "out_of_stock")
	assert.Contains(t, codes, "invalid_quantity")
	for _, m := range view.Messages {
		assert.Equal(t, "recoverable", m.Severity)
	}
}

func TestCreateWithZeroAcceptedItemsStillCreates(t *testing.T) {
	f := newSessionFixture(t)

	view, err := f.svc.Create(context.Background(), CreateInput{Items: []ItemInput{
		{Ref: catalog.ItemRef{ProductRef: "ghost"}, Qty: 1},
	}})
	require.NoError(t, err)
	assert.Empty(t, view.LineItems)
	assert.Equal(t, 0, view.Totals.TotalCents)
	assert.NotEmpty(t, view.Messages)

	got, err := f.svc.Get(context.Background(), LegacyID(view.Number))
	require.NoError(t, err)
	assert.Equal(t, view.Number, got.Number)
}

func TestCreateRejectsEmptyCart(t *testing.T) {
	f := newSessionFixture(t)

	_, err := f.svc.Create(context.Background(), CreateInput{})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeValidation, coded.Code())
}

func TestGetAppliesReadTimeTTL(t *testing.T) {
	f := newSessionFixture(t)
	view := f.createCart(t, "tee")

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour - time.Second) }
	_, err := f.svc.Get(context.Background(), UCPID(view.Number))
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(time.Hour + time.Second) }
	_, err = f.svc.Get(context.Background(), UCPID(view.Number))
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeSessionExpired, coded.Code())
}

func TestUpdateProgressesToReadyForComplete(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")

	partial, err := f.svc.Update(context.Background(), LegacyID(created.Number), UpdateInput{
		Buyer: &BuyerInput{Email: "buyer@example.com", FirstName: "Ada"},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusIncomplete, partial.Status)

	ready := f.makeReady(t, LegacyID(created.Number))
	assert.Equal(t, enums.CheckoutStatusReadyForComplete, ready.Status)
	assert.Equal(t, 500, ready.Totals.ShippingCents)
	assert.Equal(t, 3500, ready.Totals.TotalCents)
	assert.NotEmpty(t, ready.ShippingOptions)
}

func TestUpdateMergesAddressSubFields(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := UCPID(created.Number)

	_, err := f.svc.Update(context.Background(), id, UpdateInput{
		Destination: &types.Address{City: "Portland", Country: "US"},
	})
	require.NoError(t, err)

	view, err := f.svc.Update(context.Background(), id, UpdateInput{
		Destination: &types.Address{PostalCode: "97201"},
	})
	require.NoError(t, err)
	require.NotNil(t, view.Destination)
	assert.Equal(t, "Portland", view.Destination.City)
	assert.Equal(t, "US", view.Destination.Country)
	assert.Equal(t, "97201", view.Destination.PostalCode)
}

func TestUpdateInvalidCouponLeavesSessionUntouched(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := LegacyID(created.Number)

	valid := []string{"SAVE5"}
	view, err := f.svc.Update(context.Background(), id, UpdateInput{Promotions: &valid})
	require.NoError(t, err)
	assert.Equal(t, []string{"save5"}, view.CouponCodes)
	assert.Equal(t, 500, view.Totals.DiscountCents)
	assert.Equal(t, 2500, view.Totals.TotalCents)

	mixed := []string{"save5", "nope"}
	_, err = f.svc.Update(context.Background(), id, UpdateInput{Promotions: &mixed})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeInvalidCoupon, coded.Code())

	after, err := f.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, []string{"save5"}, after.CouponCodes)
	assert.Equal(t, 500, after.Totals.DiscountCents)
}

func TestUpdateEmptyPromotionsClearsCoupons(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := LegacyID(created.Number)

	valid := []string{"save5"}
	_, err := f.svc.Update(context.Background(), id, UpdateInput{Promotions: &valid})
	require.NoError(t, err)

	empty := []string{}
	view, err := f.svc.Update(context.Background(), id, UpdateInput{Promotions: &empty})
	require.NoError(t, err)
	assert.Empty(t, view.CouponCodes)
	assert.Equal(t, 0, view.Totals.DiscountCents)
}

func TestCompletePlacesOrder(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := UCPID(created.Number)
	f.makeReady(t, id)

	result, err := f.svc.Complete(context.Background(), id, CompleteInput{
		HandlerID: "square", Token: "cnon:ok",
	})
	require.NoError(t, err)
	assert.False(t, result.Escalated)
	assert.Equal(t, created.Number, result.OrderNumber)
	assert.Equal(t, enums.CheckoutStatusCompleted, result.Session.Status)

	require.Len(t, f.adapter.calls, 1)
	charge := f.adapter.calls[0]
	assert.Equal(t, 3500, charge.AmountCents)
	assert.Equal(t, "USD", charge.Currency)
	assert.Equal(t, fmt.Sprintf("checkout-%d", created.Number), charge.IdempotencyKey)

	assert.Equal(t, 2, f.catalog.decremented[f.teeID])
	assert.Len(t, f.hook.completed, 1)

	_, err = f.svc.Complete(context.Background(), id, CompleteInput{Token: "cnon:ok"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeAlreadyCompleted, coded.Code())
}

func TestCompleteFallsBackToCachedInstrument(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := UCPID(created.Number)
	f.makeReady(t, id)

	_, err := f.svc.Update(context.Background(), id, UpdateInput{
		PaymentInstrument: &PaymentInstrumentInput{HandlerID: "square", Token: "cnon:cached"},
	})
	require.NoError(t, err)

	_, err = f.svc.Complete(context.Background(), id, CompleteInput{})
	require.NoError(t, err)
	require.Len(t, f.adapter.calls, 1)
	assert.Equal(t, "cnon:cached", f.adapter.calls[0].Token)
	assert.Equal(t, "square", f.adapter.calls[0].HandlerID)
}

func TestCompleteRequiresDestination(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")

	_, err := f.svc.Complete(context.Background(), LegacyID(created.Number), CompleteInput{Token: "cnon:ok"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeMissingFields, coded.Code())
	messages, ok := coded.Details().([]types.Message)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "$.fulfillment.address", messages[0].Path)
}

func TestCompleteZeroTotalSkipsChargeAndSynthesizesBuyer(t *testing.T) {
	f := newSessionFixture(t)
	view, err := f.svc.Create(context.Background(), CreateInput{Items: []ItemInput{
		{Ref: catalog.ItemRef{ProductRef: "ghost"}, Qty: 1},
	}})
	require.NoError(t, err)
	id := UCPID(view.Number)

	_, err = f.svc.Update(context.Background(), id, UpdateInput{
		Destination: &types.Address{Country: "US"},
	})
	require.NoError(t, err)

	result, err := f.svc.Complete(context.Background(), id, CompleteInput{})
	require.NoError(t, err)
	assert.Empty(t, f.adapter.calls)
	assert.Equal(t, enums.CheckoutStatusCompleted, result.Session.Status)
	require.NotNil(t, result.Session.Buyer)
	assert.True(t, strings.HasPrefix(result.Session.Buyer.Email, "agent+chk_"))
	assert.True(t, strings.HasSuffix(result.Session.Buyer.Email, "@shopwalk.example"))
}

func TestCompleteDeclinedEscalates(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := UCPID(created.Number)
	f.makeReady(t, id)

	f.adapter.result = payments.ChargeResult{Outcome: payments.OutcomeDeclined, Reason: "insufficient funds"}
	result, err := f.svc.Complete(context.Background(), id, CompleteInput{Token: "cnon:bad"})
	require.NoError(t, err)
	assert.True(t, result.Escalated)
	assert.Equal(t, enums.CheckoutStatusRequiresEscalation, result.Session.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "payment_declined", result.Messages[0].Code)
	assert.Equal(t, "insufficient funds", result.Messages[0].Content)
	assert.Empty(t, f.hook.completed)

	// escalated sessions are frozen for the merchant, not cancelable
	_, err = f.svc.Cancel(context.Background(), id)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestCompletePaymentErrorOutcomes(t *testing.T) {
	cases := []struct {
		name    string
		outcome payments.Outcome
		want    pkgerrors.Code
	}{
		{"requires action", payments.OutcomeRequiresAction, pkgerrors.CodePaymentRequiresAction},
		{"config missing", payments.OutcomeConfigMissing, pkgerrors.CodePaymentNotConfigured},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFixture(t)
			created := f.createCart(t, "tee")
			id := UCPID(created.Number)
			f.makeReady(t, id)

			f.adapter.result = payments.ChargeResult{Outcome: tc.outcome}
			_, err := f.svc.Complete(context.Background(), id, CompleteInput{Token: "cnon:ok"})
			require.Error(t, err)
			coded := pkgerrors.As(err)
			require.NotNil(t, coded)
			assert.Equal(t, tc.want, coded.Code())

			// outcome left the session open for another attempt
			view, err := f.svc.Get(context.Background(), id)
			require.NoError(t, err)
			assert.Equal(t, enums.CheckoutStatusReadyForComplete, view.Status)
		})
	}
}

func TestCancelLifecycle(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := LegacyID(created.Number)

	view, err := f.svc.Cancel(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusCanceled, view.Status)

	// re-cancel is a no-op
	again, err := f.svc.Cancel(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, enums.CheckoutStatusCanceled, again.Status)

	_, err = f.svc.Complete(context.Background(), id, CompleteInput{Token: "cnon:ok"})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}

func TestCancelAfterCompleteConflicts(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")
	id := UCPID(created.Number)
	f.makeReady(t, id)

	_, err := f.svc.Complete(context.Background(), id, CompleteInput{Token: "cnon:ok"})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), id)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeAlreadyCompleted, coded.Code())
}

func TestUpdateSessionRejectsStaleVersion(t *testing.T) {
	f := newSessionFixture(t)
	created := f.createCart(t, "tee")

	repo := NewRepository(f.db)
	sess, err := repo.FindByNumber(context.Background(), created.Number)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateSession(context.Background(), sess.ID, sess.Version, map[string]any{
		"payment_handler_id": "square",
	}))

	err = repo.UpdateSession(context.Background(), sess.ID, sess.Version, map[string]any{
		"payment_handler_id": "other",
	})
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	assert.Equal(t, pkgerrors.CodeConflict, coded.Code())
}
