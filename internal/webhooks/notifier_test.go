package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/internal/orders"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
	"github.com/shopwalk/shopwalk-backend/pkg/signing"
)

type stubOrderRepo struct {
	order *models.Order
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) FindByNumber(_ context.Context, _ int64) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrderRepo) ListCompletedByEmail(_ context.Context, _ string, _ pagination.Params) ([]models.Order, int64, error) {
	return nil, 0, nil
}

func (s *stubOrderRepo) CreateRefund(_ context.Context, _ *models.OrderRefund) error { return nil }

func (s *stubOrderRepo) CreateFulfillmentEvent(_ context.Context, _ *models.FulfillmentEvent) error {
	return nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ enums.NativeOrderStatus) error {
	return nil
}

type capturedRequest struct {
	body    []byte
	headers http.Header
}

func captureServer(t *testing.T, status int) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		captured = append(captured, capturedRequest{body: body, headers: r.Header.Clone()})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &captured
}

func notifierLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func completedOrder() *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   77,
		Status:        enums.NativeOrderStatusProcessing,
		Currency:      enums.CurrencyUSD,
		BuyerEmail:    "buyer@example.com",
		SubtotalCents: 3000,
		ShippingCents: 500,
		TotalCents:    3500,
		Items: []models.OrderLineItem{{
			ID: uuid.New(), Name: "Logo Tee", Qty: 2, UnitPriceCents: 1500, TotalCents: 3000,
		}},
	}
	order.Session = &models.CheckoutSession{
		ID:      uuid.New(),
		OrderID: order.ID,
		Status:  enums.CheckoutStatusCompleted,
	}
	return order
}

func newNotifier(t *testing.T, registrations Repository, ordersRepo *stubOrderRepo, signer *signing.Signer, endpoint string) *Notifier {
	t.Helper()
	notifier, err := NewNotifier(
		registrations,
		ordersRepo,
		signer,
		notifierLogger(),
		nil,
		config.WebhooksConfig{PlatformEndpoint: endpoint},
		config.MerchantConfig{BaseURL: "https://shopwalk.example"},
	)
	require.NoError(t, err)
	notifier.dispatch = func(fn func()) { fn() }
	return notifier
}

func TestDeliverSignsLegacyRegistrations(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)
	repo := newMemRegistrationRepo()
	registration := &models.WebhookRegistration{
		ID:     uuid.New(),
		URL:    server.URL,
		Events: []string{"order_created"},
		Secret: "s3cret",
		Active: true,
	}
	require.NoError(t, repo.Create(context.Background(), registration))

	order := completedOrder()
	notifier := newNotifier(t, repo, &stubOrderRepo{order: order}, nil, "")

	notifier.OrderCompleted(context.Background(), order.ID)

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	signature := got.headers.Get("X-Shopwalk-Sig")
	assert.True(t, signing.HMACVerify("s3cret", got.body, signature))

	var delivered payload
	require.NoError(t, json.Unmarshal(got.body, &delivered))
	assert.Equal(t, "order_created", delivered.Event)
	assert.Equal(t, "ord_77", delivered.Order.ID)
	assert.Equal(t, "confirmed", delivered.Order.Status)
	assert.Equal(t, 3500, delivered.Order.TotalCents)
	require.Len(t, delivered.Order.LineItems, 1)
	assert.Equal(t, "Logo Tee", delivered.Order.LineItems[0].Name)
}

func TestDeliverFiltersByEvent(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)
	repo := newMemRegistrationRepo()
	require.NoError(t, repo.Create(context.Background(), &models.WebhookRegistration{
		ID:     uuid.New(),
		URL:    server.URL,
		Events: []string{"order_created"},
		Secret: "s3cret",
		Active: true,
	}))

	order := completedOrder()
	notifier := newNotifier(t, repo, &stubOrderRepo{order: order}, nil, "")

	notifier.OrderUpdated(context.Background(), order.ID)
	assert.Empty(t, *captured)

	notifier.OrderCompleted(context.Background(), order.ID)
	assert.Len(t, *captured, 1)
}

func TestDeliverSignsPlatformEndpointWithDetachedJWS(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)
	signer, err := signing.GenerateSigner("test-key")
	require.NoError(t, err)

	order := completedOrder()
	notifier := newNotifier(t, newMemRegistrationRepo(), &stubOrderRepo{order: order}, signer, server.URL)

	notifier.OrderUpdated(context.Background(), order.ID)

	require.Len(t, *captured, 1)
	got := (*captured)[0]
	signature := got.headers.Get("X-UCP-Signature")
	require.NotEmpty(t, signature)
	require.NoError(t, signer.VerifyDetached(signature, got.body))
	assert.Error(t, signer.VerifyDetached(signature, append(got.body, 'x')))
}

func TestDeliverSkipsPlatformWithoutSigner(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)

	order := completedOrder()
	notifier := newNotifier(t, newMemRegistrationRepo(), &stubOrderRepo{order: order}, nil, server.URL)

	notifier.OrderUpdated(context.Background(), order.ID)
	assert.Empty(t, *captured)
}

func TestDeliverSkipsOrdersWithoutSession(t *testing.T) {
	server, captured := captureServer(t, http.StatusOK)
	repo := newMemRegistrationRepo()
	require.NoError(t, repo.Create(context.Background(), &models.WebhookRegistration{
		ID:     uuid.New(),
		URL:    server.URL,
		Events: []string{"order_created"},
		Secret: "s3cret",
		Active: true,
	}))

	order := completedOrder()
	order.Session = nil
	notifier := newNotifier(t, repo, &stubOrderRepo{order: order}, nil, "")

	notifier.OrderCompleted(context.Background(), order.ID)
	assert.Empty(t, *captured)
}

func TestDeliverReportsEndpointFailures(t *testing.T) {
	failing, _ := captureServer(t, http.StatusInternalServerError)
	healthy, captured := captureServer(t, http.StatusOK)

	repo := newMemRegistrationRepo()
	for _, url := range []string{failing.URL, healthy.URL} {
		require.NoError(t, repo.Create(context.Background(), &models.WebhookRegistration{
			ID:     uuid.New(),
			URL:    url,
			Events: []string{"order_created"},
			Secret: "s3cret",
			Active: true,
		}))
	}

	order := completedOrder()
	notifier := newNotifier(t, repo, &stubOrderRepo{order: order}, nil, "")

	err := notifier.deliver(context.Background(), enums.WebhookEventOrderCreated, order.ID)
	require.Error(t, err)
	// the failing endpoint does not block delivery to the healthy one
	assert.Len(t, *captured, 1)
}
