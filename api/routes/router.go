package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopwalk/shopwalk-backend/api/controllers"
	legacycontrollers "github.com/shopwalk/shopwalk-backend/api/controllers/legacy"
	ucpcontrollers "github.com/shopwalk/shopwalk-backend/api/controllers/ucp"
	"github.com/shopwalk/shopwalk-backend/api/middleware"
	"github.com/shopwalk/shopwalk-backend/internal/discovery"
	"github.com/shopwalk/shopwalk-backend/internal/orders"
	sessionsvc "github.com/shopwalk/shopwalk-backend/internal/session"
	"github.com/shopwalk/shopwalk-backend/internal/webhooks"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/metrics"
	pkgredis "github.com/shopwalk/shopwalk-backend/pkg/redis"
)

// NewRouter wires both wire dialects over the shared services. The legacy
// namespace keeps the flat Shopwalk shapes; /ucp/v1 speaks the versioned
// protocol and /.well-known/ucp advertises it.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	metricsHandler http.Handler,
	idempotencyStore pkgredis.IdempotencyStore,
	sessionService sessionsvc.Service,
	orderService orders.Service,
	webhookService webhooks.Service,
	discoveryBuilder *discovery.Builder,
	pingers ...controllers.Pinger,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers...))
	})

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Get("/.well-known/ucp", ucpcontrollers.Discovery(discoveryBuilder, logg))

	baseURL := cfg.Merchant.BaseURL

	r.Route("/api/legacy/v1", func(r chi.Router) {
		if idempotencyStore != nil {
			r.Use(middleware.Idempotency(idempotencyStore, logg))
		}

		r.Route("/checkout-sessions", func(r chi.Router) {
			r.Post("/", legacycontrollers.SessionCreate(sessionService, logg))
			r.Get("/{sessionId}", legacycontrollers.SessionGet(sessionService, logg))
			r.Put("/{sessionId}", legacycontrollers.SessionUpdate(sessionService, logg))
			r.Post("/{sessionId}/complete", legacycontrollers.SessionComplete(sessionService, baseURL, logg))
			r.Post("/{sessionId}/cancel", legacycontrollers.SessionCancel(sessionService, logg))
			r.Get("/{sessionId}/shipping-options", legacycontrollers.SessionShippingOptions(sessionService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", legacycontrollers.OrderList(orderService, logg))
			r.Get("/{orderId}", legacycontrollers.OrderGet(orderService, logg))
			r.Post("/{orderId}/refund", legacycontrollers.OrderRefund(orderService, logg))
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", legacycontrollers.WebhookRegister(webhookService, logg))
			r.Get("/", legacycontrollers.WebhookList(webhookService, logg))
			r.Delete("/{webhookId}", legacycontrollers.WebhookDelete(webhookService, logg))
		})
	})

	r.Route("/ucp/v1", func(r chi.Router) {
		if idempotencyStore != nil {
			r.Use(middleware.Idempotency(idempotencyStore, logg))
		}

		r.Route("/checkout-sessions", func(r chi.Router) {
			r.Post("/", ucpcontrollers.SessionCreate(sessionService, logg))
			r.Get("/{sessionId}", ucpcontrollers.SessionGet(sessionService, logg))
			r.Put("/{sessionId}", ucpcontrollers.SessionUpdate(sessionService, logg))
			r.Post("/{sessionId}/complete", ucpcontrollers.SessionComplete(sessionService, baseURL, logg))
			r.Post("/{sessionId}/cancel", ucpcontrollers.SessionCancel(sessionService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ucpcontrollers.OrderList(orderService, logg))
			r.Get("/{orderId}", ucpcontrollers.OrderGet(orderService, logg))
			r.Post("/{orderId}/refund", ucpcontrollers.OrderRefund(orderService, logg))
			r.Post("/{orderId}/fulfillment-events", ucpcontrollers.OrderFulfillment(orderService, logg))
			r.Post("/{orderId}/status", ucpcontrollers.OrderStatus(orderService, logg))
		})
	})

	return r
}
