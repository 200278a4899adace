package metrics

import "github.com/prometheus/client_golang/prometheus"

// CommerceMetrics counts checkout lifecycle outcomes.
type CommerceMetrics struct {
	sessionsCreated   prometheus.Counter
	sessionsCompleted prometheus.Counter
	sessionsCanceled  prometheus.Counter
	paymentOutcomes   *prometheus.CounterVec
	refundsRecorded   prometheus.Counter
	webhookDeliveries *prometheus.CounterVec
}

// NewCommerceMetrics registers the checkout metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_created_total",
		Help: "Checkout sessions created.",
	})
	completed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_completed_total",
		Help: "Checkout sessions completed.",
	})
	canceled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sessions_canceled_total",
		Help: "Checkout sessions canceled.",
	})
	payments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_outcomes_total",
		Help: "Payment attempts by outcome.",
	}, []string{"outcome"})
	refunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_refunds_recorded_total",
		Help: "Refund entries recorded on orders.",
	})
	webhooks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_total",
		Help: "Outbound webhook deliveries by result.",
	}, []string{"result"})
	reg.MustRegister(created, completed, canceled, payments, refunds, webhooks)
	return &CommerceMetrics{
		sessionsCreated:   created,
		sessionsCompleted: completed,
		sessionsCanceled:  canceled,
		paymentOutcomes:   payments,
		refundsRecorded:   refunds,
		webhookDeliveries: webhooks,
	}
}

// IncSessionCreated increments the created counter.
func (c *CommerceMetrics) IncSessionCreated() {
	if c == nil || c.sessionsCreated == nil {
		return
	}
	c.sessionsCreated.Inc()
}

// IncSessionCompleted increments the completed counter.
func (c *CommerceMetrics) IncSessionCompleted() {
	if c == nil || c.sessionsCompleted == nil {
		return
	}
	c.sessionsCompleted.Inc()
}

// IncSessionCanceled increments the canceled counter.
func (c *CommerceMetrics) IncSessionCanceled() {
	if c == nil || c.sessionsCanceled == nil {
		return
	}
	c.sessionsCanceled.Inc()
}

// IncPaymentOutcome counts one payment attempt result.
func (c *CommerceMetrics) IncPaymentOutcome(outcome string) {
	if c == nil || c.paymentOutcomes == nil {
		return
	}
	c.paymentOutcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRefundRecorded increments the refund counter.
func (c *CommerceMetrics) IncRefundRecorded() {
	if c == nil || c.refundsRecorded == nil {
		return
	}
	c.refundsRecorded.Inc()
}

// IncWebhookDelivery counts one outbound delivery attempt result.
func (c *CommerceMetrics) IncWebhookDelivery(result string) {
	if c == nil || c.webhookDeliveries == nil {
		return
	}
	c.webhookDeliveries.WithLabelValues(normalizeLabel(result)).Inc()
}
