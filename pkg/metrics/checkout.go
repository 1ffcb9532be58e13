package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of the order placement flow.
type CheckoutMetrics struct {
	ordersCreated    prometheus.Counter
	soldUpdateFailed prometheus.Counter
	emailFailed      prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders successfully created by the checkout flow.",
	})
	soldUpdateFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_sold_counter_failures_total",
		Help: "Best-effort sold-quantity updates that failed after order creation.",
	})
	emailFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "checkout_confirmation_email_failures_total",
		Help: "Confirmation emails that failed to send after order creation.",
	})
	reg.MustRegister(ordersCreated, soldUpdateFailed, emailFailed)
	return &CheckoutMetrics{
		ordersCreated:    ordersCreated,
		soldUpdateFailed: soldUpdateFailed,
		emailFailed:      emailFailed,
	}
}

// IncOrdersCreated increments the created-orders counter.
func (c *CheckoutMetrics) IncOrdersCreated() {
	if c == nil || c.ordersCreated == nil {
		return
	}
	c.ordersCreated.Inc()
}

// IncSoldUpdateFailed increments the partial-failure counter for the
// denormalized sold-quantity statistic.
func (c *CheckoutMetrics) IncSoldUpdateFailed() {
	if c == nil || c.soldUpdateFailed == nil {
		return
	}
	c.soldUpdateFailed.Inc()
}

// IncEmailFailed increments the confirmation-email failure counter.
func (c *CheckoutMetrics) IncEmailFailed() {
	if c == nil || c.emailFailed == nil {
		return
	}
	c.emailFailed.Inc()
}
