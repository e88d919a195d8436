package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records quote calculations and configuration fallbacks.
// All methods are nil-safe so callers never need to guard on a missing
// registry (tests pass nil).
type CheckoutMetrics struct {
	duration  *prometheus.HistogramVec
	quotes    *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	coupons   *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_quote_duration_seconds",
		Help:    "Duration of checkout quote calculations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	quotes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_quotes_total",
		Help: "Checkout quotes calculated, by province.",
	}, []string{"province"})
	fallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_config_fallbacks_total",
		Help: "Quotes served with hardcoded fallback rates, by kind.",
	}, []string{"kind"})
	coupons := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_coupon_validations_total",
		Help: "Coupon validation attempts, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(duration, quotes, fallbacks, coupons)
	return &CheckoutMetrics{
		duration:  duration,
		quotes:    quotes,
		fallbacks: fallbacks,
		coupons:   coupons,
	}
}

// ObserveQuoteDuration records the duration of one quote calculation.
func (c *CheckoutMetrics) ObserveQuoteDuration(outcome string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncQuote increments the quote counter for the resolved province.
func (c *CheckoutMetrics) IncQuote(province string) {
	if c == nil || c.quotes == nil {
		return
	}
	c.quotes.WithLabelValues(normalizeLabel(province)).Inc()
}

// IncFallback increments the config-fallback counter. kind is "tax_rate" or
// "shipping_rate".
func (c *CheckoutMetrics) IncFallback(kind string) {
	if c == nil || c.fallbacks == nil {
		return
	}
	c.fallbacks.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncCouponValidation increments the coupon validation counter for an outcome
// such as "applied", "invalid", "expired".
func (c *CheckoutMetrics) IncCouponValidation(outcome string) {
	if c == nil || c.coupons == nil {
		return
	}
	c.coupons.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
