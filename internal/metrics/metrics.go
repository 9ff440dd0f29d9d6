// Package metrics exposes storefront counters and latencies to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Order creation paths.
const (
	SourceCheckout = "checkout"
	SourceWebhook  = "webhook"
)

// Webhook reconciliation outcomes.
const (
	OutcomeExisting  = "existing"
	OutcomeCreated   = "created"
	OutcomeFailed    = "payment_failed"
	OutcomeUnhandled = "unhandled"
	OutcomeError     = "error"
)

// Recorder holds the application's collectors. A nil *Recorder records nothing.
type Recorder struct {
	requests       *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	ordersPlaced   *prometheus.CounterVec
	webhookEvents  *prometheus.CounterVec
	lookupAttempts prometheus.Histogram
	gatherer       prometheus.Gatherer
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders persisted, by the path that created them.",
		}, []string{"source"}),
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "webhook_events_total",
			Help:      "Payment webhook events, by type and outcome.",
		}, []string{"type", "outcome"}),
		lookupAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "webhook_order_lookup_attempts",
			Help:      "Lookups made before the webhook found or created the order.",
			Buckets:   []float64{1, 2, 3, 4, 5, 10},
		}),
		gatherer: reg,
	}

	reg.MustRegister(r.requests, r.latency, r.ordersPlaced, r.webhookEvents, r.lookupAttempts)
	return r
}

// ObserveRequest records one served HTTP request.
func (r *Recorder) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// OrderPlaced counts an order persisted by source.
func (r *Recorder) OrderPlaced(source string) {
	if r == nil {
		return
	}
	r.ordersPlaced.WithLabelValues(source).Inc()
}

// WebhookEvent counts a handled webhook event.
func (r *Recorder) WebhookEvent(eventType, outcome string) {
	if r == nil {
		return
	}
	r.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// LookupAttempts records how many lookups a reconciliation needed.
func (r *Recorder) LookupAttempts(n int) {
	if r == nil {
		return
	}
	r.lookupAttempts.Observe(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
