// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "Duration of HTTP requests in ms",
			Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600},
		},
		[]string{"method", "path"},
	)

	OrdersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Orders created, by order type",
		},
		[]string{"type"},
	)

	OrderTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Applied order status changes",
		},
		[]string{"from", "to"},
	)

	Compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_compensations_total",
			Help: "Saga compensations run during checkout, by step and result",
		},
		[]string{"step", "result"},
	)

	WebhookRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_rejected_total",
			Help: "Webhook deliveries rejected before processing",
		},
		[]string{"source", "reason"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"policy"},
	)

	TrackingStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tracking_streams_active",
			Help: "Open delivery tracking streams",
		},
	)

	DispatchMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_messages_total",
			Help: "Dispatch status messages consumed, by result",
		},
		[]string{"result"},
	)
)
