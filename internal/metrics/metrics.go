package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay outcomes, used as the "result" label.
const (
	ResultOk               = "ok"
	ResultBadPayload       = "bad_payload"
	ResultResolveError     = "resolve_error"
	ResultNotAuthenticated = "not_authenticated"
	ResultSendError        = "send_error"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "instaflow_http_requests_total",
			Help: "Total webhook HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "instaflow_http_request_duration_seconds",
			Help:    "Webhook HTTP request duration",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method"},
	)

	// Relay metrics
	RelaysTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "instaflow_relays_total",
			Help: "Webhook events by relay outcome",
		},
		[]string{"result"},
	)

	ResolveLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "instaflow_resolve_latency_seconds",
			Help:    "Intent resolution latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	SendLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "instaflow_send_latency_seconds",
			Help:    "Instagram send latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	SessionAuthenticated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "instaflow_session_authenticated",
			Help: "1 when the Instagram session bootstrap succeeded",
		},
	)
)
