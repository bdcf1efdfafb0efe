package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_commands_total",
			Help: "Commands handled, by resolved intent and classification source",
		},
		[]string{"intent", "source"},
	)

	CommandFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tasker_command_failures_total",
			Help: "Commands that failed with a request-level error",
		},
	)

	GatewayCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_gateway_calls_total",
			Help: "Completion calls to the model gateway",
		},
		[]string{"provider", "outcome"},
	)

	GatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tasker_gateway_latency_seconds",
			Help:    "Model gateway call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"provider"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasker_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tasker_http_request_duration_seconds",
			Help: "HTTP request duration in seconds",
		},
		[]string{"method", "route"},
	)
)

func ObserveGatewayCall(provider string, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	GatewayCalls.WithLabelValues(provider, outcome).Inc()
	GatewayLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
