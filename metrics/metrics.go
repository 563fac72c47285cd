package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tripease/aggregator"
)

var (
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripease_provider_calls_total",
			Help: "Provider adapter invocations by outcome",
		},
		[]string{"kind", "provider", "outcome"},
	)

	ProviderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tripease_provider_duration_seconds",
			Help:    "Duration of provider adapter calls in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8},
		},
		[]string{"kind", "provider"},
	)

	FallbackUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripease_fallback_used_total",
			Help: "Aggregations answered from synthetic data",
		},
		[]string{"kind"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripease_cache_lookups_total",
			Help: "Response cache lookups by result",
		},
		[]string{"kind", "result"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tripease_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "tripease_http_request_duration_seconds",
			Help: "HTTP request latency in seconds",
		},
		[]string{"method", "route"},
	)
)

// Observer feeds aggregator signals into the provider metrics.
type Observer struct{}

func (Observer) AdapterDone(kind aggregator.Kind, provider string, elapsed time.Duration, err *aggregator.AdapterError) {
	outcome := "success"
	if err != nil {
		outcome = string(err.Reason)
	}
	ProviderCalls.WithLabelValues(string(kind), provider, outcome).Inc()
	ProviderDuration.WithLabelValues(string(kind), provider).Observe(elapsed.Seconds())
}

func (Observer) FallbackUsed(kind aggregator.Kind) {
	FallbackUsed.WithLabelValues(string(kind)).Inc()
}

// CacheLookup records a hit or miss.
func CacheLookup(kind aggregator.Kind, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(string(kind), result).Inc()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
