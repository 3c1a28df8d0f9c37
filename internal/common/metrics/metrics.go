// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP request handling in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	UpstreamFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_fetch_total",
			Help: "Total number of upstream fetches by target and outcome",
		},
		[]string{"target", "outcome"},
	)

	AggregatorPagesFetched = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregator_pages_fetched",
			Help:    "Number of upstream pages fetched per aggregation",
			Buckets: prometheus.LinearBuckets(1, 1, 12),
		},
	)
)

// Upstream fetch outcomes.
const (
	OutcomeOK        = "ok"
	OutcomeStatus    = "bad_status"
	OutcomeTransport = "transport_error"
	OutcomeMalformed = "malformed"
	OutcomeTooLarge  = "too_large"
)

// RecordUpstream counts one upstream fetch.
func RecordUpstream(target, outcome string) {
	UpstreamFetchTotal.WithLabelValues(target, outcome).Inc()
}
