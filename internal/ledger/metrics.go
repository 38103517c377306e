package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerconsole_http_requests_total",
		Help: "Outbound ledger requests, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledgerconsole_http_request_duration_seconds",
		Help:    "Outbound ledger request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "endpoint"})

	readRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledgerconsole_read_retries_total",
		Help: "Read requests retried after a transient failure",
	}, []string{"endpoint"})
)
