package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mairie_http_requests_total",
			Help: "Total HTTP requests handled by the API",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mairie_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	anchorAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mairie_ledger_anchor_attempts_total",
			Help: "Ledger anchor attempts by fact kind",
		},
		[]string{"fact_kind"},
	)

	anchorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mairie_ledger_anchor_failures_total",
			Help: "Failed ledger anchor attempts by fact kind",
		},
		[]string{"fact_kind"},
	)
)

// ObserveAnchorAttempt records one ledger anchor attempt and its outcome
func ObserveAnchorAttempt(factKind string, err error) {
	anchorAttemptsTotal.WithLabelValues(factKind).Inc()
	if err != nil {
		anchorFailuresTotal.WithLabelValues(factKind).Inc()
	}
}

// Middleware returns a gin middleware collecting request counts and
// latencies. The route template is used as the path label, so parameterized
// routes stay at fixed cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}
