package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 账本指标：入账、重复拒绝、校验拒绝按来源区分
	CreditsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_credits_total",
			Help: "Completion events credited, by origin",
		},
		[]string{"origin"},
	)

	DuplicatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_duplicates_rejected_total",
			Help: "Completion events rejected as duplicates, by origin",
		},
		[]string{"origin"},
	)

	ValidationRejectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_validation_rejects_total",
			Help: "Completion events rejected before any write",
		},
	)

	ReconcileRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_reconcile_repairs_total",
			Help: "Learner summaries repaired from event history replay",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(CreditsTotal)
	prometheus.MustRegister(DuplicatesTotal)
	prometheus.MustRegister(ValidationRejectsTotal)
	prometheus.MustRegister(ReconcileRepairsTotal)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
