package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "library"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled.",
	}, []string{"method", "path", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
	}, []string{"method", "path"})

	operations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "circulation",
		Name:      "operations_total",
		Help:      "Circulation and membership operations by outcome code.",
	}, []string{"operation", "outcome"})

	finesCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "circulation",
		Name:      "fines_collected_total",
		Help:      "Sum of late fines settled as paid.",
	})

	finesAccrued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "circulation",
		Name:      "fines_accrued_total",
		Help:      "Sum of late fines moved to member pending balances.",
	})

	serialsAllocated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "catalog",
		Name:      "serials_allocated_total",
		Help:      "Serial numbers allocated at intake.",
	}, []string{"kind"})

	openLoans = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "open_loans",
		Help:      "Loans without an actual return date, as of the last reconcile.",
	})

	overdueLoans = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "overdue_loans",
		Help:      "Open loans past their planned return date, as of the last reconcile.",
	})

	divergences = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ledger",
		Name:      "status_divergences_total",
		Help:      "Copies whose cached status disagreed with the loan ledger.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpInFlight, httpRequests, httpDuration,
		operations, finesCollected, finesAccrued, serialsAllocated,
		openLoans, overdueLoans, divergences,
	)
}

// Handler は /metrics 用
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware は HTTP メトリクスを記録する。path はルート定義（FullPath）でまとめる。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		start := time.Now()
		c.Next()
		httpInFlight.Dec()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordOperation は業務操作の結果（"ok" またはエラーコード）を数える
func RecordOperation(op, outcome string) {
	operations.WithLabelValues(op, outcome).Inc()
}

func AddFineCollected(v float64) {
	if v > 0 {
		finesCollected.Add(v)
	}
}

func AddFineAccrued(v float64) {
	if v > 0 {
		finesAccrued.Add(v)
	}
}

func AddSerialsAllocated(kind string, n int) {
	serialsAllocated.WithLabelValues(kind).Add(float64(n))
}

func SetLedgerGauges(open, overdue int) {
	openLoans.Set(float64(open))
	overdueLoans.Set(float64(overdue))
}

func AddDivergences(n int) {
	if n > 0 {
		divergences.Add(float64(n))
	}
}
