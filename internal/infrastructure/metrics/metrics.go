package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	appbilling "github.com/rentledger/backend/internal/application/billing"
)

// Metrics holds all Prometheus metrics for the billing engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	runDuration     prometheus.Histogram
	billsProcessed  *prometheus.CounterVec
	penaltiesTotal  prometheus.Counter
	penaltyAmount   prometheus.Counter
	lockRetries     prometheus.Counter
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		runDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rentledger_accrual_run_duration_seconds",
				Help:    "Duration of penalty accrual batch runs.",
				Buckets: prometheus.DefBuckets,
			},
		),
		billsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_accrual_bills_total",
				Help: "Bills touched by accrual runs, by outcome.",
			},
			[]string{"outcome"},
		),
		penaltiesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rentledger_penalties_applied_total",
				Help: "Total number of penalties written to bills.",
			},
		),
		penaltyAmount: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rentledger_penalty_amount_total",
				Help: "Cumulative penalty amount applied, in currency units.",
			},
		),
		lockRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rentledger_accrual_lock_retries_total",
				Help: "Optimistic lock conflicts retried during accrual.",
			},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentledger_http_request_duration_seconds",
				Help:    "Duration of HTTP requests by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentledger_http_requests_total",
				Help: "Total HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// RequestsTotal exposes the HTTP request counter for inspection in tests.
func (m *Metrics) RequestsTotal() *prometheus.CounterVec {
	return m.requestsTotal
}

// ObserveRun records the outcome of an accrual batch run.
func (m *Metrics) ObserveRun(duration time.Duration, processed, applied, failed int) {
	m.runDuration.Observe(duration.Seconds())
	m.billsProcessed.WithLabelValues("processed").Add(float64(processed))
	m.billsProcessed.WithLabelValues("applied").Add(float64(applied))
	m.billsProcessed.WithLabelValues("failed").Add(float64(failed))
}

// IncLockRetry counts an optimistic lock conflict retry.
func (m *Metrics) IncLockRetry() {
	m.lockRetries.Inc()
}

// IncPenaltyApplied counts a penalty write and its amount.
func (m *Metrics) IncPenaltyApplied(amount decimal.Decimal) {
	m.penaltiesTotal.Inc()
	amt, _ := amount.Float64()
	m.penaltyAmount.Add(amt)
}

// ObserveHTTPRequest records one handled HTTP request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
}

var _ appbilling.AccrualMetrics = (*Metrics)(nil)
