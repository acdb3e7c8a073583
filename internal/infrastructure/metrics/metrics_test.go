package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()

	require.NotNil(t, m)
	require.NotNil(t, m.Registry)

	// Creating a second instance must not panic on duplicate registration
	assert.NotPanics(t, func() { NewMetrics() })
}

func TestMetrics_ObserveRun(t *testing.T) {
	m := NewMetrics()

	m.ObserveRun(2*time.Second, 10, 7, 1)
	m.ObserveRun(time.Second, 5, 5, 0)

	assert.Equal(t, float64(15), testutil.ToFloat64(m.billsProcessed.WithLabelValues("processed")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.billsProcessed.WithLabelValues("applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.billsProcessed.WithLabelValues("failed")))
}

func TestMetrics_IncPenaltyApplied(t *testing.T) {
	m := NewMetrics()

	m.IncPenaltyApplied(decimal.NewFromInt(250))
	m.IncPenaltyApplied(decimal.NewFromInt(50))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.penaltiesTotal))
	assert.Equal(t, float64(300), testutil.ToFloat64(m.penaltyAmount))
}

func TestMetrics_IncLockRetry(t *testing.T) {
	m := NewMetrics()

	m.IncLockRetry()
	m.IncLockRetry()
	m.IncLockRetry()

	assert.Equal(t, float64(3), testutil.ToFloat64(m.lockRetries))
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTPRequest("GET", "/api/v1/bills", "200", 50*time.Millisecond)
	m.ObserveHTTPRequest("GET", "/api/v1/bills", "200", 30*time.Millisecond)
	m.ObserveHTTPRequest("POST", "/api/v1/penalties/run", "202", 100*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/v1/bills", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("POST", "/api/v1/penalties/run", "202")))
}
