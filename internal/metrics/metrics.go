// Package metrics holds the prometheus collectors for metastore operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "metastore"

// Result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics records the outcome and latency of store operations.
type Metrics struct {
	Registry   *prometheus.Registry
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	accounts   prometheus.Gauge
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Metastore operations by operation and result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Metastore operation latency, lock waits included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		accounts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "locked_accounts",
			Help:      "Accounts with a live lock registry entry.",
		}),
	}
	m.Registry.MustRegister(m.operations, m.duration, m.accounts)
	return m
}

// Observe records one finished operation started at start. A nil *Metrics
// records nothing.
func (m *Metrics) Observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetLockedAccounts reports the lock registry size.
func (m *Metrics) SetLockedAccounts(n int) {
	if m == nil {
		return
	}
	m.accounts.Set(float64(n))
}
