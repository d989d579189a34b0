package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// LendingMetrics records lending operation activity for the RPC surface.
type LendingMetrics struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	pool       prometheus.Gauge
}

var (
	lendingOnce sync.Once
	lendingReg  *LendingMetrics
)

// Lending returns the lazily-initialised lending metrics registry.
func Lending() *LendingMetrics {
	lendingOnce.Do(func() {
		lendingReg = &LendingMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autolend",
				Subsystem: "lending",
				Name:      "operations_total",
				Help:      "Total lending operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "autolend",
				Subsystem: "lending",
				Name:      "errors_total",
				Help:      "Total lending operation failures segmented by operation and reason.",
			}, []string{"operation", "reason"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "autolend",
				Subsystem: "lending",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for lending operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			pool: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "autolend",
				Subsystem: "lending",
				Name:      "pool_balance",
				Help:      "Current aggregate pool balance.",
			}),
		}
		prometheus.MustRegister(
			lendingReg.operations,
			lendingReg.errors,
			lendingReg.latency,
			lendingReg.pool,
		)
	})
	return lendingReg
}

// ObserveOperation records one completed operation and its latency.
func (m *LendingMetrics) ObserveOperation(operation, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(seconds)
}

// ObserveError counts a failed operation by reason.
func (m *LendingMetrics) ObserveError(operation, reason string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(operation, reason).Inc()
}

// SetPoolBalance publishes the pool balance after a successful operation.
func (m *LendingMetrics) SetPoolBalance(balance float64) {
	if m == nil {
		return
	}
	m.pool.Set(balance)
}
