package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcome labels.
const (
	StatusOK          = "ok"
	StatusError       = "error"
	StatusUnsupported = "unsupported"
)

// ProviderMetrics counts and times backend operations per provider.
type ProviderMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	hits       *prometheus.HistogramVec
}

// NewProviderMetrics registers provider metrics on reg, reusing collectors
// already registered there.
func NewProviderMetrics(reg prometheus.Registerer) (*ProviderMetrics, error) {
	m := &ProviderMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "provider",
			Name:      "operations_total",
			Help:      "Total provider operations by provider, operation and status.",
		}, []string{"provider", "operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "provider",
			Name:      "operation_duration_seconds",
			Help:      "Provider operation duration in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "operation"}),
		hits: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "provider",
			Name:      "search_hits",
			Help:      "Total hits reported per search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"provider"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.hits); err != nil {
		return nil, err
	}
	return m, nil
}

// Observe records one operation.
func (m *ProviderMetrics) Observe(provider, op, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(provider, op, status).Inc()
	m.duration.WithLabelValues(provider, op).Observe(d.Seconds())
}

// ObserveHits records the total hit count of a search.
func (m *ProviderMetrics) ObserveHits(provider string, nbHits int) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(provider).Observe(float64(nbHits))
}
