package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SagaMetrics records order placement outcomes.
type SagaMetrics struct {
	duration prometheus.Histogram
	success  prometheus.Counter
	failure  *prometheus.CounterVec
}

// NewSagaMetrics registers the saga metrics on the provided registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		return &SagaMetrics{}
	}
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of order placement runs.",
		Buckets: prometheus.DefBuckets,
	})
	success := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_placements_total",
		Help: "Successfully placed orders.",
	})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_placement_failures_total",
		Help: "Failed order placements by saga step.",
	}, []string{"step"})
	reg.MustRegister(duration, success, failure)
	return &SagaMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records how long a saga run took.
func (m *SagaMetrics) ObserveDuration(duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(duration.Seconds())
}

// IncSuccess counts a completed placement.
func (m *SagaMetrics) IncSuccess() {
	if m == nil || m.success == nil {
		return
	}
	m.success.Inc()
}

// IncFailure counts a failed placement at the named step.
func (m *SagaMetrics) IncFailure(step string) {
	if m == nil || m.failure == nil {
		return
	}
	if step == "" {
		step = "unknown"
	}
	m.failure.WithLabelValues(step).Inc()
}
