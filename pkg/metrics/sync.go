package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records reconciliation and optimistic-edit outcomes.
type SyncMetrics struct {
	reconciles        *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	editFailures      prometheus.Counter
	droppedSignals    prometheus.Counter
}

// NewSyncMetrics registers the sync metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	reconciles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_reconciles_total",
		Help: "Cart reconciliation passes by trigger.",
	}, []string{"trigger"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_reconcile_duration_seconds",
		Help:    "Duration of fetch-and-replace reconciliation passes.",
		Buckets: prometheus.DefBuckets,
	})
	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_edit_failures_total",
		Help: "Optimistic edits that were reverted after a remote failure.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_signals_dropped_total",
		Help: "Push signals ignored because the consumer was torn down.",
	})
	reg.MustRegister(reconciles, duration, failures, dropped)
	return &SyncMetrics{
		reconciles:        reconciles,
		reconcileDuration: duration,
		editFailures:      failures,
		droppedSignals:    dropped,
	}
}

// IncReconcile counts a reconciliation pass for the given trigger
// ("edit" or "push").
func (m *SyncMetrics) IncReconcile(trigger string) {
	if m == nil || m.reconciles == nil {
		return
	}
	m.reconciles.WithLabelValues(trigger).Inc()
}

// ObserveReconcile records how long a reconciliation pass took.
func (m *SyncMetrics) ObserveReconcile(duration time.Duration) {
	if m == nil || m.reconcileDuration == nil {
		return
	}
	m.reconcileDuration.Observe(duration.Seconds())
}

// IncEditFailure counts a reverted optimistic edit.
func (m *SyncMetrics) IncEditFailure() {
	if m == nil || m.editFailures == nil {
		return
	}
	m.editFailures.Inc()
}

// IncDroppedSignal counts a push signal dropped after teardown.
func (m *SyncMetrics) IncDroppedSignal() {
	if m == nil || m.droppedSignals == nil {
		return
	}
	m.droppedSignals.Inc()
}
