package stategen

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the regeneration queue's counters and histogram,
// labeled (caller, entrypoint).
type Metrics struct {
	enqueued    *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	queueDepth  prometheus.Gauge

	totalEnqueued uint64
	totalErrors   uint64
	depth         int64
}

// QueueMetrics is a plain-value snapshot of the regen queue's
// counters, for hosts that want the numbers without scraping the
// registered Prometheus collectors directly.
type QueueMetrics struct {
	Enqueued   uint64
	Errors     uint64
	QueueDepth int64
}

// Snapshot returns the current totals. Counts are process-wide, not
// per (caller, entrypoint); use the registered CounterVecs directly
// for that breakdown.
func (m *Metrics) Snapshot() QueueMetrics {
	return QueueMetrics{
		Enqueued:   atomic.LoadUint64(&m.totalEnqueued),
		Errors:     atomic.LoadUint64(&m.totalErrors),
		QueueDepth: atomic.LoadInt64(&m.depth),
	}
}

// NewMetrics registers a fresh Metrics set against reg. Pass
// prometheus.NewRegistry() in tests to avoid collisions with the
// default global registry across parallel test binaries.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		enqueued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regen_fn_enqueued_total",
			Help: "Number of regeneration requests enqueued, by caller and entrypoint.",
		}, []string{"caller", "entrypoint"}),
		errorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "regen_fn_total_errors",
			Help: "Number of regeneration jobs that failed, by caller and entrypoint.",
		}, []string{"caller", "entrypoint"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regen_fn_duration_seconds",
			Help:    "Duration of a regeneration job, by caller and entrypoint.",
			Buckets: prometheus.DefBuckets,
		}, []string{"caller", "entrypoint"}),
		queueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "regen_queue_depth",
			Help: "Current number of pending plus in-flight regeneration jobs.",
		}),
	}
}

func (m *Metrics) observeEnqueue(caller, entrypoint string) {
	m.enqueued.WithLabelValues(caller, entrypoint).Inc()
	atomic.AddUint64(&m.totalEnqueued, 1)
}

func (m *Metrics) observeError(caller, entrypoint string) {
	m.errorsTotal.WithLabelValues(caller, entrypoint).Inc()
	atomic.AddUint64(&m.totalErrors, 1)
}

func (m *Metrics) observeDuration(caller, entrypoint string, seconds float64) {
	m.duration.WithLabelValues(caller, entrypoint).Observe(seconds)
}

func (m *Metrics) setQueueDepth(n int) {
	m.queueDepth.Set(float64(n))
	atomic.StoreInt64(&m.depth, int64(n))
}
