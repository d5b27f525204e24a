package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the image upload pipeline.
type Metrics struct {
	batches    *prometheus.CounterVec
	files      *prometheus.CounterVec
	bytes      *prometheus.CounterVec
	deletes    *prometheus.CounterVec
	uploadTime prometheus.Histogram
}

var (
	defaultOnce sync.Once
	shared      *Metrics
)

// Default returns the instance registered with the global Prometheus registry.
// Collectors are created once so building several pipelines does not panic on
// duplicate registration.
func Default() *Metrics {
	defaultOnce.Do(func() {
		shared = MustNew(prometheus.DefaultRegisterer)
	})
	return shared
}

// MustNew registers a fresh set of collectors with reg. Tests pass their own
// prometheus.NewRegistry().
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "upload",
			Name:      "batches_total",
			Help:      "Upload batches by outcome (success, invalid, failed).",
		}, []string{"outcome"}),
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "upload",
			Name:      "files_total",
			Help:      "Files stored per namespace.",
		}, []string{"namespace"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Image bytes before and after compression.",
		}, []string{"stage"}),
		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog",
			Subsystem: "upload",
			Name:      "deletes_total",
			Help:      "Asset deletions by reason (rollback, discard) and result.",
		}, []string{"reason", "result"}),
		uploadTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "catalog",
			Subsystem: "upload",
			Name:      "batch_duration_seconds",
			Help:      "Time spent compressing and storing one batch.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.batches, m.files, m.bytes, m.deletes, m.uploadTime)
	return m
}

// Batch records the outcome of one upload batch. Methods on a nil *Metrics
// record nothing.
func (m *Metrics) Batch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(outcome).Inc()
	if outcome == "success" {
		m.uploadTime.Observe(seconds)
	}
}

func (m *Metrics) Stored(namespace string, before, after int) {
	if m == nil {
		return
	}
	m.files.WithLabelValues(namespace).Inc()
	m.bytes.WithLabelValues("raw").Add(float64(before))
	m.bytes.WithLabelValues("compressed").Add(float64(after))
}

func (m *Metrics) Deleted(reason string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.deletes.WithLabelValues(reason, result).Inc()
}
