// Package metrics provides reconciliation pipeline metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "parcelmap"

// Metrics contains Prometheus metrics for a reconciliation run.
type Metrics struct {
	registry *prometheus.Registry

	recordsIngested *prometheus.CounterVec
	recordsRejected *prometheus.CounterVec
	merges          prometheus.Counter
	mergeConflicts  *prometheus.CounterVec
	duplicates      *prometheus.CounterVec
	recordsByTier   *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
}

// New creates metrics registered on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewPrivate creates metrics on a fresh registry.
func NewPrivate() *Metrics {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		// a fresh registry cannot hold a conflicting collector
		panic(err)
	}
	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) initMetrics() {
	m.recordsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_ingested_total",
			Help:      "Total number of raw records received from producers",
		},
		[]string{"origin"},
	)

	m.recordsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_rejected_total",
			Help:      "Total number of records excluded during normalization",
		},
		[]string{"reason"}, // reason: missing_required_field, fetch_failed, rejected
	)

	m.merges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "merges_total",
			Help:      "Total number of API/scraped pairs merged",
		},
	)

	m.mergeConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "merge_conflicts_total",
			Help:      "Total number of conflicts detected while merging",
		},
		[]string{"field"},
	)

	m.duplicates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "duplicates_total",
			Help:      "Total number of records marked as duplicates",
		},
		[]string{"reason"},
	)

	m.recordsByTier = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_by_tier_total",
			Help:      "Total number of output records per enrichment level",
		},
		[]string{"level"},
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time taken by each pipeline stage",
			// 1ms to ~16s
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
		},
		[]string{"stage"},
	)
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.recordsIngested.Describe(ch)
	m.recordsRejected.Describe(ch)
	m.merges.Describe(ch)
	m.mergeConflicts.Describe(ch)
	m.duplicates.Describe(ch)
	m.recordsByTier.Describe(ch)
	m.stageDuration.Describe(ch)
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.recordsIngested.Collect(ch)
	m.recordsRejected.Collect(ch)
	m.merges.Collect(ch)
	m.mergeConflicts.Collect(ch)
	m.duplicates.Collect(ch)
	m.recordsByTier.Collect(ch)
	m.stageDuration.Collect(ch)
}

// RecordIngested counts raw records from one origin.
func (m *Metrics) RecordIngested(origin string, n int) {
	m.recordsIngested.WithLabelValues(origin).Add(float64(n))
}

// RecordRejected counts one rejected record.
func (m *Metrics) RecordRejected(reason string) {
	m.recordsRejected.WithLabelValues(reason).Inc()
}

// RecordMerges counts merged pairs.
func (m *Metrics) RecordMerges(n int) {
	m.merges.Add(float64(n))
}

// RecordConflict counts one merge conflict on field.
func (m *Metrics) RecordConflict(field string) {
	m.mergeConflicts.WithLabelValues(field).Inc()
}

// RecordDuplicates counts duplicates marked for reason.
func (m *Metrics) RecordDuplicates(reason string, n int) {
	m.duplicates.WithLabelValues(reason).Add(float64(n))
}

// RecordTier counts one output record at level.
func (m *Metrics) RecordTier(level string) {
	m.recordsByTier.WithLabelValues(level).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteToTextfile writes the registry in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
