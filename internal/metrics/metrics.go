// Package metrics exposes Prometheus instrumentation for the detection
// engine. All methods are nil-safe so wiring metrics stays optional.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the detection-engine collectors.
type Metrics struct {
	itemsProcessed   *prometheus.CounterVec
	itemErrors       *prometheus.CounterVec
	mentionsDetected *prometheus.CounterVec
	insertFailures   prometheus.Counter
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runclub_detect_items_processed_total",
			Help: "Content items processed by the mention detector.",
		}, []string{"content_type"}),
		itemErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runclub_detect_item_errors_total",
			Help: "Content items that failed processing.",
		}, []string{"content_type"}),
		mentionsDetected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "runclub_detect_mentions_total",
			Help: "Athlete mentions detected, by text source.",
		}, []string{"source"}),
		insertFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "runclub_detect_mention_insert_failures_total",
			Help: "Mention rows that failed to persist and were skipped.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.itemsProcessed, m.itemErrors, m.mentionsDetected, m.insertFailures)
	}
	return m
}

// ItemProcessed records a completed item pass.
func (m *Metrics) ItemProcessed(contentType string) {
	if m == nil {
		return
	}
	m.itemsProcessed.WithLabelValues(contentType).Inc()
}

// ItemError records a failed item pass.
func (m *Metrics) ItemError(contentType string) {
	if m == nil {
		return
	}
	m.itemErrors.WithLabelValues(contentType).Inc()
}

// MentionsDetected records detections by source field.
func (m *Metrics) MentionsDetected(source string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.mentionsDetected.WithLabelValues(source).Add(float64(count))
}

// InsertFailure records a skipped mention insert.
func (m *Metrics) InsertFailure() {
	if m == nil {
		return
	}
	m.insertFailures.Inc()
}
