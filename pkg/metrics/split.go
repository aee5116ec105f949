package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SplitMetrics records save/fetch outcomes and cache effectiveness for the
// split service.
type SplitMetrics struct {
	saves       *prometheus.CounterVec
	fetches     *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewSplitMetrics registers the split service metrics on the provided registerer.
func NewSplitMetrics(reg prometheus.Registerer) *SplitMetrics {
	if reg == nil {
		return &SplitMetrics{}
	}
	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "split_saves_total",
		Help: "Split save attempts by outcome.",
	}, []string{"outcome"})
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "split_fetches_total",
		Help: "Split fetch attempts by outcome.",
	}, []string{"outcome"})
	cacheLookup := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "split_cache_lookups_total",
		Help: "Split cache lookups by result.",
	}, []string{"result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "split_operation_duration_seconds",
		Help:    "Duration of split service operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(saves, fetches, cacheLookup, duration)
	return &SplitMetrics{
		saves:       saves,
		fetches:     fetches,
		cacheLookup: cacheLookup,
		duration:    duration,
	}
}

// ObserveSave records one save attempt.
func (m *SplitMetrics) ObserveSave(outcome string) {
	if m == nil || m.saves == nil {
		return
	}
	m.saves.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveFetch records one fetch attempt.
func (m *SplitMetrics) ObserveFetch(outcome string) {
	if m == nil || m.fetches == nil {
		return
	}
	m.fetches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCacheLookup records a cache hit or miss.
func (m *SplitMetrics) ObserveCacheLookup(result string) {
	if m == nil || m.cacheLookup == nil {
		return
	}
	m.cacheLookup.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveDuration records the duration of the named operation.
func (m *SplitMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}
