// Package metrics implements the cache's MetricsRecorder with Prometheus
// collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// CacheMetrics holds the Prometheus collectors for cache behavior.
type CacheMetrics struct {
	hitsTotal        *prometheus.CounterVec
	missesTotal      prometheus.Counter
	evictionsTotal   *prometheus.CounterVec
	refreshesTotal   prometheus.Counter
	fetchErrorsTotal *prometheus.CounterVec
	entryCount       prometheus.Gauge
	entrySizeBytes   prometheus.Gauge
}

// NewCacheMetrics creates and registers the collectors on reg (use
// prometheus.DefaultRegisterer in servers, a private registry in tests).
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swrcache_hits_total",
			Help: "Cache reads that returned a usable entry, by freshness",
		}, []string{"freshness"}),
		missesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swrcache_misses_total",
			Help: "Cache reads that found no usable entry",
		}),
		evictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swrcache_evictions_total",
			Help: "Entries deleted on read, by reason",
		}, []string{"reason"}),
		refreshesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swrcache_refreshes_total",
			Help: "Successful fetches written back to the cache",
		}),
		fetchErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swrcache_fetch_errors_total",
			Help: "Failed fetches, by whether the failure degraded to cached data",
		}, []string{"degraded"}),
		entryCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swrcache_entries",
			Help: "Entries currently persisted under the cache namespace",
		}),
		entrySizeBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "swrcache_entries_size_bytes",
			Help: "Total serialized size of persisted cache entries",
		}),
	}

	reg.MustRegister(
		m.hitsTotal,
		m.missesTotal,
		m.evictionsTotal,
		m.refreshesTotal,
		m.fetchErrorsTotal,
		m.entryCount,
		m.entrySizeBytes,
	)
	return m
}

var _ ports.MetricsRecorder = (*CacheMetrics)(nil)

func (m *CacheMetrics) Hit(stale bool) {
	freshness := "fresh"
	if stale {
		freshness = "stale"
	}
	m.hitsTotal.WithLabelValues(freshness).Inc()
}

func (m *CacheMetrics) Miss() {
	m.missesTotal.Inc()
}

func (m *CacheMetrics) Eviction(reason string) {
	m.evictionsTotal.WithLabelValues(reason).Inc()
}

func (m *CacheMetrics) Refresh() {
	m.refreshesTotal.Inc()
}

func (m *CacheMetrics) FetchError(degraded bool) {
	label := "false"
	if degraded {
		label = "true"
	}
	m.fetchErrorsTotal.WithLabelValues(label).Inc()
}

func (m *CacheMetrics) ObserveStats(count int, totalSizeBytes int64) {
	m.entryCount.Set(float64(count))
	m.entrySizeBytes.Set(float64(totalSizeBytes))
}
