package ports

// MetricsRecorder receives cache behavior events for instrumentation.
// Every method must be cheap and non-blocking; implementations typically
// increment Prometheus counters. A nil recorder disables instrumentation.
type MetricsRecorder interface {
	// Hit is recorded when a read returns a usable entry (fresh or stale).
	Hit(stale bool)
	// Miss is recorded when a read finds no usable entry.
	Miss()
	// Eviction is recorded when a read proactively deletes a record; reason
	// is one of "expired", "version_mismatch", "malformed".
	Eviction(reason string)
	// Refresh is recorded on every successful fetch write-back.
	Refresh()
	// FetchError is recorded on every failed fetch; degraded reports whether
	// the failure was absorbed by an offline cache fallback.
	FetchError(degraded bool)
	// ObserveStats publishes the aggregate namespace footprint.
	ObserveStats(count int, totalSizeBytes int64)
}
