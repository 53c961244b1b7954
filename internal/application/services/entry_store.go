package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/offlinefirst/swr-cache/internal/core/domain/cache"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// Namespace is the fixed tag prefixed to every storage key so cache records
// never collide with unrelated data in the shared medium.
const Namespace = "swrcache"

// EntryStore persists versioned cache entries through an injected
// KeyValueStore. It keeps no in-memory shadow copy; the subscription holds
// the working value for its own key. Storage failures never propagate:
// reads degrade to "absent" and writes to a logged no-op.
type EntryStore struct {
	store   ports.KeyValueStore
	logger  *logrus.Logger
	metrics ports.MetricsRecorder
	prefix  string
	now     func() time.Time
}

// EntryStoreOption customizes an EntryStore.
type EntryStoreOption func(*EntryStore)

// WithStoreClock overrides the wall clock, for tests.
func WithStoreClock(now func() time.Time) EntryStoreOption {
	return func(s *EntryStore) { s.now = now }
}

// WithStoreMetrics attaches a metrics recorder.
func WithStoreMetrics(m ports.MetricsRecorder) EntryStoreOption {
	return func(s *EntryStore) { s.metrics = m }
}

// NewEntryStore creates an EntryStore over the given storage medium.
func NewEntryStore(store ports.KeyValueStore, logger *logrus.Logger, opts ...EntryStoreOption) *EntryStore {
	s := &EntryStore{
		store:  store,
		logger: logger,
		prefix: Namespace + ":",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EntryStore) namespaced(key string) string {
	return s.prefix + key
}

// Read returns the entry stored under key, or ok=false when no usable entry
// exists. Malformed records, version mismatches and entries older than
// cacheTime all resolve to absent; in every such case the offending record
// is deleted so it never resurfaces. Storage read errors are logged and
// resolve to absent without deleting anything.
func (s *EntryStore) Read(ctx context.Context, key string, cacheTime time.Duration) (*cache.Entry, bool) {
	return s.read(ctx, key, cacheTime, true)
}

// ReadDegraded is the offline-fallback read: it still fences on version and
// deletes malformed records, but ignores expiry entirely. An expired entry
// beats nothing when no network path exists to do better.
func (s *EntryStore) ReadDegraded(ctx context.Context, key string) (*cache.Entry, bool) {
	return s.read(ctx, key, 0, false)
}

func (s *EntryStore) read(ctx context.Context, key string, cacheTime time.Duration, enforceExpiry bool) (*cache.Entry, bool) {
	raw, ok, err := s.store.Get(ctx, s.namespaced(key))
	if err != nil {
		s.log(key).WithError(err).Warn("cache read failed; treating entry as absent")
		s.recordMiss()
		return nil, false
	}
	if !ok {
		s.recordMiss()
		return nil, false
	}

	var entry cache.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.log(key).WithError(err).Warn("cache entry malformed; evicting")
		s.evict(ctx, key, "malformed")
		return nil, false
	}

	if entry.Version != cache.SchemaVersion {
		s.log(key).WithFields(logrus.Fields{
			"entry_version":  entry.Version,
			"schema_version": cache.SchemaVersion,
		}).Debug("cache entry version mismatch; evicting")
		s.evict(ctx, key, "version_mismatch")
		return nil, false
	}

	if enforceExpiry && cache.IsExpired(entry, cacheTime, s.now()) {
		s.log(key).WithField("age", entry.Age(s.now()).String()).Debug("cache entry expired; evicting")
		s.evict(ctx, key, "expired")
		return nil, false
	}

	return &entry, true
}

// Write persists data under key as a fresh entry stamped with the current
// time and schema version, unconditionally overwriting any prior record.
// Failures are logged and swallowed; the caller still holds the in-memory
// value even when persistence did not happen.
func (s *EntryStore) Write(ctx context.Context, key string, data json.RawMessage) {
	entry := cache.NewEntry(data, s.now())

	raw, err := json.Marshal(entry)
	if err != nil {
		s.log(key).WithError(err).Warn("cache entry marshal failed; skipping write")
		return
	}
	if err := s.store.Set(ctx, s.namespaced(key), raw); err != nil {
		s.log(key).WithError(err).Warn("cache write failed; value not persisted")
	}
}

// DeleteAll removes every record under the cache namespace.
func (s *EntryStore) DeleteAll(ctx context.Context) error {
	keys, err := s.store.Keys(ctx, s.prefix)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.store.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports how many records the namespace holds and their total
// serialized size. Read-only.
func (s *EntryStore) Stats(ctx context.Context) (cache.Stats, error) {
	keys, err := s.store.Keys(ctx, s.prefix)
	if err != nil {
		return cache.Stats{}, err
	}

	stats := cache.Stats{}
	for _, k := range keys {
		raw, ok, err := s.store.Get(ctx, k)
		if err != nil || !ok {
			continue
		}
		stats.Count++
		stats.TotalSizeBytes += int64(len(raw))
	}
	return stats, nil
}

// evict best-effort deletes an unusable record.
func (s *EntryStore) evict(ctx context.Context, key, reason string) {
	if err := s.store.Delete(ctx, s.namespaced(key)); err != nil {
		s.log(key).WithError(err).Warn("cache eviction failed")
	}
	if s.metrics != nil {
		s.metrics.Eviction(reason)
		s.metrics.Miss()
	}
}

func (s *EntryStore) recordMiss() {
	if s.metrics != nil {
		s.metrics.Miss()
	}
}

func (s *EntryStore) log(key string) *logrus.Entry {
	logger := s.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("cache_key", key)
}
