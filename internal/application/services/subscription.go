package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/offlinefirst/swr-cache/internal/core/domain/cache"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// SubscriptionConfig describes one logical subscription. It is never
// persisted. Use NewSubscriptionConfig for the documented defaults.
type SubscriptionConfig struct {
	// Key identifies the logical resource within the cache namespace.
	// Collisions silently overwrite.
	Key string
	// StaleTime is the soft threshold after which cached data should be
	// treated as outdated and refreshed when the network allows.
	StaleTime time.Duration
	// CacheTime is the hard threshold after which cached data is discarded
	// on read. StaleTime < CacheTime is the expected configuration; the
	// subscription does not correct a misordered pair.
	CacheTime time.Duration
	// Enabled controls whether the subscription reacts to anything at all.
	Enabled bool
}

// NewSubscriptionConfig returns the default configuration for key:
// staleTime 5m, cacheTime 30m, enabled.
func NewSubscriptionConfig(key string) SubscriptionConfig {
	return SubscriptionConfig{
		Key:       key,
		StaleTime: cache.DefaultStaleTime,
		CacheTime: cache.DefaultCacheTime,
		Enabled:   true,
	}
}

// Subscription coordinates cache reads, network-aware fetch decisions,
// error fallback to stale cache, and write-back of fresh results for one
// key. It is the state machine behind stale-while-revalidate:
//
//	Idle -> Loading -> (Fresh | Stale | Errored)
//
// re-entering Loading on manual refetch, key change, or reconnect while
// stale. Snapshot mutations are serialized; overlapping fetches for the
// same key are NOT de-duplicated unless WithSingleflight is set, so two
// concurrent activations each call the fetcher and the later write wins.
type Subscription[T any] struct {
	id      uuid.UUID
	store   *EntryStore
	network ports.NetworkMonitor
	fetcher ports.Fetcher[T]
	logger  *logrus.Logger
	metrics ports.MetricsRecorder
	now     func() time.Time
	flights *singleflight.Group

	mu  sync.Mutex
	cfg SubscriptionConfig
	// gen is bumped on every key change, enable toggle, and close. A fetch
	// captures the generation it was launched under; a settled fetch whose
	// generation no longer matches may still write back to storage but must
	// not touch the snapshot, which now belongs to a different key or to a
	// frozen state.
	gen         uint64
	snapshot    cache.Snapshot[T]
	onChange    func(cache.Snapshot[T])
	closed      bool
	unsubscribe func()
}

// SubscriptionOption customizes a Subscription.
type SubscriptionOption[T any] func(*Subscription[T])

// WithClock overrides the wall clock, for tests.
func WithClock[T any](now func() time.Time) SubscriptionOption[T] {
	return func(s *Subscription[T]) { s.now = now }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics[T any](m ports.MetricsRecorder) SubscriptionOption[T] {
	return func(s *Subscription[T]) { s.metrics = m }
}

// WithOnChange registers a callback invoked with a snapshot copy after
// every transition. It runs off the subscription's lock, so it may read
// the subscription; callbacks from concurrent transitions may interleave.
func WithOnChange[T any](fn func(cache.Snapshot[T])) SubscriptionOption[T] {
	return func(s *Subscription[T]) { s.onChange = fn }
}

// WithSingleflight coalesces overlapping fetches for the same key through
// the given group. Pass a shared group to de-duplicate across
// subscriptions. This is a deliberate opt-in: the default behavior keeps
// the original last-write-wins semantics.
func WithSingleflight[T any](g *singleflight.Group) SubscriptionOption[T] {
	return func(s *Subscription[T]) { s.flights = g }
}

// NewSubscription builds a subscription over the given collaborators. Zero
// durations in cfg fall back to the defaults; call Start to activate.
func NewSubscription[T any](store *EntryStore, network ports.NetworkMonitor, fetcher ports.Fetcher[T], cfg SubscriptionConfig, logger *logrus.Logger, opts ...SubscriptionOption[T]) *Subscription[T] {
	if cfg.StaleTime == 0 {
		cfg.StaleTime = cache.DefaultStaleTime
	}
	if cfg.CacheTime == 0 {
		cfg.CacheTime = cache.DefaultCacheTime
	}

	s := &Subscription[T]{
		id:      uuid.New(),
		store:   store,
		network: network,
		fetcher: fetcher,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start activates the subscription: it hooks the network monitor and runs
// the initialization sequence, returning the immediately available
// snapshot. Any background refresh it decides to run does not block.
func (s *Subscription[T]) Start(ctx context.Context) cache.Snapshot[T] {
	s.mu.Lock()
	if s.unsubscribe == nil && !s.closed {
		s.unsubscribe = s.network.Subscribe(s.onNetworkChange)
	}
	s.mu.Unlock()

	return s.initialize(ctx)
}

// Snapshot returns the current snapshot.
func (s *Subscription[T]) Snapshot() cache.Snapshot[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// SetKey switches the subscription to a new logical resource and re-runs
// initialization, exactly as a fresh activation would. Fetches in flight
// for the old key are orphaned: they may still persist their result but
// no longer reach the snapshot.
func (s *Subscription[T]) SetKey(ctx context.Context, key string) cache.Snapshot[T] {
	s.mu.Lock()
	if s.cfg.Key == key {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	s.cfg.Key = key
	s.gen++
	s.snapshot = cache.Snapshot[T]{}
	s.mu.Unlock()

	return s.initialize(ctx)
}

// SetEnabled toggles the subscription. Enabling re-runs initialization;
// disabling freezes the snapshot in an idle state and orphans any fetch
// in flight.
func (s *Subscription[T]) SetEnabled(ctx context.Context, enabled bool) cache.Snapshot[T] {
	s.mu.Lock()
	if s.cfg.Enabled == enabled {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	s.cfg.Enabled = enabled
	s.gen++
	if !enabled {
		next := cache.Snapshot[T]{State: cache.StateIdle}
		s.snapshot = next
		fn := s.onChange
		s.mu.Unlock()
		if fn != nil {
			fn(next)
		}
		return next
	}
	s.mu.Unlock()

	return s.initialize(ctx)
}

// Refetch re-runs the fetch path regardless of staleness or connectivity;
// an offline refetch fails into the degraded-fallback path. It blocks until
// the fetch settles and returns the resulting snapshot. Closed or disabled
// subscriptions return their frozen snapshot without fetching.
func (s *Subscription[T]) Refetch(ctx context.Context) cache.Snapshot[T] {
	s.mu.Lock()
	if s.closed || !s.cfg.Enabled {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	gen := s.gen
	s.mu.Unlock()

	return s.fetch(ctx, gen)
}

// Close tears the subscription down. An in-flight fetch is allowed to
// complete and persist its result, but it will no longer update the
// snapshot or fire callbacks.
func (s *Subscription[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.gen++
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// initialize serves whatever the cache holds right away, then decides
// whether a background fetch is warranted.
func (s *Subscription[T]) initialize(ctx context.Context) cache.Snapshot[T] {
	s.mu.Lock()
	if s.closed || !s.cfg.Enabled {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	gen := s.gen
	key := s.cfg.Key
	staleTime := s.cfg.StaleTime
	cacheTime := s.cfg.CacheTime
	s.mu.Unlock()

	offline := s.network.IsOffline()

	entry, ok := s.store.Read(ctx, key, cacheTime)
	if ok {
		value, err := decodePayload[T](entry.Data)
		if err != nil {
			s.log().WithError(err).Warn("cached payload does not decode; ignoring entry")
		} else {
			stale := cache.IsStale(*entry, staleTime, s.now())
			state := cache.StateFresh
			if stale {
				state = cache.StateStale
			}
			if s.metrics != nil {
				s.metrics.Hit(stale)
			}
			snap := s.apply(gen, cache.Snapshot[T]{
				State:     state,
				Data:      value,
				IsStale:   stale,
				IsOffline: offline,
				Loaded:    true,
			})
			if stale && !offline {
				s.backgroundFetch(ctx, gen)
			}
			return snap
		}
	}

	if offline {
		// Nothing cached and no network path: surface a not-yet-loaded state.
		return s.apply(gen, cache.Snapshot[T]{
			State:     cache.StateIdle,
			IsOffline: true,
		})
	}

	snap := s.apply(gen, cache.Snapshot[T]{State: cache.StateLoading})
	s.backgroundFetch(ctx, gen)
	return snap
}

// fetch runs the Loading state to settlement for the generation it was
// launched under.
func (s *Subscription[T]) fetch(ctx context.Context, gen uint64) cache.Snapshot[T] {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	key := s.cfg.Key
	loading := s.snapshot
	loading.State = cache.StateLoading
	s.mu.Unlock()

	s.apply(gen, loading)

	value, err := s.invokeFetcher(ctx, key)
	if err == nil {
		raw, merr := json.Marshal(value)
		if merr != nil {
			// An unserializable payload cannot be cached; still expose it.
			s.log().WithError(merr).Warn("fetched payload does not marshal; skipping write-back")
		} else {
			s.store.Write(ctx, key, raw)
		}
		if s.metrics != nil {
			s.metrics.Refresh()
		}
		return s.apply(gen, cache.Snapshot[T]{
			State:     cache.StateFresh,
			Data:      &value,
			IsOffline: s.network.IsOffline(),
			Loaded:    true,
		})
	}

	offline := s.network.IsOffline()
	if offline {
		// Offline failures degrade to the best available cached data, even
		// past expiry, rather than propagating the error visibly. The error
		// is retained alongside the recovered value.
		if entry, ok := s.store.ReadDegraded(ctx, key); ok {
			if recovered, derr := decodePayload[T](entry.Data); derr == nil {
				if s.metrics != nil {
					s.metrics.FetchError(true)
				}
				s.log().WithError(err).Info("fetch failed offline; serving degraded cached value")
				return s.apply(gen, cache.Snapshot[T]{
					State:     cache.StateStale,
					Data:      recovered,
					IsStale:   true,
					IsOffline: true,
					Loaded:    true,
					Err:       err,
				})
			}
		}
	}

	if s.metrics != nil {
		s.metrics.FetchError(false)
	}
	s.log().WithError(err).Warn("fetch failed")

	// Online failures surface the error with no silent fallback; data is
	// left at its previous (possibly nil) value.
	s.mu.Lock()
	next := s.snapshot
	s.mu.Unlock()
	next.State = cache.StateErrored
	next.Err = err
	next.IsOffline = offline
	return s.apply(gen, next)
}

// backgroundFetch launches the fetch path without blocking the caller. The
// fetch is detached from the caller's cancellation: a torn-down consumer
// must not abort the network call, only the snapshot update.
func (s *Subscription[T]) backgroundFetch(ctx context.Context, gen uint64) {
	go s.fetch(context.WithoutCancel(ctx), gen)
}

// invokeFetcher calls the fetcher, optionally coalescing through the
// singleflight group keyed by the cache key.
func (s *Subscription[T]) invokeFetcher(ctx context.Context, key string) (T, error) {
	if s.flights == nil {
		return s.fetcher(ctx)
	}
	v, err, _ := s.flights.Do(key, func() (any, error) {
		return s.fetcher(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// onNetworkChange reacts to connectivity transitions. Coming back online
// while the exposed data is stale triggers a background revalidation.
func (s *Subscription[T]) onNetworkChange(offline bool) {
	s.mu.Lock()
	if s.closed || !s.cfg.Enabled {
		s.mu.Unlock()
		return
	}
	gen := s.gen
	wasOffline := s.snapshot.IsOffline
	s.snapshot.IsOffline = offline
	stale := s.snapshot.IsStale
	next := s.snapshot
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	if wasOffline && !offline && stale {
		s.log().Debug("back online with stale data; revalidating")
		s.backgroundFetch(context.Background(), gen)
	}
}

// apply installs the next snapshot, unless the subscription was closed or
// re-pointed (key change, enable toggle) after the transition started. The
// change callback runs after the lock is released. Returns the snapshot in
// effect afterwards.
func (s *Subscription[T]) apply(gen uint64, next cache.Snapshot[T]) cache.Snapshot[T] {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		snap := s.snapshot
		s.mu.Unlock()
		return snap
	}
	s.snapshot = next
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(next)
	}
	return next
}

func (s *Subscription[T]) log() *logrus.Entry {
	logger := s.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s.mu.Lock()
	key := s.cfg.Key
	s.mu.Unlock()
	return logger.WithFields(logrus.Fields{
		"subscription_id": s.id,
		"cache_key":       key,
	})
}

// decodePayload unmarshals an opaque entry payload into the subscription's
// value type.
func decodePayload[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
