package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/offlinefirst/swr-cache/internal/application/services"
	"github.com/offlinefirst/swr-cache/internal/core/domain/cache"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/memory"
)

// fakeClock is a settable wall clock shared between store and tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t0 time.Time) *fakeClock { return &fakeClock{t: t0} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// kvMock lets tests inject storage failures; unset functions fall through
// to a nested in-memory store.
type kvMock struct {
	inner    *memory.Store
	getFn    func(ctx context.Context, key string) ([]byte, bool, error)
	setFn    func(ctx context.Context, key string, value []byte) error
	deleteFn func(ctx context.Context, key string) error
	keysFn   func(ctx context.Context, prefix string) ([]string, error)
}

func newKVMock() *kvMock { return &kvMock{inner: memory.NewStore()} }

func (m *kvMock) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return m.inner.Get(ctx, key)
}

func (m *kvMock) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return m.inner.Set(ctx, key, value)
}

func (m *kvMock) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return m.inner.Delete(ctx, key)
}

func (m *kvMock) Keys(ctx context.Context, prefix string) ([]string, error) {
	if m.keysFn != nil {
		return m.keysFn(ctx, prefix)
	}
	return m.inner.Keys(ctx, prefix)
}

var testEpoch = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestEntryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(testEpoch)
	store := services.NewEntryStore(memory.NewStore(), nil, services.WithStoreClock(clock.Now))

	payload := json.RawMessage(`{"name":"Ann"}`)
	store.Write(ctx, "profile:1", payload)

	entry, ok := store.Read(ctx, "profile:1", 30*time.Minute)
	if !ok {
		t.Fatal("expected entry after write")
	}
	if string(entry.Data) != string(payload) {
		t.Fatalf("data mismatch: %s", entry.Data)
	}
	if cache.IsStale(*entry, 5*time.Minute, clock.Now()) {
		t.Fatal("freshly written entry must not be stale")
	}
}

func TestEntryStoreExpiryDeletesRecord(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(testEpoch)
	mem := memory.NewStore()
	store := services.NewEntryStore(mem, nil, services.WithStoreClock(clock.Now))

	cacheTime := 5 * time.Second
	store.Write(ctx, "profile:1", json.RawMessage(`{"name":"Ann"}`))

	clock.Advance(cacheTime + time.Millisecond)

	if _, ok := store.Read(ctx, "profile:1", cacheTime); ok {
		t.Fatal("expired entry must read as absent")
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Count != 0 {
		t.Fatalf("expired entry must be deleted from storage, count = %d", stats.Count)
	}
}

func TestEntryStoreVersionFencing(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	store := services.NewEntryStore(mem, nil)

	// A record persisted by an older build.
	old := `{"data":{"name":"Ann"},"timestamp":` + "9999999999999" + `,"version":"1.0"}`
	if err := mem.Set(ctx, services.Namespace+":profile:1", []byte(old)); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if _, ok := store.Read(ctx, "profile:1", 30*time.Minute); ok {
		t.Fatal("version-mismatched entry must read as absent")
	}
	if mem.Len() != 0 {
		t.Fatal("version-mismatched entry must be deleted on read")
	}
}

func TestEntryStoreMalformedRecordIsEvicted(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	store := services.NewEntryStore(mem, nil)

	if err := mem.Set(ctx, services.Namespace+":broken", []byte("{not json")); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if _, ok := store.Read(ctx, "broken", 30*time.Minute); ok {
		t.Fatal("malformed entry must read as absent")
	}
	if mem.Len() != 0 {
		t.Fatal("malformed entry must be deleted on read")
	}
}

func TestEntryStoreReadErrorFailsSoft(t *testing.T) {
	ctx := context.Background()
	mock := newKVMock()
	deleted := false
	mock.getFn = func(ctx context.Context, key string) ([]byte, bool, error) {
		return nil, false, errors.New("quota exceeded")
	}
	mock.deleteFn = func(ctx context.Context, key string) error {
		deleted = true
		return nil
	}
	store := services.NewEntryStore(mock, nil)

	if _, ok := store.Read(ctx, "k", 30*time.Minute); ok {
		t.Fatal("storage read error must resolve to absent")
	}
	if deleted {
		t.Fatal("a failing read must not delete anything")
	}
}

func TestEntryStoreWriteErrorIsSilentNoOp(t *testing.T) {
	ctx := context.Background()
	mock := newKVMock()
	mock.setFn = func(ctx context.Context, key string, value []byte) error {
		return errors.New("quota exceeded")
	}
	store := services.NewEntryStore(mock, nil)

	// Must not panic or propagate.
	store.Write(ctx, "k", json.RawMessage(`{"x":1}`))

	if mock.inner.Len() != 0 {
		t.Fatal("nothing must be persisted when the medium rejects the write")
	}
}

func TestEntryStoreReadDegradedIgnoresExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(testEpoch)
	store := services.NewEntryStore(memory.NewStore(), nil, services.WithStoreClock(clock.Now))

	store.Write(ctx, "profile:1", json.RawMessage(`{"name":"Ann"}`))
	clock.Advance(time.Hour)

	entry, ok := store.ReadDegraded(ctx, "profile:1")
	if !ok {
		t.Fatal("degraded read must return even an expired entry")
	}
	if string(entry.Data) != `{"name":"Ann"}` {
		t.Fatalf("unexpected degraded payload: %s", entry.Data)
	}
}

func TestEntryStoreStatsCountsOnlyNamespace(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	store := services.NewEntryStore(mem, nil)

	store.Write(ctx, "a", json.RawMessage(`1`))
	store.Write(ctx, "b", json.RawMessage(`{"name":"Bea"}`))

	// Unrelated data sharing the medium must not be counted.
	if err := mem.Set(ctx, "other:key", []byte("xxxxxxxx")); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Count != 2 {
		t.Fatalf("count = %d, want 2", stats.Count)
	}
	if stats.TotalSizeBytes <= 0 {
		t.Fatal("total size must be positive")
	}
}

func TestEntryStoreDeleteAllClearsNamespaceOnly(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	store := services.NewEntryStore(mem, nil)

	store.Write(ctx, "a", json.RawMessage(`1`))
	store.Write(ctx, "b", json.RawMessage(`2`))
	if err := mem.Set(ctx, "other:key", []byte("keep me")); err != nil {
		t.Fatalf("seed error: %v", err)
	}

	if err := store.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all error: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Count != 0 {
		t.Fatalf("count after clear = %d, want 0", stats.Count)
	}
	if mem.Len() != 1 {
		t.Fatal("unrelated keys must survive a namespace clear")
	}
}
