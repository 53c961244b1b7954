package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/offlinefirst/swr-cache/internal/application/services"
	"github.com/offlinefirst/swr-cache/internal/core/domain/cache"
	"github.com/offlinefirst/swr-cache/internal/core/ports"
	"github.com/offlinefirst/swr-cache/internal/infrastructure/memory"
)

type checkerStub struct {
	name string
	err  error
}

func (c *checkerStub) Name() string                    { return c.name }
func (c *checkerStub) Check(ctx context.Context) error { return c.err }

func newTestServer(t *testing.T, checkers ...ports.HealthChecker) (*Server, *services.EntryStore) {
	t.Helper()
	store := services.NewEntryStore(memory.NewStore(), nil)
	maintenance := services.NewMaintenanceService(store, nil, nil)
	cfg := &ServerConfig{Host: "127.0.0.1", Port: "0", ReadTimeout: time.Second, WriteTimeout: time.Second}
	deps := ServerDeps{Maintenance: maintenance, HealthCheckers: checkers, Backend: "memory"}
	return NewServer(cfg, nil, deps), store
}

func TestCacheStatsEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	store.Write(context.Background(), "a", json.RawMessage(`{"name":"Ann"}`))

	req := httptest.NewRequest(http.MethodGet, "/cache/stats", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var stats cache.Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if stats.Count != 1 || stats.TotalSizeBytes <= 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCacheClearEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	store.Write(context.Background(), "a", json.RawMessage(`1`))
	store.Write(context.Background(), "b", json.RawMessage(`2`))

	req := httptest.NewRequest(http.MethodDelete, "/cache", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Count != 0 {
		t.Fatalf("cache not cleared: %+v", stats)
	}
}

func TestHealthEndpointDegradesWithFailingChecker(t *testing.T) {
	server, _ := newTestServer(t,
		&checkerStub{name: "redis"},
		&checkerStub{name: "database", err: errors.New("down")},
	)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status       string            `json:"status"`
		Backend      string            `json:"storage_backend"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if body.Status != "degraded" {
		t.Fatalf("status = %q", body.Status)
	}
	if body.Backend != "memory" {
		t.Fatalf("storage_backend = %q", body.Backend)
	}
	if body.Dependencies["redis"] != "healthy" || body.Dependencies["database"] != "unhealthy" {
		t.Fatalf("dependencies = %v", body.Dependencies)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Fatal("metrics body must not be empty")
	}
}
