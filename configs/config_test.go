package configs

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	if cfg.Cache.StaleTime != 5*time.Minute {
		t.Fatalf("default staleTime = %v, want 5m", cfg.Cache.StaleTime)
	}
	if cfg.Cache.CacheTime != 30*time.Minute {
		t.Fatalf("default cacheTime = %v, want 30m", cfg.Cache.CacheTime)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Fatalf("default backend = %q, want memory", cfg.Storage.Backend)
	}
	if cfg.Database.DSN == "" {
		t.Fatal("a DSN must be derived from the database settings")
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("CACHE_STALE_TIME", "90s")
	t.Setenv("CACHE_STORAGE_BACKEND", "redis")
	t.Setenv("NETWORK_PROBE_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Cache.StaleTime != 90*time.Second {
		t.Fatalf("staleTime = %v, want 90s", cfg.Cache.StaleTime)
	}
	if cfg.Storage.Backend != BackendRedis {
		t.Fatalf("backend = %q, want redis", cfg.Storage.Backend)
	}
	if !cfg.Network.ProbeEnabled {
		t.Fatal("probe must be enabled")
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("CACHE_STORAGE_BACKEND", "floppy")

	if _, err := Load(); err == nil {
		t.Fatal("unknown backend must be rejected")
	}
}
