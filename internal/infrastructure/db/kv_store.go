package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// KVStore implements ports.KeyValueStore over a single cache_entries table.
// Each row holds one key's full serialized entry; upserts keep writes
// atomic per key.
type KVStore struct {
	db *Database
}

// NewKVStore creates a Postgres-backed key-value store.
func NewKVStore(database *Database) *KVStore {
	return &KVStore{db: database}
}

var _ ports.KeyValueStore = (*KVStore)(nil)

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := s.db.DB.GetContext(ctx, &value, `SELECT value FROM cache_entries WHERE key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return []byte(value), true, nil
}

func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	// The value column is TEXT; entries are serialized JSON.
	_, err := s.db.DB.ExecContext(ctx, `
		INSERT INTO cache_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, string(value))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.DB.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (s *KVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.DB.SelectContext(ctx, &keys, `SELECT key FROM cache_entries WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate cache keys: %w", err)
	}
	return keys, nil
}
