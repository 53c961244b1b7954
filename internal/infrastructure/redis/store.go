package redis

import (
	"context"

	"github.com/go-redis/redis/v8"

	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// Store implements ports.KeyValueStore over a Redis client. Entries carry
// no Redis TTL: lifetime is decided by the cache's own expiry-on-read
// policy, so the medium behaves like plain durable key-value storage.
type Store struct {
	r redis.Cmdable
}

// NewStore creates a Redis-backed key-value store.
func NewStore(r redis.Cmdable) *Store {
	return &Store{r: r}
}

var _ ports.KeyValueStore = (*Store)(nil)

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.r.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.r.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.r.Del(ctx, key).Err()
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.r.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
