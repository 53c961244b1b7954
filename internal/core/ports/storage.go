package ports

import "context"

// KeyValueStore defines the persistent storage medium backing the cache:
// a string-keyed get/set/remove/enumerate surface with localStorage-like
// semantics. Implementations should degrade gracefully (returning an error
// without crashing callers) so the cache can fall back to treating entries
// as absent. Reads and writes are atomic at the level of one key's full
// value; last-write-wins races between writers are tolerated, not
// serialized.
type KeyValueStore interface {
	// Get returns the raw bytes for key. ok=false if not found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for key, overwriting any prior value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes the key; absence is not an error.
	Delete(ctx context.Context, key string) error
	// Keys enumerates every stored key beginning with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
