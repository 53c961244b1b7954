package cache

import (
	"encoding/json"
	"time"
)

// SchemaVersion tags every persisted entry with the on-disk format version of
// this implementation. Entries written by an older (or newer) build are
// treated as absent and evicted on read rather than deserialized.
const SchemaVersion = "2.0"

// Default thresholds applied when a subscription does not configure its own.
const (
	DefaultStaleTime = 5 * time.Minute
	DefaultCacheTime = 30 * time.Minute
)

// Entry is the unit of storage: one opaque payload plus the metadata needed
// to classify it. Entries are created whole and replaced whole; there are no
// partial field updates.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // ms since epoch at fetch time
	Version   string          `json:"version"`
}

// NewEntry builds an entry stamped with now and the current schema version.
func NewEntry(data json.RawMessage, now time.Time) Entry {
	return Entry{
		Data:      data,
		Timestamp: now.UnixMilli(),
		Version:   SchemaVersion,
	}
}

// Age returns how long ago the entry was fetched.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(e.Timestamp))
}

// Stats aggregates the persisted footprint of the cache namespace.
type Stats struct {
	Count          int   `json:"count"`
	TotalSizeBytes int64 `json:"total_size_bytes"`
}
