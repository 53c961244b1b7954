package cache

import "time"

// IsExpired reports whether the entry's age exceeds cacheTime. Expiry is the
// hard threshold: an expired entry must not be served and is deleted on read.
func IsExpired(e Entry, cacheTime time.Duration, now time.Time) bool {
	return e.Age(now) > cacheTime
}

// IsStale reports whether the entry's age exceeds staleTime. Stale entries
// are still served, but flagged so callers can refresh opportunistically.
//
// The expected configuration is staleTime < cacheTime. The policy does not
// enforce that ordering: with staleTime >= cacheTime an entry becomes
// refresh-eligible at the same moment it becomes evictable on read.
func IsStale(e Entry, staleTime time.Duration, now time.Time) bool {
	return e.Age(now) > staleTime
}
