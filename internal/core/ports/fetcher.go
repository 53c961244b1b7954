package ports

import "context"

// Fetcher is the caller-supplied function that produces the authoritative
// value for one subscription. It takes no arguments beyond the context; any
// request parameters are captured by the closure. The cache treats it as
// opaque and re-invokes it only on its own revalidation triggers, never on a
// timer. Timeouts are the Fetcher's own responsibility.
type Fetcher[T any] func(ctx context.Context) (T, error)
