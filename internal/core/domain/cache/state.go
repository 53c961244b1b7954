package cache

// State is the explicit lifecycle of one subscription. Transitions are
// serialized per subscription; see services.Subscription.
type State int

const (
	// StateIdle means no fetch has been attempted and no value is exposed.
	// A subscription that activates offline with an empty cache stays here.
	StateIdle State = iota
	// StateLoading means a fetch is in flight. Any previously cached value
	// remains exposed while loading.
	StateLoading
	// StateFresh means the exposed value came from a successful fetch or a
	// cache read inside the staleness window.
	StateFresh
	// StateStale means the exposed value is past its staleness threshold,
	// or was recovered as a degraded offline fallback.
	StateStale
	// StateErrored means the last fetch failed with no usable fallback; any
	// previously exposed value is left in place alongside the error.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Snapshot is what a subscription exposes to its consumer at any moment.
// The three flags are orthogonal: Data and Err may both be set at once
// (the offline degraded-fallback case), so consumers must not treat
// "has error" and "has data" as mutually exclusive.
type Snapshot[T any] struct {
	State     State
	Data      *T
	IsStale   bool
	IsOffline bool
	Loaded    bool
	Err       error
}
