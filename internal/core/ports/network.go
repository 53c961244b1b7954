package ports

// NetworkMonitor exposes the device's connectivity as a single observable
// boolean. The cache only consumes the signal; how it is detected (platform
// events, periodic probes) is an adapter concern. No debouncing is promised.
type NetworkMonitor interface {
	// IsOffline returns the current connectivity state.
	IsOffline() bool
	// Subscribe registers fn to be called on every state change and returns
	// a function that removes the registration. fn must be fast; it runs on
	// the monitor's notification path.
	Subscribe(fn func(offline bool)) (unsubscribe func())
}
