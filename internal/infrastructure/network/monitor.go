// Package network provides NetworkMonitor adapters: a manually driven
// signal for environments that already know their connectivity (or for
// tests), and a dial-probe monitor for processes that have to find out
// themselves.
package network

import (
	"sync"

	"github.com/offlinefirst/swr-cache/internal/core/ports"
)

// ManualMonitor is a NetworkMonitor whose state is set explicitly via
// SetOffline. It mirrors a platform online/offline event source: whoever
// owns the real signal forwards it here.
type ManualMonitor struct {
	mu      sync.Mutex
	offline bool
	nextID  int
	subs    map[int]func(offline bool)
}

// NewManualMonitor creates a monitor that starts online.
func NewManualMonitor() *ManualMonitor {
	return &ManualMonitor{subs: make(map[int]func(bool))}
}

var _ ports.NetworkMonitor = (*ManualMonitor)(nil)

func (m *ManualMonitor) IsOffline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.offline
}

// SetOffline updates the state and notifies subscribers on change.
func (m *ManualMonitor) SetOffline(offline bool) {
	m.mu.Lock()
	if m.offline == offline {
		m.mu.Unlock()
		return
	}
	m.offline = offline
	fns := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(offline)
	}
}

func (m *ManualMonitor) Subscribe(fn func(offline bool)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
