package network

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

func TestManualMonitorNotifiesOnChangeOnly(t *testing.T) {
	monitor := NewManualMonitor()
	if monitor.IsOffline() {
		t.Fatal("monitor must start online")
	}

	var (
		mu     sync.Mutex
		events []bool
	)
	unsubscribe := monitor.Subscribe(func(offline bool) {
		mu.Lock()
		events = append(events, offline)
		mu.Unlock()
	})

	monitor.SetOffline(true)
	monitor.SetOffline(true) // no change, no event
	monitor.SetOffline(false)

	mu.Lock()
	got := append([]bool(nil), events...)
	mu.Unlock()
	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Fatalf("events = %v, want [true false]", got)
	}

	unsubscribe()
	monitor.SetOffline(true)

	mu.Lock()
	n := len(events)
	mu.Unlock()
	if n != 2 {
		t.Fatal("unsubscribed callback must not fire")
	}
}

func TestProbeMonitorFlipsSignal(t *testing.T) {
	probe := NewProbeMonitor("example.invalid:443", time.Hour, time.Millisecond, nil)

	var (
		mu   sync.Mutex
		fail bool
	)
	probe.dial = func(network, address string, timeout time.Duration) (net.Conn, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return nil, errors.New("no route to host")
		}
		c, s := net.Pipe()
		go s.Close()
		return c, nil
	}

	probe.probe()
	if probe.IsOffline() {
		t.Fatal("successful dial must report online")
	}

	mu.Lock()
	fail = true
	mu.Unlock()
	probe.probe()
	if !probe.IsOffline() {
		t.Fatal("failed dial must report offline")
	}

	mu.Lock()
	fail = false
	mu.Unlock()
	probe.probe()
	if probe.IsOffline() {
		t.Fatal("recovery must report online again")
	}
}
