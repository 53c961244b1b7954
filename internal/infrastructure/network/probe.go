package network

import (
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// ProbeMonitor derives the offline signal by periodically dialing a TCP
// address. It embeds a ManualMonitor so subscribers see the same interface
// as the manually driven variant.
type ProbeMonitor struct {
	*ManualMonitor

	address  string
	interval time.Duration
	timeout  time.Duration
	logger   *logrus.Logger
	dial     func(network, address string, timeout time.Duration) (net.Conn, error)
	stop     chan struct{}
	done     chan struct{}
}

// NewProbeMonitor creates a monitor probing address every interval. Call
// Start to begin probing and Stop to shut down.
func NewProbeMonitor(address string, interval, timeout time.Duration, logger *logrus.Logger) *ProbeMonitor {
	return &ProbeMonitor{
		ManualMonitor: NewManualMonitor(),
		address:       address,
		interval:      interval,
		timeout:       timeout,
		logger:        logger,
		dial:          net.DialTimeout,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start probes once immediately, then on every interval tick until Stop.
func (p *ProbeMonitor) Start() {
	go func() {
		defer close(p.done)

		p.probe()
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.probe()
			case <-p.stop:
				return
			}
		}
	}()
}

// Stop terminates probing and waits for the probe loop to exit.
func (p *ProbeMonitor) Stop() {
	close(p.stop)
	<-p.done
}

func (p *ProbeMonitor) probe() {
	conn, err := p.dial("tcp", p.address, p.timeout)
	if err != nil {
		if !p.IsOffline() && p.logger != nil {
			p.logger.WithError(err).WithField("probe_address", p.address).Warn("connectivity probe failed; going offline")
		}
		p.SetOffline(true)
		return
	}
	_ = conn.Close()
	if p.IsOffline() && p.logger != nil {
		p.logger.WithField("probe_address", p.address).Info("connectivity probe succeeded; back online")
	}
	p.SetOffline(false)
}
