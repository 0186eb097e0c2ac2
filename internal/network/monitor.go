// Package network reports whether the uplink may be used for bundle traffic
package network

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"
)

//go:generate mockgen -destination=mocks/mock_monitor.go -package=mocks -source=monitor.go Monitor

// Monitor reports the state of the network
type Monitor interface {
	// Available reports whether the network is reachable
	Available(ctx context.Context) bool
	// Metered reports whether traffic on the current network is metered
	Metered() bool
}

// ProbeMonitor decides availability by dialing a TCP address
type ProbeMonitor struct {
	address string
	timeout time.Duration
	metered atomic.Bool
	dial    func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewProbeMonitor creates a monitor. An empty address disables probing and the
// network is always reported available.
func NewProbeMonitor(address string, timeout time.Duration, metered bool) *ProbeMonitor {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	m := &ProbeMonitor{
		address: address,
		timeout: timeout,
		dial:    (&net.Dialer{}).DialContext,
	}
	m.metered.Store(metered)
	return m
}

// Available implements Monitor
func (m *ProbeMonitor) Available(ctx context.Context) bool {
	if m.address == "" {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	conn, err := m.dial(ctx, "tcp", m.address)
	if err != nil {
		slog.Debug("Network probe failed", "address", m.address, "error", err)
		return false
	}
	_ = conn.Close()
	return true
}

// Metered implements Monitor
func (m *ProbeMonitor) Metered() bool {
	return m.metered.Load()
}

// SetMetered changes the metered flag at runtime
func (m *ProbeMonitor) SetMetered(metered bool) {
	m.metered.Store(metered)
}

// Usable reports whether a pass may use the network. allowMetered lifts the
// metered restriction; availability is always required.
func Usable(ctx context.Context, m Monitor, allowMetered bool) bool {
	if m == nil {
		return true
	}
	if !m.Available(ctx) {
		return false
	}
	return allowMetered || !m.Metered()
}
