package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeMonitor_Available(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = listener.Close() }()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	up := NewProbeMonitor(listener.Addr().String(), time.Second, false)
	assert.True(t, up.Available(context.Background()))

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := closed.Addr().String()
	require.NoError(t, closed.Close())
	down := NewProbeMonitor(addr, 200*time.Millisecond, false)
	assert.False(t, down.Available(context.Background()))

	assert.True(t, NewProbeMonitor("", 0, false).Available(context.Background()))
}

func TestUsable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		metered      bool
		allowMetered bool
		want         bool
	}{
		{name: "unmetered", metered: false, allowMetered: false, want: true},
		{name: "metered blocked", metered: true, allowMetered: false, want: false},
		{name: "metered allowed", metered: true, allowMetered: true, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewProbeMonitor("", 0, tt.metered)
			assert.Equal(t, tt.want, Usable(context.Background(), m, tt.allowMetered))
		})
	}
	assert.True(t, Usable(context.Background(), nil, false))
}
