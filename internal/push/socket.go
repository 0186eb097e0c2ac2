package push

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

var errIdleTimeout = errors.New("connection idle timeout")

// runSocket connects to the endpoints in turn until ctx is cancelled
func (c *Coordinator) runSocket(ctx context.Context) {
	bo := c.newBackOff()
	index := 0
	for ctx.Err() == nil {
		if c.monitor != nil && !c.monitor.Available(ctx) {
			slog.Debug("Network unavailable, delaying push connection", "retry_in", c.networkRetry)
			if !wait(ctx, c.networkRetry) {
				return
			}
			continue
		}

		endpoint := c.endpoints[index%len(c.endpoints)]
		opened, err := c.session(ctx, endpoint)
		if ctx.Err() != nil {
			return
		}
		if opened {
			bo.Reset()
		}
		if err != nil {
			slog.Warn("Push connection closed", "endpoint", endpoint, "error", err)
		}
		c.metrics.RecordReconnect(ctx, endpoint)

		index = (index + 1) % len(c.endpoints)
		delay := bo.NextBackOff()
		slog.Debug("Reconnecting push connection", "endpoint", c.endpoints[index], "delay", delay)
		if !wait(ctx, delay) {
			return
		}
	}
}

// session runs one connection until it closes. opened reports whether the
// handshake succeeded.
func (c *Coordinator) session(ctx context.Context, endpoint string) (opened bool, err error) {
	conn, _, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to dial %s: %w", endpoint, err)
	}
	defer func() { _ = conn.Close() }()

	protocol := protocolFromHeader(conn.Subprotocol())
	slog.Info("Push connection opened", "endpoint", endpoint, "protocol", protocol.String())
	c.setConnected(true, endpoint, protocol)
	defer c.setConnected(false, "", ProtocolLegacy)

	var lastMessage atomic.Int64
	lastMessage.Store(c.now().UnixNano())

	if err := conn.WriteMessage(websocket.TextMessage, connectionInit()); err != nil {
		return true, fmt.Errorf("failed to send connection_init: %w", err)
	}

	closed := make(chan struct{})
	defer close(closed)
	var idle atomic.Bool
	go func() {
		ticker := time.NewTicker(c.healthInterval)
		defer ticker.Stop()
		for {
			select {
			case <-closed:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			case <-ticker.C:
				silent := c.now().Sub(time.Unix(0, lastMessage.Load()))
				if silent >= c.idleTimeout {
					slog.Warn("Push connection idle, reconnecting", "endpoint", endpoint, "idle", silent)
					idle.Store(true)
					_ = conn.Close()
					return
				}
			}
		}
	}()

	subscribed := false
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if idle.Load() {
				return true, errIdleTimeout
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, err
		}
		lastMessage.Store(c.now().UnixNano())
		if err := c.handleFrame(ctx, conn, protocol, data, &subscribed); err != nil {
			return true, err
		}
	}
}

// handleFrame reacts to one server message. Only the read goroutine writes to conn.
func (c *Coordinator) handleFrame(
	ctx context.Context, conn *websocket.Conn, protocol Protocol, data []byte, subscribed *bool,
) error {
	switch kind := gjson.GetBytes(data, "type").String(); kind {
	case "connection_ack":
		if *subscribed {
			return nil
		}
		if err := conn.WriteMessage(websocket.TextMessage, subscribe(protocol)); err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}
		*subscribed = true
	case "ping":
		if protocol == ProtocolTransport {
			if err := conn.WriteMessage(websocket.TextMessage, pong()); err != nil {
				return fmt.Errorf("failed to answer ping: %w", err)
			}
		}
	case "ka", "pong":
	case "data", "next":
		if job, ok := parseRefreshJob(data); ok {
			c.trigger(ctx, job)
		}
	case "error", "connection_error":
		slog.Warn("Push protocol error", "type", kind, "payload", gjson.GetBytes(data, "payload").Raw)
	default:
		slog.Debug("Ignoring push frame", "type", kind)
	}
	return nil
}

func (c *Coordinator) setConnected(connected bool, endpoint string, protocol Protocol) {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	c.connected, c.endpoint, c.protocol = connected, endpoint, protocol
}

// trigger launches the enabled checks for a completed refresh job, at most once
// per job and never more often than the minimum trigger interval
func (c *Coordinator) trigger(ctx context.Context, job refreshJob) bool {
	outcome := c.decide(ctx, job)
	c.metrics.RecordTrigger(ctx, outcome)
	slog.Debug("Push refresh job", "started_at", job.StartedAt, "status", job.Status, "outcome", outcome)
	return outcome == outcomeTriggered
}

func (c *Coordinator) decide(ctx context.Context, job refreshJob) string {
	if !shouldTrigger(job.Status) {
		return outcomeStatus
	}

	c.triggerMu.Lock()
	defer c.triggerMu.Unlock()

	if job.StartedAt == c.prefs.LastRefreshCursor() {
		return outcomeDuplicate
	}
	now := c.now()
	if !c.lastTriggerAt.IsZero() && now.Sub(c.lastTriggerAt) < c.minTrigger {
		return outcomeThrottled
	}
	if !c.launchChecks(ctx) {
		return outcomeDisabled
	}

	c.lastTriggerAt = now
	if err := c.prefs.SetLastRefreshCursor(job.StartedAt); err != nil {
		slog.Warn("Failed to persist refresh cursor", "error", err)
	}
	slog.Info("Push refresh job completed, checking for updates", "started_at", job.StartedAt)
	return outcomeTriggered
}

// launchChecks starts the checks whose interval is not never. Called with
// triggerMu held.
func (c *Coordinator) launchChecks(ctx context.Context) bool {
	if c.checksCtx != nil {
		ctx = c.checksCtx
	}
	launched := false
	if !c.prefs.BundleCheckInterval().IsNever() {
		c.checksWG.Add(1)
		go func() {
			defer c.checksWG.Done()
			c.checks.BundleCheck(ctx)
		}()
		launched = true
	}
	if !c.prefs.ManagerCheckInterval().IsNever() {
		c.checksWG.Add(1)
		go func() {
			defer c.checksWG.Done()
			c.checks.ManagerCheck(ctx)
		}()
		launched = true
	}
	return launched
}
