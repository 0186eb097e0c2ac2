package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	"github.com/stacklok/toolhive-bundle-sync/internal/push/mocks"
)

type fakePrefs struct {
	mu      sync.Mutex
	bundle  prefs.Interval
	manager prefs.Interval
	mode    prefs.DeliveryMode
	cursor  string
	changes chan struct{}
}

func newFakePrefs(t *testing.T, bundle, manager string, mode prefs.DeliveryMode) *fakePrefs {
	t.Helper()
	return &fakePrefs{
		bundle:  mustInterval(t, bundle),
		manager: mustInterval(t, manager),
		mode:    mode,
		changes: make(chan struct{}, 1),
	}
}

func (p *fakePrefs) BundleCheckInterval() prefs.Interval {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bundle
}

func (p *fakePrefs) ManagerCheckInterval() prefs.Interval {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manager
}

func (p *fakePrefs) DeliveryMode() prefs.DeliveryMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *fakePrefs) LastRefreshCursor() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *fakePrefs) SetLastRefreshCursor(startedAt string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cursor = startedAt
	return nil
}

func (p *fakePrefs) Subscribe() (<-chan struct{}, func()) {
	return p.changes, func() {}
}

func (p *fakePrefs) setMode(mode prefs.DeliveryMode) {
	p.mu.Lock()
	p.mode = mode
	p.mu.Unlock()
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

// newWSServer serves handle over websocket and returns the ws:// URL
func newWSServer(t *testing.T, protocols []string, handle func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{Subprotocols: protocols}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func readType(t *testing.T, conn *websocket.Conn) gjson.Result {
	t.Helper()
	_, data, err := conn.ReadMessage()
	if !assert.NoError(t, err) {
		return gjson.Result{}
	}
	return gjson.ParseBytes(data)
}

// drain blocks until the client goes away
func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func fastBackOff() backoff.BackOff {
	return backoff.NewConstantBackOff(10 * time.Millisecond)
}

func TestReconnectBackOff(t *testing.T) {
	t.Parallel()

	b := reconnectBackOff()
	want := []time.Duration{4, 8, 16, 32, 60, 60, 60}
	for i, w := range want {
		assert.Equal(t, w*time.Second, b.NextBackOff(), "attempt %d", i+1)
	}
	b.Reset()
	assert.Equal(t, 4*time.Second, b.NextBackOff())
}

func TestCoordinator_TriggerRules(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	checks := mocks.NewMockChecks(ctrl)
	p := newFakePrefs(t, "1h", "never", prefs.DeliveryAuto)

	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c := New([]string{"ws://unused"}, p, checks, WithClock(func() time.Time { return now }))

	checks.EXPECT().BundleCheck(gomock.Any()).Times(2)

	ctx := t.Context()
	assert.True(t, c.trigger(ctx, refreshJob{StartedAt: "a", Status: "success"}))
	assert.Equal(t, "a", p.LastRefreshCursor())

	// same job again
	now = now.Add(2 * time.Minute)
	assert.False(t, c.trigger(ctx, refreshJob{StartedAt: "a", Status: "success"}))

	// still running
	assert.False(t, c.trigger(ctx, refreshJob{StartedAt: "b", Status: "running"}))

	assert.True(t, c.trigger(ctx, refreshJob{StartedAt: "b", Status: "done"}))

	// too soon after the last trigger
	now = now.Add(30 * time.Second)
	assert.False(t, c.trigger(ctx, refreshJob{StartedAt: "c"}))
	assert.Equal(t, "b", p.LastRefreshCursor())

	c.checksWG.Wait()
	require.NotNil(t, c.Status().LastTriggerAt)
}

func TestCoordinator_TriggerDisabled(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	p := newFakePrefs(t, "never", "never", prefs.DeliveryAuto)
	c := New([]string{"ws://unused"}, p, mocks.NewMockChecks(ctrl))

	assert.False(t, c.trigger(t.Context(), refreshJob{StartedAt: "a"}))
	assert.Empty(t, p.LastRefreshCursor())
}

func TestCoordinator_SessionProtocols(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		protocols []string
		subscribe string
		dataType  string
		wantPong  bool
	}{
		{name: "transport", protocols: []string{"graphql-transport-ws"}, subscribe: "subscribe", dataType: "next", wantPong: true},
		{name: "legacy", protocols: []string{"graphql-ws"}, subscribe: "start", dataType: "data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			url := newWSServer(t, tt.protocols, func(conn *websocket.Conn) {
				assert.Equal(t, "connection_init", readType(t, conn).Get("type").String())
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"connection_ack"}`))

				sub := readType(t, conn)
				assert.Equal(t, tt.subscribe, sub.Get("type").String())
				assert.Equal(t, "bundle-refresh-jobs", sub.Get("id").String())
				assert.Contains(t, sub.Get("payload.query").String(), "BundleRefreshJobs")

				if tt.wantPong {
					_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`))
					assert.Equal(t, "pong", readType(t, conn).Get("type").String())
				}
				_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ka"}`))
				_ = conn.WriteMessage(websocket.TextMessage, []byte(
					`{"id":"bundle-refresh-jobs","type":"`+tt.dataType+`","payload":{"data":{"refresh_jobs":[{"started_at":"2026-03-01T10:00:00Z","status":"SUCCESS"}]}}}`))
				drain(conn)
			})

			ctrl := gomock.NewController(t)
			checks := mocks.NewMockChecks(ctrl)
			bundleDone := make(chan struct{})
			managerDone := make(chan struct{})
			checks.EXPECT().BundleCheck(gomock.Any()).Do(func(context.Context) { close(bundleDone) })
			checks.EXPECT().ManagerCheck(gomock.Any()).Do(func(context.Context) { close(managerDone) })

			p := newFakePrefs(t, "1h", "1d", prefs.DeliveryWebsocketPreferred)
			c := New([]string{url}, p, checks, WithBackOff(fastBackOff))

			errCh := make(chan error, 1)
			go func() { errCh <- c.Start(t.Context()) }()

			<-bundleDone
			<-managerDone
			assert.Equal(t, "2026-03-01T10:00:00Z", p.LastRefreshCursor())

			status := c.Status()
			assert.True(t, status.ServiceRunning)
			assert.True(t, status.Desired.ShouldRunSocket)
			assert.True(t, status.Connected)
			assert.Equal(t, tt.protocols[0], status.Protocol)

			require.NoError(t, c.Stop())
			require.NoError(t, <-errCh)
			assert.False(t, c.Status().ServiceRunning)
		})
	}
}

func TestCoordinator_IdleTimeout(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, []string{"graphql-transport-ws"}, drain)

	ctrl := gomock.NewController(t)
	p := newFakePrefs(t, "1h", "1d", prefs.DeliveryAuto)
	c := New([]string{url}, p, mocks.NewMockChecks(ctrl),
		WithTimings(50*time.Millisecond, 10*time.Millisecond, 0, 0))

	opened, err := c.session(t.Context(), url)
	assert.True(t, opened)
	assert.ErrorIs(t, err, errIdleTimeout)
}

func TestCoordinator_RotatesEndpoints(t *testing.T) {
	t.Parallel()

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := "ws" + strings.TrimPrefix(dead.URL, "http")
	dead.Close()

	connected := make(chan struct{}, 1)
	live := newWSServer(t, []string{"graphql-transport-ws"}, func(conn *websocket.Conn) {
		select {
		case connected <- struct{}{}:
		default:
		}
		drain(conn)
	})

	ctrl := gomock.NewController(t)
	p := newFakePrefs(t, "1h", "1d", prefs.DeliveryWebsocketPreferred)
	c := New([]string{deadURL, live}, p, mocks.NewMockChecks(ctrl), WithBackOff(fastBackOff))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(t.Context()) }()

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("never connected to the second endpoint")
	}
	require.Eventually(t, func() bool { return c.Status().Endpoint == live }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, c.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_FollowsPreferencesAndForeground(t *testing.T) {
	t.Parallel()

	url := newWSServer(t, []string{"graphql-transport-ws"}, drain)

	ctrl := gomock.NewController(t)
	service := mocks.NewMockForegroundService(ctrl)
	p := newFakePrefs(t, "1h", "never", prefs.DeliveryWebsocketPreferred)

	gomock.InOrder(
		service.EXPECT().Start(true, false).Return(nil),
		service.EXPECT().Stop(),
	)

	c := New([]string{url}, p, mocks.NewMockChecks(ctrl), WithForegroundService(service), WithBackOff(fastBackOff))

	errCh := make(chan error, 1)
	go func() { errCh <- c.Start(t.Context()) }()

	require.Eventually(t, func() bool { return c.Status().Connected }, 5*time.Second, 10*time.Millisecond)

	// auto mode in the background closes the socket and releases the service
	p.setMode(prefs.DeliveryAuto)
	require.Eventually(t, func() bool {
		s := c.Status()
		return !s.Connected && !s.ServiceRunning && !s.Desired.ShouldRunSocket
	}, 5*time.Second, 10*time.Millisecond)

	// a foreground client brings the socket back without the service
	c.SetForeground(true)
	require.Eventually(t, func() bool { return c.Status().Connected }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, c.Status().ServiceRunning)

	require.NoError(t, c.Stop())
	require.NoError(t, <-errCh)
}

func TestCoordinator_StartWithoutEndpoints(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	c := New(nil, newFakePrefs(t, "1h", "1d", prefs.DeliveryAuto), mocks.NewMockChecks(ctrl))
	assert.Error(t, c.Start(t.Context()))
}
