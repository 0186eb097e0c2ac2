package app

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	coordmocks "github.com/stacklok/toolhive-bundle-sync/internal/sync/coordinator/mocks"
)

// createTestApp builds a real app on a free port with the check coordinator mocked
func createTestApp(t *testing.T, ctrl *gomock.Controller) (*App, chan struct{}) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	app, err := NewApp(context.Background(),
		WithConfig(createTestConfig(t)),
		WithAddress(addr),
		WithNetworkMonitor(offlineMonitor(ctrl)),
		WithoutPush(),
	)
	require.NoError(t, err)

	started := make(chan struct{})
	coord := coordmocks.NewMockCoordinator(ctrl)
	coord.EXPECT().Start(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	})
	coord.EXPECT().Stop().Return(nil).AnyTimes()
	app.components.Coordinator = coord

	return app, started
}

func waitForServer(t *testing.T, addr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)
}

func TestApp_StartAndStop(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, started := createTestApp(t, ctrl)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	waitForServer(t, app.GetHTTPServer().Addr)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("check coordinator was not started")
	}

	resp, err := http.Get("http://" + app.GetHTTPServer().Addr + "/v1/bundles")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case startErr := <-errChan:
		require.NoError(t, startErr)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}

	// Storage is released on shutdown
	assert.Error(t, app.Components().Database.Ping())
}

func TestApp_StopIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, started := createTestApp(t, ctrl)

	go func() { _ = app.Start() }()
	waitForServer(t, app.GetHTTPServer().Addr)
	<-started

	require.NoError(t, app.Stop(time.Second))
	require.NoError(t, app.Stop(time.Second))
}

func TestApp_StopWithNilCancelFunc(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, err := NewApp(context.Background(),
		WithConfig(createTestConfig(t)),
		WithNetworkMonitor(offlineMonitor(ctrl)),
		WithoutPush(),
	)
	require.NoError(t, err)
	app.cancelFunc()
	app.cancelFunc = nil

	assert.NoError(t, app.Stop(time.Second))
}

func TestApp_Accessors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := createTestConfig(t)
	app, err := NewApp(context.Background(),
		WithConfig(cfg),
		WithNetworkMonitor(offlineMonitor(ctrl)),
		WithoutPush(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	assert.Same(t, cfg, app.GetConfig())
	assert.Equal(t, cfg.Server.Address, app.GetHTTPServer().Addr)
	assert.NotNil(t, app.Components().Repository)
}

func TestApp_StartError_InvalidAddress(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app, started := createTestApp(t, ctrl)
	app.httpServer.Addr = "invalid:address:format"

	err := app.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP server failed")

	// Background workers were already launched and stop with the app
	<-started
	_ = app.Stop(time.Second)
}
