package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/config"
	httpmocks "github.com/stacklok/toolhive-bundle-sync/internal/httpclient/mocks"
	netmocks "github.com/stacklok/toolhive-bundle-sync/internal/network/mocks"
)

// createTestConfig writes a config file rooted at a temporary data directory and loads it
func createTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "dataDir: " + filepath.Join(dir, "data") + "\nappVersion: 1.4.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	require.NoError(t, err)
	return cfg
}

// offlineMonitor reports the network as unreachable so nothing is fetched
func offlineMonitor(ctrl *gomock.Controller) *netmocks.MockMonitor {
	monitor := netmocks.NewMockMonitor(ctrl)
	monitor.EXPECT().Available(gomock.Any()).Return(false).AnyTimes()
	monitor.EXPECT().Metered().Return(false).AnyTimes()
	return monitor
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	_, err := baseConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")

	cfg := createTestConfig(t)
	b, err := baseConfig(WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultServerAddress, b.address)
	assert.Equal(t, defaultRequestTimeout, b.requestTimeout)
	assert.Equal(t, defaultWriteTimeout, b.writeTimeout)
	assert.False(t, b.disablePush)

	b, err = baseConfig(WithConfig(cfg), WithAddress("127.0.0.1:9090"), WithoutPush())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", b.address)
	assert.True(t, b.disablePush)
}

func TestWithAddress(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		address string
		want    string
		wantErr bool
	}{
		{name: "valid address", address: ":9999", want: ":9999"},
		{name: "valid address with host", address: "127.0.0.1:9999", want: "127.0.0.1:9999"},
		{name: "valid address with host and port", address: "localhost:9999", want: "localhost:9999"},
		{name: "invalid empty address", address: "", wantErr: true},
		{name: "invalid empty port", address: ":", wantErr: true},
		{name: "invalid missing port", address: "localhost", wantErr: true},
		{name: "invalid address with host and port", address: "localhost:999999", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := &appConfig{}
			err := WithAddress(tt.address)(cfg)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.address)
		})
	}
}

func TestComponentOverrides(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	client := httpmocks.NewMockClient(ctrl)
	monitor := offlineMonitor(ctrl)
	mw := func(next http.Handler) http.Handler { return next }

	cfg := &appConfig{}
	for _, opt := range []Option{
		WithHTTPClient(client),
		WithNetworkMonitor(monitor),
		WithMiddlewares(mw),
	} {
		require.NoError(t, opt(cfg))
	}

	assert.Equal(t, client, cfg.httpClient)
	assert.Equal(t, monitor, cfg.monitor)
	assert.Len(t, cfg.middlewares, 1)
}

func TestBuildComponents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		opts      []Option
		wantPush  bool
		wantError string
	}{
		{
			name:     "push enabled by default endpoints",
			wantPush: true,
		},
		{
			name: "push disabled",
			opts: []Option{WithoutPush()},
		},
		{
			name:      "missing config",
			wantError: "config cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			ctx := context.Background()

			opts := []Option{WithNetworkMonitor(offlineMonitor(ctrl))}
			if tt.wantError == "" {
				opts = append(opts, WithConfig(createTestConfig(t)))
			}
			opts = append(opts, tt.opts...)

			c, err := BuildComponents(ctx, opts...)
			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = c.Close(ctx) })

			require.NotNil(t, c.Database)
			require.NoError(t, c.Database.Ping())
			require.NotNil(t, c.Prefs)
			require.NotNil(t, c.Pipeline)
			require.NotNil(t, c.Coordinator)
			assert.NotNil(t, c.Imports)
			assert.NotNil(t, c.Discovery)
			assert.Equal(t, tt.wantPush, c.Push != nil)

			// The official bundle is seeded into an empty database
			state := c.Repository.State()
			assert.Equal(t, []int{bundles.DefaultUID}, state.Order)
		})
	}
}

func TestComponentsClose(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c, err := BuildComponents(ctx,
		WithConfig(createTestConfig(t)),
		WithNetworkMonitor(offlineMonitor(ctrl)),
		WithoutPush(),
	)
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	assert.Error(t, c.Database.Ping())
}

func TestNewApp(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	app, err := NewApp(ctx,
		WithConfig(createTestConfig(t)),
		WithAddress("127.0.0.1:0"),
		WithNetworkMonitor(offlineMonitor(ctrl)),
		WithoutPush(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	server := app.GetHTTPServer()
	assert.Equal(t, "127.0.0.1:0", server.Addr)
	assert.Equal(t, defaultReadTimeout, server.ReadTimeout)
	assert.Equal(t, defaultWriteTimeout, server.WriteTimeout)

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{name: "health", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "readiness pings the database", method: http.MethodGet, path: "/readiness", want: http.StatusOK},
		{name: "bundles", method: http.MethodGet, path: "/v1/bundles", want: http.StatusOK},
		{name: "push disabled", method: http.MethodGet, path: "/v1/push/state", want: http.StatusServiceUnavailable},
		{name: "no prometheus handler", method: http.MethodGet, path: "/metrics", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
