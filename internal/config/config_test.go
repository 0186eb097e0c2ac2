package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		yaml    string
		check   func(t *testing.T, cfg *Config)
		wantErr string
	}{
		{
			name: "minimal config gets defaults",
			yaml: `dataDir: /var/lib/bundles`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "/var/lib/bundles", cfg.DataDir)
				assert.Equal(t, "/var/lib/bundles/bundles.db", cfg.Database.Path)
				assert.Equal(t, DefaultPatchesAPI, cfg.API.PatchesURL)
				assert.Equal(t, DefaultPushEndpoints, cfg.Push.Endpoints)
				assert.Equal(t, DefaultServerAddress, cfg.Server.Address)
				assert.Equal(t, 90*time.Second, cfg.Push.GetIdleTimeout())
				assert.Equal(t, 15*time.Second, cfg.Push.GetHealthCheckInterval())
				assert.Equal(t, time.Minute, cfg.Push.GetMinTriggerInterval())
				assert.Equal(t, 10*time.Second, cfg.Push.GetNetworkRetryDelay())
			},
		},
		{
			name: "explicit values are kept",
			yaml: `dataDir: /data
database:
  path: /db/records.db
api:
  patchesUrl: http://localhost:9000
  timeout: 5s
push:
  endpoints: ["ws://localhost:9001/graphql"]
  idleTimeout: 30s
network:
  metered: true
  probeAddress: localhost:9000
server:
  address: 127.0.0.1:9090`,
			check: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "/db/records.db", cfg.Database.Path)
				assert.Equal(t, "http://localhost:9000", cfg.API.PatchesURL)
				assert.Equal(t, 5*time.Second, cfg.API.GetTimeout())
				assert.Equal(t, []string{"ws://localhost:9001/graphql"}, cfg.Push.Endpoints)
				assert.Equal(t, 30*time.Second, cfg.Push.GetIdleTimeout())
				assert.True(t, cfg.Network.Metered)
				assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)
			},
		},
		{
			name:    "push endpoint must be websocket",
			yaml:    `push: {endpoints: ["https://example.com/graphql"]}`,
			wantErr: "scheme must be ws or wss",
		},
		{
			name:    "api url must be http",
			yaml:    `api: {patchesUrl: "ftp://example.com"}`,
			wantErr: "api.patchesUrl",
		},
		{
			name:    "durations must parse",
			yaml:    `push: {idleTimeout: "soon"}`,
			wantErr: "push.idleTimeout",
		},
		{
			name:    "invalid yaml",
			yaml:    "dataDir: [unterminated",
			wantErr: "failed to parse YAML config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			path := writeConfig(t, tt.yaml)

			cfg, err := LoadConfig(WithConfigPath(path))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadConfig_NoPathUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, filepath.Join(cfg.DataDir, "bundles"), cfg.BundlesDir())
	assert.Equal(t, filepath.Join(cfg.DataDir, "prefs.json"), cfg.PrefsPath())
	assert.Equal(t, DefaultDiscoveryEndpoints, cfg.API.DiscoveryEndpoints)
}

func TestWithConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("empty path", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(""))
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfig(WithConfigPath(filepath.Join(t.TempDir(), "missing.yaml")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to evaluate symlinks")
	})
}

func TestConfig_DiscoveryHosts(t *testing.T) {
	t.Parallel()

	cfg := &Config{API: &APIConfig{DiscoveryEndpoints: []string{
		"https://Bundles.example.com/graphql",
		"https://bundles.example.com/v2/graphql",
		"https://dev.example.com/graphql",
		"://bad",
	}}}
	assert.Equal(t, []string{"bundles.example.com", "dev.example.com"}, cfg.DiscoveryHosts())
}
