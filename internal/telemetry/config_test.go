package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ratio(v float64) *float64 { return &v }

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores the rest", config: &Config{Tracing: &TracingConfig{Enabled: true}}},
		{
			name: "prometheus only",
			config: &Config{
				Enabled: true,
				Metrics: &MetricsConfig{Enabled: true, Prometheus: true},
			},
		},
		{
			name: "tracing without endpoint",
			config: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: true},
			},
			wantErr: "tracing: endpoint is required",
		},
		{
			name: "sampling out of range",
			config: &Config{
				Enabled:  true,
				Endpoint: "localhost:4318",
				Tracing:  &TracingConfig{Enabled: true, Sampling: ratio(1.5)},
			},
			wantErr: "sampling must be greater than 0.0",
		},
		{
			name: "metrics without any reader",
			config: &Config{
				Enabled: true,
				Metrics: &MetricsConfig{Enabled: true},
			},
			wantErr: "metrics: endpoint or prometheus is required",
		},
		{
			name: "bad export interval",
			config: &Config{
				Enabled:  true,
				Endpoint: "localhost:4318",
				Metrics:  &MetricsConfig{Enabled: true, ExportInterval: "soon"},
			},
			wantErr: "exportInterval must be a positive duration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.config.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.GetServiceName())
	assert.Equal(t, "unknown", cfg.GetServiceVersion())

	var tracing *TracingConfig
	assert.InDelta(t, DefaultSampling, tracing.GetSampling(), 0)
	assert.InDelta(t, 0.25, (&TracingConfig{Sampling: ratio(0.25)}).GetSampling(), 0)

	var metrics *MetricsConfig
	assert.Equal(t, DefaultExportInterval, metrics.GetExportInterval())
	assert.Equal(t, 15*time.Second, (&MetricsConfig{ExportInterval: "15s"}).GetExportInterval())
	assert.Equal(t, DefaultExportInterval, (&MetricsConfig{ExportInterval: "-1s"}).GetExportInterval())
}

func TestConfig_Enabled(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		Enabled: true,
		Tracing: &TracingConfig{Enabled: true},
		Metrics: &MetricsConfig{Enabled: true, Prometheus: true},
	}
	assert.False(t, cfg.tracingEnabled(), "tracing needs a collector")
	assert.True(t, cfg.metricsEnabled())

	cfg.Endpoint = "localhost:4318"
	assert.True(t, cfg.tracingEnabled())

	cfg.Enabled = false
	assert.False(t, cfg.tracingEnabled())
	assert.False(t, cfg.metricsEnabled())
}
