// Package telemetry provides OpenTelemetry instrumentation for the bundle sync service.
//
// Traces and metrics are pushed over OTLP/HTTP when an endpoint is configured.
// Metrics can also be pulled from /metrics through a Prometheus reader, which
// needs no collector and suits a service running on a workstation.
package telemetry

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "thv-bundle-sync"

	// DefaultSampling is the default trace sampling rate. Update passes are rare,
	// so every one of them is kept.
	DefaultSampling = 1.0

	// DefaultExportInterval is how often metrics are pushed to the collector
	DefaultExportInterval = 60 * time.Second
)

// Config represents the root telemetry configuration
type Config struct {
	// Enabled controls whether telemetry is enabled globally
	Enabled bool `yaml:"enabled"`

	// ServiceName defaults to "thv-bundle-sync"
	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the application version
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP/HTTP collector ("host:port"). Empty disables the push
	// exporters.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure allows HTTP connections to the collector
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are sent with every export request, e.g. collector credentials
	Headers map[string]string `yaml:"headers,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig defines tracing-specific configuration
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept, in (0, 1]
	Sampling *float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig defines metrics-specific configuration
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`

	// Prometheus serves the metrics at /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`

	// ExportInterval is the OTLP push period (e.g. "30s")
	ExportInterval string `yaml:"exportInterval,omitempty"`
}

// GetServiceName returns the service name, using default if not specified
func (c *Config) GetServiceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

// GetServiceVersion returns the service version, using "unknown" if not specified
func (c *Config) GetServiceVersion() string {
	if c.ServiceVersion == "" {
		return "unknown"
	}
	return c.ServiceVersion
}

// tracingEnabled reports whether spans are recorded and exported
func (c *Config) tracingEnabled() bool {
	return c.Enabled && c.Tracing != nil && c.Tracing.Enabled && c.Endpoint != ""
}

// metricsEnabled reports whether at least one metrics reader is configured
func (c *Config) metricsEnabled() bool {
	return c.Enabled && c.Metrics != nil && c.Metrics.Enabled && (c.Endpoint != "" || c.Metrics.Prometheus)
}

// GetSampling returns the sampling ratio, or DefaultSampling when unset
func (c *TracingConfig) GetSampling() float64 {
	if c == nil || c.Sampling == nil {
		return DefaultSampling
	}
	return *c.Sampling
}

// GetExportInterval returns the push period, or DefaultExportInterval when unset
func (c *MetricsConfig) GetExportInterval() time.Duration {
	if c == nil || c.ExportInterval == "" {
		return DefaultExportInterval
	}
	d, err := time.ParseDuration(c.ExportInterval)
	if err != nil || d <= 0 {
		return DefaultExportInterval
	}
	return d
}

// Validate validates the telemetry configuration. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if t := c.Tracing; t != nil && t.Enabled {
		if c.Endpoint == "" {
			errs = append(errs, errors.New("tracing: endpoint is required"))
		}
		if t.Sampling != nil && (*t.Sampling <= 0 || *t.Sampling > 1.0) {
			errs = append(errs, fmt.Errorf("tracing: sampling must be greater than 0.0 and at most 1.0, got %f", *t.Sampling))
		}
	}
	if m := c.Metrics; m != nil && m.Enabled {
		if c.Endpoint == "" && !m.Prometheus {
			errs = append(errs, errors.New("metrics: endpoint or prometheus is required"))
		}
		if m.ExportInterval != "" {
			if d, err := time.ParseDuration(m.ExportInterval); err != nil || d <= 0 {
				errs = append(errs, fmt.Errorf("metrics: exportInterval must be a positive duration, got %q", m.ExportInterval))
			}
		}
	}
	return errors.Join(errs...)
}
