// Package config provides configuration loading and management for the bundle sync service.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

const (
	// DefaultPatchesAPI is the base URL of the ReVanced patches API
	DefaultPatchesAPI = "https://api.revanced.app"

	// DefaultGitHubAPI is the base URL of the GitHub REST API
	DefaultGitHubAPI = "https://api.github.com"

	// DefaultManagerRepository is the repository whose releases drive the self-update check
	DefaultManagerRepository = "https://github.com/Jman-Github/universal-revanced-manager"

	// DefaultServerAddress is the listen address of the control surface
	DefaultServerAddress = ":8080"

	// EnvPrefix prefixes the environment variables the commands read
	EnvPrefix = "THV_BUNDLE_SYNC"

	appDirName = "thv-bundle-sync"
)

var (
	// DefaultDiscoveryEndpoints are the external bundle GraphQL endpoints, stable first
	DefaultDiscoveryEndpoints = []string{
		"https://revanced-external-bundles.brosssh.com/hasura/v1/graphql",
		"https://revanced-external-bundles-dev.brosssh.com/hasura/v1/graphql",
	}

	// DefaultPushEndpoints is the rotation of change-feed endpoints
	DefaultPushEndpoints = []string{
		"wss://revanced-external-bundles.brosssh.com/hasura/v1/graphql",
		"wss://revanced-external-bundles-dev.brosssh.com/hasura/v1/graphql",
	}
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// DataDir holds the database, bundle directories and preference files.
	// Defaults to $XDG_DATA_HOME/thv-bundle-sync
	DataDir string `yaml:"dataDir,omitempty"`

	// AppVersion keys the global derived-cache invalidation and the self-update check
	AppVersion string `yaml:"appVersion,omitempty"`

	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	API       *APIConfig        `yaml:"api,omitempty"`
	Push      *PushConfig       `yaml:"push,omitempty"`
	Network   *NetworkConfig    `yaml:"network,omitempty"`
	Server    *ServerConfig     `yaml:"server,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// DatabaseConfig defines the durable record store settings
type DatabaseConfig struct {
	// Path is the sqlite database file. Defaults to <dataDir>/bundles.db
	Path string `yaml:"path,omitempty"`
}

// APIConfig defines the upstream services bundles are fetched from
type APIConfig struct {
	// PatchesURL is the ReVanced API base; /v4/patches is appended
	PatchesURL string `yaml:"patchesUrl,omitempty"`

	// GitHubURL is the GitHub REST API base used for releases and pull request artifacts
	GitHubURL string `yaml:"githubUrl,omitempty"`

	// ManagerRepository is the repository checked for self-updates
	ManagerRepository string `yaml:"managerRepository,omitempty"`

	// DiscoveryEndpoints are the external bundle GraphQL endpoints, tried in order
	DiscoveryEndpoints []string `yaml:"discoveryEndpoints,omitempty"`

	// Timeout bounds every API request (e.g. "10s")
	Timeout string `yaml:"timeout,omitempty"`
}

// PushConfig defines the change-feed subscription settings
type PushConfig struct {
	Endpoints           []string `yaml:"endpoints,omitempty"`
	IdleTimeout         string   `yaml:"idleTimeout,omitempty"`
	HealthCheckInterval string   `yaml:"healthCheckInterval,omitempty"`
	MinTriggerInterval  string   `yaml:"minTriggerInterval,omitempty"`
	NetworkRetryDelay   string   `yaml:"networkRetryDelay,omitempty"`
}

// NetworkConfig describes how the service decides whether the network is safe to use
type NetworkConfig struct {
	// Metered marks the uplink as metered
	Metered bool `yaml:"metered,omitempty"`

	// ProbeAddress is dialed to decide whether the network is reachable (host:port).
	// Empty disables probing and the network is assumed up.
	ProbeAddress string `yaml:"probeAddress,omitempty"`

	// ProbeTimeout bounds the reachability probe
	ProbeTimeout string `yaml:"probeTimeout,omitempty"`
}

// ServerConfig defines the HTTP control surface
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file.
// Without WithConfigPath the defaults are returned.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	var config Config
	if loaderCfg.path != "" {
		data, err := os.ReadFile(loaderCfg.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	config.applyDefaults()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// applyDefaults fills every unset field
func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(xdg.DataHome, appDirName)
	}
	if c.AppVersion == "" {
		c.AppVersion = "dev"
	}
	if c.Database == nil {
		c.Database = &DatabaseConfig{}
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join(c.DataDir, "bundles.db")
	}
	if c.API == nil {
		c.API = &APIConfig{}
	}
	if c.API.PatchesURL == "" {
		c.API.PatchesURL = DefaultPatchesAPI
	}
	if c.API.GitHubURL == "" {
		c.API.GitHubURL = DefaultGitHubAPI
	}
	if c.API.ManagerRepository == "" {
		c.API.ManagerRepository = DefaultManagerRepository
	}
	if len(c.API.DiscoveryEndpoints) == 0 {
		c.API.DiscoveryEndpoints = append([]string(nil), DefaultDiscoveryEndpoints...)
	}
	if c.Push == nil {
		c.Push = &PushConfig{}
	}
	if len(c.Push.Endpoints) == 0 {
		c.Push.Endpoints = append([]string(nil), DefaultPushEndpoints...)
	}
	if c.Network == nil {
		c.Network = &NetworkConfig{}
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultServerAddress
	}
}

// Validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateHTTPURL("api.patchesUrl", c.API.PatchesURL); err != nil {
		return err
	}
	if err := validateHTTPURL("api.githubUrl", c.API.GitHubURL); err != nil {
		return err
	}
	if err := validateHTTPURL("api.managerRepository", c.API.ManagerRepository); err != nil {
		return err
	}
	for i, endpoint := range c.API.DiscoveryEndpoints {
		if err := validateHTTPURL(fmt.Sprintf("api.discoveryEndpoints[%d]", i), endpoint); err != nil {
			return err
		}
	}

	for i, endpoint := range c.Push.Endpoints {
		u, err := url.Parse(endpoint)
		if err != nil {
			return fmt.Errorf("push.endpoints[%d]: %w", i, err)
		}
		if u.Scheme != "ws" && u.Scheme != "wss" {
			return fmt.Errorf("push.endpoints[%d]: scheme must be ws or wss, got %q", i, u.Scheme)
		}
	}

	durations := map[string]string{
		"api.timeout":              c.API.Timeout,
		"push.idleTimeout":         c.Push.IdleTimeout,
		"push.healthCheckInterval": c.Push.HealthCheckInterval,
		"push.minTriggerInterval":  c.Push.MinTriggerInterval,
		"push.networkRetryDelay":   c.Push.NetworkRetryDelay,
		"network.probeTimeout":     c.Network.ProbeTimeout,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("%s must be a positive duration (e.g., '30s', '1m'), got %q", field, value)
		}
	}

	if c.Telemetry != nil {
		if err := c.Telemetry.Validate(); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}

	return nil
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: host is required", field)
	}
	return nil
}

// BundlesDir is the directory holding one sub-directory per bundle uid
func (c *Config) BundlesDir() string {
	return filepath.Join(c.DataDir, "bundles")
}

// PrefsPath is the mutable preferences file
func (c *Config) PrefsPath() string {
	return filepath.Join(c.DataDir, "prefs.json")
}

// StatusPath is the per-bundle sync status file
func (c *Config) StatusPath() string {
	return filepath.Join(c.DataDir, "status.json")
}

// DiscoveryHosts returns the hostnames of the discovery endpoints, in order and without duplicates
func (c *Config) DiscoveryHosts() []string {
	var hosts []string
	seen := make(map[string]bool)
	for _, endpoint := range c.API.DiscoveryEndpoints {
		u, err := url.Parse(endpoint)
		if err != nil || u.Hostname() == "" {
			continue
		}
		host := strings.ToLower(u.Hostname())
		if !seen[host] {
			seen[host] = true
			hosts = append(hosts, host)
		}
	}
	return hosts
}

// GetTimeout returns the API request timeout, 10s when unset
func (a *APIConfig) GetTimeout() time.Duration {
	return parseOr(a.Timeout, 10*time.Second)
}

// GetIdleTimeout returns how long the push connection may stay silent
func (p *PushConfig) GetIdleTimeout() time.Duration {
	return parseOr(p.IdleTimeout, 90*time.Second)
}

// GetHealthCheckInterval returns how often the idle timeout is checked
func (p *PushConfig) GetHealthCheckInterval() time.Duration {
	return parseOr(p.HealthCheckInterval, 15*time.Second)
}

// GetMinTriggerInterval returns the minimum spacing between two push triggers
func (p *PushConfig) GetMinTriggerInterval() time.Duration {
	return parseOr(p.MinTriggerInterval, 60*time.Second)
}

// GetNetworkRetryDelay returns the wait between network checks while offline
func (p *PushConfig) GetNetworkRetryDelay() time.Duration {
	return parseOr(p.NetworkRetryDelay, 10*time.Second)
}

// GetProbeTimeout returns the reachability probe timeout
func (n *NetworkConfig) GetProbeTimeout() time.Duration {
	return parseOr(n.ProbeTimeout, 3*time.Second)
}

func parseOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
