package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/toolhive-bundle-sync/internal/api"
	v1 "github.com/stacklok/toolhive-bundle-sync/internal/api/v1"
	"github.com/stacklok/toolhive-bundle-sync/internal/bundles"
	"github.com/stacklok/toolhive-bundle-sync/internal/cache"
	"github.com/stacklok/toolhive-bundle-sync/internal/changelog"
	"github.com/stacklok/toolhive-bundle-sync/internal/config"
	"github.com/stacklok/toolhive-bundle-sync/internal/db"
	"github.com/stacklok/toolhive-bundle-sync/internal/discovery"
	"github.com/stacklok/toolhive-bundle-sync/internal/httpclient"
	"github.com/stacklok/toolhive-bundle-sync/internal/metadata"
	"github.com/stacklok/toolhive-bundle-sync/internal/network"
	"github.com/stacklok/toolhive-bundle-sync/internal/notify"
	"github.com/stacklok/toolhive-bundle-sync/internal/prefs"
	"github.com/stacklok/toolhive-bundle-sync/internal/push"
	"github.com/stacklok/toolhive-bundle-sync/internal/records"
	"github.com/stacklok/toolhive-bundle-sync/internal/remote"
	"github.com/stacklok/toolhive-bundle-sync/internal/repository"
	"github.com/stacklok/toolhive-bundle-sync/internal/status"
	pkgsync "github.com/stacklok/toolhive-bundle-sync/internal/sync"
	"github.com/stacklok/toolhive-bundle-sync/internal/sync/coordinator"
	"github.com/stacklok/toolhive-bundle-sync/internal/telemetry"
)

const (
	// instrumentationName names the tracer used by the pipeline and the import queue
	instrumentationName = "github.com/stacklok/toolhive-bundle-sync"

	// waiting update passes and artifact uploads can take minutes
	defaultRequestTimeout = 5 * time.Minute
	defaultReadTimeout    = 5 * time.Minute
	defaultWriteTimeout   = 6 * time.Minute
	defaultIdleTimeout    = 60 * time.Second
)

// Option configures the app builder
type Option func(*appConfig) error

// appConfig collects the builder inputs. The overrides are mostly for tests.
type appConfig struct {
	config *config.Config

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Optional component overrides
	httpClient  httpclient.Client
	monitor     network.Monitor
	foreground  push.ForegroundService
	telemetry   *telemetry.Telemetry
	disablePush bool
}

func baseConfig(opts ...Option) (*appConfig, error) {
	cfg := &appConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.Address
	}
	return cfg, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) Option {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress overrides the listen address from the configuration
func WithAddress(addr string) Option {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithHTTPClient replaces the client used for every upstream request
func WithHTTPClient(c httpclient.Client) Option {
	return func(cfg *appConfig) error {
		cfg.httpClient = c
		return nil
	}
}

// WithNetworkMonitor replaces the probe-based network monitor
func WithNetworkMonitor(m network.Monitor) Option {
	return func(cfg *appConfig) error {
		cfg.monitor = m
		return nil
	}
}

// WithForegroundService replaces the in-process keep-alive
func WithForegroundService(s push.ForegroundService) Option {
	return func(cfg *appConfig) error {
		cfg.foreground = s
		return nil
	}
}

// WithTelemetry uses already initialized telemetry providers
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(cfg *appConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithoutPush turns the change-feed subscription off
func WithoutPush() Option {
	return func(cfg *appConfig) error {
		cfg.disablePush = true
		return nil
	}
}

// NewApp builds the components and the HTTP server
func NewApp(ctx context.Context, opts ...Option) (*App, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components, err := buildComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		_ = components.Close(ctx)
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	return &App{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// BuildComponents builds the components without an HTTP server, for one-shot commands.
// The caller must Close them.
func BuildComponents(ctx context.Context, opts ...Option) (*Components, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	return buildComponents(ctx, cfg)
}

// buildComponents wires storage, upstream clients, the repository, the update
// pipeline and the background workers
func buildComponents(ctx context.Context, b *appConfig) (_ *Components, err error) {
	c := b.config
	slog.Info("Initializing bundle sync components", "data_dir", c.DataDir)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	components := &Components{cancel: cancel}
	defer func() {
		if err != nil {
			_ = components.Close(ctx)
		}
	}()

	components.Telemetry = b.telemetry
	if components.Telemetry == nil {
		components.Telemetry, err = telemetry.New(ctx,
			telemetry.WithTelemetryConfig(c.Telemetry),
			telemetry.WithServiceVersion(c.AppVersion),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}
	meterProvider := components.Telemetry.MeterProvider()
	tracer := components.Telemetry.Tracer(instrumentationName)

	components.Database, err = db.NewConnection(c.Database.Path)
	if err != nil {
		return nil, err
	}

	components.Prefs, err = prefs.Open(c.PrefsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	prefStore := components.Prefs

	client := b.httpClient
	if client == nil {
		client = httpclient.NewDefaultClient(c.API.GetTimeout())
	}
	github := remote.NewGitHubClient(client, c.API.GitHubURL, prefStore.GitHubToken)
	components.Discovery = remote.NewDiscoveryClient(client, c.API.DiscoveryEndpoints, c.API.GetTimeout())

	meta := metadata.NewLoader()
	loader := bundles.NewLoader(c.BundlesDir(), &bundles.Deps{
		HTTP:           client,
		Patches:        remote.NewPatchesClient(client, c.API.PatchesURL),
		Discovery:      components.Discovery,
		PullRequests:   remote.NewPullRequestClient(github, remote.NewGitHeadResolver(prefStore.GitHubToken)),
		Prefs:          prefStore,
		Manifests:      meta,
		Releases:       bundles.NewReleaseCache(bundles.DefaultReleaseTTL),
		DiscoveryHosts: c.DiscoveryHosts(),
	})

	components.Notices = notify.NewRing(notify.DefaultCapacity)
	components.Changelog = changelog.NewStore()

	components.Repository = repository.New(
		runCtx,
		records.NewSQLStore(components.Database.DB),
		loader,
		cache.NewInvalidator(loader.BundlesDir(), prefStore),
		meta,
		prefStore,
		repository.WithAppVersion(c.AppVersion),
		repository.WithNotifier(components.Notices),
	)
	if err := components.Repository.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load bundles: %w", err)
	}

	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	bundleMetrics, err := telemetry.NewBundleMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create bundle metrics: %w", err)
	}

	monitor := b.monitor
	if monitor == nil {
		monitor = network.NewProbeMonitor(c.Network.ProbeAddress, c.Network.GetProbeTimeout(), c.Network.Metered)
	}

	components.Pipeline = pkgsync.New(runCtx, components.Repository, prefStore, monitor,
		pkgsync.WithNotifier(components.Notices),
		pkgsync.WithChangelog(components.Changelog),
		pkgsync.WithStatusPersistence(status.NewFileStatusPersistence(c.StatusPath())),
		pkgsync.WithMetrics(syncMetrics, bundleMetrics),
		pkgsync.WithTracer(tracer),
	)
	components.Repository.SetUpdater(components.Pipeline)

	coordOpts := []coordinator.Option{coordinator.WithNotifier(components.Notices)}
	if checker, err := remote.NewManagerChecker(github, c.API.ManagerRepository, c.AppVersion); err != nil {
		slog.Warn("Manager self-update check disabled", "repository", c.API.ManagerRepository, "error", err)
	} else {
		coordOpts = append(coordOpts, coordinator.WithManagerChecker(checker))
	}
	components.Coordinator = coordinator.New(components.Pipeline, prefStore, coordOpts...)

	if hosts := c.DiscoveryHosts(); len(hosts) > 0 {
		importMetrics, err := telemetry.NewImportMetrics(meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create import metrics: %w", err)
		}
		components.Imports = discovery.NewQueue(runCtx, components.Repository, components.Pipeline, hosts[0],
			discovery.WithNotifier(components.Notices),
			discovery.WithLookup(components.Discovery),
			discovery.WithMetrics(importMetrics),
			discovery.WithTracer(tracer),
		)
	}

	if !b.disablePush && len(c.Push.Endpoints) > 0 {
		pushMetrics, err := telemetry.NewPushMetrics(meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create push metrics: %w", err)
		}
		foreground := b.foreground
		if foreground == nil {
			foreground = &push.KeepAlive{}
		}
		components.Push = push.New(c.Push.Endpoints, prefStore, components.Coordinator,
			push.WithNetworkMonitor(monitor),
			push.WithForegroundService(foreground),
			push.WithMetrics(pushMetrics),
			push.WithTimings(
				c.Push.GetIdleTimeout(),
				c.Push.GetHealthCheckInterval(),
				c.Push.GetMinTriggerInterval(),
				c.Push.GetNetworkRetryDelay(),
			),
		)
	}

	slog.Info("Bundle sync components initialized",
		"bundles", len(components.Repository.State().Order),
		"push_enabled", components.Push != nil,
		"imports_enabled", components.Imports != nil,
	)
	return components, nil
}

// services adapts the components to the control API. Disabled features stay
// nil interfaces.
func services(c *Components) v1.Services {
	svc := v1.Services{
		Bundles:   c.Repository,
		Updates:   c.Pipeline,
		Notices:   c.Notices,
		Changelog: c.Changelog,
	}
	if c.Discovery != nil {
		svc.Catalog = c.Discovery
	}
	if c.Imports != nil {
		svc.Imports = c.Imports
	}
	if c.Push != nil {
		svc.Push = c.Push
	}
	return svc
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *appConfig, c *Components) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	middlewares := b.middlewares
	if middlewares == nil {
		middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing go first so they see every request
	metricsMiddleware, err := telemetry.MetricsMiddleware(c.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	prefix := []func(http.Handler) http.Handler{telemetry.TracingMiddleware(c.Telemetry.TracerProvider())}
	if metricsMiddleware != nil {
		prefix = append(prefix, metricsMiddleware)
	}
	middlewares = append(prefix, middlewares...)

	router := api.NewServer(services(c),
		api.WithMiddlewares(middlewares...),
		api.WithMetricsHandler(c.Telemetry.MetricsHandler()),
		api.WithReadiness(func(context.Context) error {
			return c.Database.Ping()
		}),
	)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
