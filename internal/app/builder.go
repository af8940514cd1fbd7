package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/opendata-catalog-server/internal/api"
	v1 "github.com/stacklok/opendata-catalog-server/internal/api/v1"
	"github.com/stacklok/opendata-catalog-server/internal/auth"
	"github.com/stacklok/opendata-catalog-server/internal/authz"
	"github.com/stacklok/opendata-catalog-server/internal/catalog"
	"github.com/stacklok/opendata-catalog-server/internal/config"
	"github.com/stacklok/opendata-catalog-server/internal/db"
	"github.com/stacklok/opendata-catalog-server/internal/httpclient"
	"github.com/stacklok/opendata-catalog-server/internal/ingest"
	"github.com/stacklok/opendata-catalog-server/internal/service"
	database "github.com/stacklok/opendata-catalog-server/internal/service/db"
	"github.com/stacklok/opendata-catalog-server/internal/service/factory"
	"github.com/stacklok/opendata-catalog-server/internal/storage"
	catalogsync "github.com/stacklok/opendata-catalog-server/internal/sync"
	"github.com/stacklok/opendata-catalog-server/internal/telemetry"
)

const (
	defaultHTTPAddress    = ":8080"
	defaultRequestTimeout = 60 * time.Second
	defaultReadTimeout    = 30 * time.Second
	defaultWriteTimeout   = 90 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// CatalogAppOptions is a function that configures the catalog app builder
type CatalogAppOptions func(*catalogAppConfig) error

// catalogAppConfig collects everything needed to build a CatalogApp.
// It supports dependency injection for testing while providing sensible defaults for production
type catalogAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	catalogService service.Service
	syncManager    catalogsync.Manager
	telemetry      *telemetry.Telemetry
	authMiddleware func(http.Handler) http.Handler
	authorizer     authz.Authorizer

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...CatalogAppOptions) (*catalogAppConfig, error) {
	cfg := &catalogAppConfig{
		address:        defaultHTTPAddress,
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

	return cfg, nil
}

// NewCatalogApp wires every component of the catalog server from its configuration
func NewCatalogApp(
	ctx context.Context,
	opts ...CatalogAppOptions,
) (*CatalogApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	components := &AppComponents{}
	cleanup := func(shutdownCtx context.Context) {
		if components.Pool != nil {
			components.Pool.Close()
		}
		if components.Telemetry != nil {
			if err := components.Telemetry.Shutdown(shutdownCtx); err != nil {
				slog.Error("Failed to shutdown telemetry", "error", err)
			}
		}
	}

	// Ensure cleanup happens on error
	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cleanup(context.Background())
		}
	}()

	components.Telemetry, err = buildTelemetry(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	components.CatalogService, components.Pool, err = buildServiceComponents(ctx, cfg, components.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	if err := ProvisionNodes(ctx, components.CatalogService, cfg.config.Nodes); err != nil {
		return nil, fmt.Errorf("failed to provision nodes: %w", err)
	}

	components.SyncManager, err = buildSyncComponents(cfg, components.CatalogService, components.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	if cfg.authMiddleware == nil {
		cfg.authMiddleware, err = auth.NewAuthMiddleware(&cfg.config.Auth)
		if err != nil {
			return nil, fmt.Errorf("failed to build auth middleware: %w", err)
		}
	}

	if cfg.authorizer == nil {
		cfg.authorizer, err = buildAuthorizer(cfg.config.Auth.PolicyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to build authorizer: %w", err)
		}
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	return &CatalogApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		cleanup:    cleanup,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("address is not a valid host:port: %w", err)
		}
		if port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(net.JoinHostPort(host, port)); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout bounds the handling time of a single request
func WithRequestTimeout(d time.Duration) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithCatalogService allows injecting a custom catalog service (for testing)
func WithCatalogService(svc service.Service) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.catalogService = svc
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm catalogsync.Manager) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry allows injecting pre-built telemetry providers
func WithTelemetry(t *telemetry.Telemetry) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithAuthMiddleware allows injecting the middleware that identifies callers
func WithAuthMiddleware(mw func(http.Handler) http.Handler) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.authMiddleware = mw
		return nil
	}
}

// WithAuthorizer allows injecting the policy engine for node mutations
func WithAuthorizer(a authz.Authorizer) CatalogAppOptions {
	return func(cfg *catalogAppConfig) error {
		cfg.authorizer = a
		return nil
	}
}

// buildAuthorizer loads the Cedar policies from path, or the built-in ones when path is empty
func buildAuthorizer(path string) (authz.Authorizer, error) {
	if path == "" {
		return authz.NewCedarAuthorizer(nil)
	}
	policies, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	slog.Info("auth: custom Cedar policies loaded", "path", path)
	return authz.NewCedarAuthorizer(policies)
}

func buildTelemetry(ctx context.Context, b *catalogAppConfig) (*telemetry.Telemetry, error) {
	if b.telemetry != nil {
		return b.telemetry, nil
	}
	return telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
}

// buildServiceComponents builds the repository, file storage and catalog service.
// The returned pool is nil unless a database is configured.
func buildServiceComponents(
	ctx context.Context,
	b *catalogAppConfig,
	tel *telemetry.Telemetry,
) (service.Service, *pgxpool.Pool, error) {
	if b.catalogService != nil {
		return b.catalogService, nil, nil
	}

	slog.Info("Initializing service components")

	var pool *pgxpool.Pool
	if b.config.Database != nil {
		var err error
		pool, err = db.NewPool(ctx, b.config.Database)
		if err != nil {
			return nil, nil, err
		}
	}

	repo, err := factory.NewRepository(ctx, b.config, pool, tel.Tracer(database.RepositoryTracerName))
	if err != nil {
		return nil, pool, fmt.Errorf("failed to create repository: %w", err)
	}

	store, err := storage.New(b.config.GetDataDir())
	if err != nil {
		return nil, pool, fmt.Errorf("failed to create storage: %w", err)
	}

	client := httpclient.NewDefaultClient(
		b.config.GetFetchTimeout(),
		httpclient.WithMaxRetries(b.config.GetMaxRetries()),
		httpclient.WithMaxResponseSize(b.config.GetMaxUploadSize()),
	)
	inputs := ingest.NewInputValidator(client, ingest.WithMaxUploadSize(b.config.GetMaxUploadSize()))

	validator, err := catalog.NewSchemaValidator()
	if err != nil {
		return nil, pool, fmt.Errorf("failed to create catalog validator: %w", err)
	}

	catalogMetrics, err := telemetry.NewCatalogMetrics(tel.MeterProvider())
	if err != nil {
		return nil, pool, fmt.Errorf("failed to create catalog metrics: %w", err)
	}

	svc, err := service.New(repo, store, inputs, validator,
		service.WithStrictValidation(b.config.Catalog.StrictValidation),
		service.WithLocation(b.config.GetLocation()),
		service.WithTracer(tel.Tracer(service.ServiceTracerName)),
		service.WithCatalogMetrics(catalogMetrics),
	)
	if err != nil {
		return nil, pool, fmt.Errorf("failed to create catalog service: %w", err)
	}

	slog.Info("Service components initialized successfully",
		"data_dir", store.Root(),
		"database", pool != nil,
		"strict_validation", b.config.Catalog.StrictValidation)
	return svc, pool, nil
}

// buildSyncComponents builds the manager that pulls node catalogs from their sources
func buildSyncComponents(
	b *catalogAppConfig,
	svc service.Service,
	tel *telemetry.Telemetry,
) (catalogsync.Manager, error) {
	if b.syncManager != nil {
		return b.syncManager, nil
	}

	syncMetrics, err := telemetry.NewSyncMetrics(tel.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	return catalogsync.NewManager(svc,
		catalogsync.WithSyncMetrics(syncMetrics),
		catalogsync.WithTracer(tel.Tracer(catalogsync.SyncTracerName)),
	), nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *catalogAppConfig,
	components *AppComponents,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	// Use default middlewares if not provided
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Metrics and tracing wrap everything so rejected requests are observed too
	metricsMiddleware, err := telemetry.MetricsMiddleware(components.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{
		metricsMiddleware,
		telemetry.TracingMiddleware(components.Telemetry.TracerProvider()),
	}, b.middlewares...)

	router := api.NewServer(components.CatalogService,
		api.WithMiddlewares(b.middlewares...),
		api.WithMetricsHandler(components.Telemetry.MetricsHandler()),
		api.WithV1Options(
			v1.WithAuthMiddleware(b.authMiddleware),
			v1.WithAuthorizer(b.authorizer),
			v1.WithSyncManager(components.SyncManager),
			v1.WithMaxUploadSize(b.config.GetMaxUploadSize()),
		),
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
