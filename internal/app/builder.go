package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/wiki-index-sync/internal/api"
	"github.com/stacklok/wiki-index-sync/internal/config"
	"github.com/stacklok/wiki-index-sync/internal/db"
	"github.com/stacklok/wiki-index-sync/internal/index/sqlite"
	"github.com/stacklok/wiki-index-sync/internal/status"
	"github.com/stacklok/wiki-index-sync/internal/store/postgres"
	"github.com/stacklok/wiki-index-sync/internal/sync/coordinator"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// IndexSyncAppOption configures the application builder
type IndexSyncAppOption func(*appConfig) error

// appConfig collects the builder inputs. Injected components are not closed
// by the application.
type appConfig struct {
	config *config.Config

	store     DocumentStore
	index     *sqlite.Index
	telemetry *telemetry.Telemetry

	coordinatorOpts []coordinator.Option

	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	closers []func()
}

func baseConfig(opts ...IndexSyncAppOption) (*appConfig, error) {
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
		cfg.address = cfg.config.GetServerAddress()
	}
	return cfg, nil
}

// NewIndexSyncApp builds the scheduler and the operations server from the
// configuration. Components not injected through options are created here
// and released by Stop.
func NewIndexSyncApp(ctx context.Context, opts ...IndexSyncAppOption) (*IndexSyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.cleanup()
		}
	}()

	if err := buildBackends(ctx, cfg); err != nil {
		return nil, err
	}

	components, err := buildSyncComponents(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false
	return &IndexSyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		cleanup:    cfg.cleanup,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, ok := strings.Cut(addr, ":")
		if !ok || port == "" {
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
func WithMiddlewares(mw ...func(http.Handler) http.Handler) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStore injects the document store instead of connecting to the configured database
func WithStore(s DocumentStore) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.store = s
		return nil
	}
}

// WithIndex injects the search index instead of opening the configured path
func WithIndex(idx *sqlite.Index) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.index = idx
		return nil
	}
}

// WithTelemetry injects the telemetry providers
func WithTelemetry(t *telemetry.Telemetry) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithCoordinatorOptions passes options to the sync coordinator
func WithCoordinatorOptions(opts ...coordinator.Option) IndexSyncAppOption {
	return func(cfg *appConfig) error {
		cfg.coordinatorOpts = append(cfg.coordinatorOpts, opts...)
		return nil
	}
}

func (b *appConfig) cleanup() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

// buildBackends opens whatever store, index and telemetry were not injected
func buildBackends(ctx context.Context, b *appConfig) error {
	if b.telemetry == nil {
		tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(b.config.Telemetry))
		if err != nil {
			return fmt.Errorf("failed to initialize telemetry: %w", err)
		}
		b.telemetry = tel
		b.closers = append(b.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				slog.Error("Failed to shut down telemetry", "error", err)
			}
		})
	}

	if b.store == nil {
		store, closeStore, err := OpenStore(ctx, b.config)
		if err != nil {
			return err
		}
		b.store = store
		b.closers = append(b.closers, closeStore)
	}

	if b.index == nil {
		index, err := OpenIndex(ctx, b.config)
		if err != nil {
			return err
		}
		b.index = index
		b.closers = append(b.closers, func() {
			if err := index.Close(); err != nil {
				slog.Error("Failed to close index", "error", err)
			}
		})
	}
	return nil
}

// OpenStore connects to the configured document store. The returned
// function closes the pool.
func OpenStore(ctx context.Context, cfg *config.Config) (*postgres.Store, func(), error) {
	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	store, err := postgres.New(pool)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return store, pool.Close, nil
}

// OpenIndex opens the configured search index, creating its directory.
func OpenIndex(ctx context.Context, cfg *config.Config) (*sqlite.Index, error) {
	path := cfg.Index.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}
	index, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return index, nil
}

// buildSyncComponents builds the jobs and the coordinator that schedules them
func buildSyncComponents(b *appConfig) (*AppComponents, error) {
	slog.Info("Initializing sync components", "job_count", len(b.config.Sync.Jobs))

	jobs, schedules, err := buildSchedules(b.config, b.store, b.index, b.telemetry)
	if err != nil {
		return nil, err
	}

	if b.config.Status.Dir == "" {
		slog.Warn("No status directory configured, job status will not survive restarts")
	}
	tracker := status.NewTracker(status.NewFileStatusPersistence(b.config.Status.Dir))

	coord, err := coordinator.New(tracker, schedules, b.coordinatorOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync coordinator: %w", err)
	}

	return &AppComponents{
		Store:       b.store,
		Index:       b.index,
		Jobs:        jobs,
		Coordinator: coord,
		Telemetry:   b.telemetry,
	}, nil
}

// buildHTTPServer builds the operations server with router and middleware
func buildHTTPServer(b *appConfig, c *AppComponents) (*http.Server, error) {
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	httpMetrics, err := telemetry.NewHTTPMetrics(c.Telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}
	// Metrics first so every request is counted
	middlewares := append([]func(http.Handler) http.Handler{httpMetrics.Middleware}, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
		api.WithReadinessCheck("store", c.Store),
		api.WithReadinessCheck("index", c.Index),
	}
	if h := c.Telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
	}
	router := api.NewServer(c.Coordinator, serverOpts...)

	if b.address == "" {
		return nil, errors.New("address cannot be empty")
	}
	return &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}, nil
}
