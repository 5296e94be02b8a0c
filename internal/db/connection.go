// Package db opens the pgx connection pool to the document store.
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/wiki-index-sync/internal/config"
)

const (
	defaultMaxConns        = 10
	defaultMinConns        = 1
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnectTimeout  = 10 * time.Second
	defaultConnectBudget   = 2 * time.Minute
)

// PoolOption customizes pool creation.
type PoolOption func(*poolOptions)

type poolOptions struct {
	connectBudget time.Duration
}

// WithConnectBudget bounds the total time spent retrying the initial ping.
func WithConnectBudget(d time.Duration) PoolOption {
	return func(o *poolOptions) {
		o.connectBudget = d
	}
}

// PoolConfig translates the database configuration into a pgxpool config.
func PoolConfig(cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	connString, err := cfg.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build connection string: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolCfg.MaxConns = defaultMaxConns
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = cfg.MaxOpenConns
	}
	poolCfg.MinConns = defaultMinConns
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = min(cfg.MaxIdleConns, poolCfg.MaxConns)
	}

	poolCfg.MaxConnLifetime = defaultConnMaxLifetime
	lifetime, err := cfg.GetConnMaxLifetime()
	if err != nil {
		return nil, err
	}
	if lifetime > 0 {
		poolCfg.MaxConnLifetime = lifetime
	}
	poolCfg.ConnConfig.ConnectTimeout = defaultConnectTimeout

	return poolCfg, nil
}

// NewPool opens a pool and pings it, retrying with exponential backoff while
// the database is unreachable.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, opts ...PoolOption) (*pgxpool.Pool, error) {
	o := &poolOptions{connectBudget: defaultConnectBudget}
	for _, opt := range opts {
		opt(o)
	}

	poolCfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, pool.Ping(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(o.connectBudget),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("Database not reachable, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connection established",
		"user", cfg.User, "host", cfg.Host, "port", cfg.Port, "database", cfg.Database)
	return pool, nil
}
