// Package config provides configuration loading and management for index-sync.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stacklok/wiki-index-sync/internal/reference"
	"github.com/stacklok/wiki-index-sync/internal/telemetry"
)

const (
	// EnvPrefix prefixes the environment variables read through viper.
	EnvPrefix = "INDEX_SYNC"

	// PasswordEnvVar holds the database password when no passwordFile is configured.
	PasswordEnvVar = "INDEX_SYNC_DATABASE_PASSWORD"

	// DefaultPageSize is used for both store and index pages when unset.
	DefaultPageSize = 100

	// DefaultServerAddress is the listen address of the operations endpoints.
	DefaultServerAddress = ":8080"

	// DefaultSyncInterval applies to jobs without an interval.
	DefaultSyncInterval = time.Hour

	defaultSSLMode = "require"
	maxPageSize    = 10000
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks. This also cleans the path.
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
	Database  *DatabaseConfig   `yaml:"database,omitempty"`
	Index     IndexConfig       `yaml:"index"`
	Store     StoreConfig       `yaml:"store,omitempty"`
	Sync      SyncConfig        `yaml:"sync,omitempty"`
	Server    ServerConfig      `yaml:"server,omitempty"`
	Status    StatusConfig      `yaml:"status,omitempty"`
	Telemetry *telemetry.Config `yaml:"telemetry,omitempty"`
}

// IndexConfig locates the SQLite search index.
type IndexConfig struct {
	// Path is the SQLite database file. It is created if missing.
	Path     string `yaml:"path"`
	PageSize int    `yaml:"pageSize,omitempty"`
}

// StoreConfig tunes reads from the document store.
type StoreConfig struct {
	PageSize int `yaml:"pageSize,omitempty"`
}

// SyncConfig lists the scheduled synchronization jobs.
type SyncConfig struct {
	Jobs []JobConfig `yaml:"jobs,omitempty"`
}

// JobConfig is one scheduled synchronization.
type JobConfig struct {
	Name string `yaml:"name"`

	// Root is a scope such as "xwiki", "xwiki:Main.Sub" or "xwiki:Main/WebHome".
	// Empty synchronizes every wiki.
	Root string `yaml:"root,omitempty"`

	// Interval between runs (e.g., "30m", "1h")
	Interval string `yaml:"interval,omitempty"`

	Overwrite bool `yaml:"overwrite,omitempty"`

	// RemoveMissing defaults to true when omitted.
	RemoveMissing *bool `yaml:"removeMissing,omitempty"`

	CleanInvalid bool `yaml:"cleanInvalid,omitempty"`
}

// ServerConfig configures the operations HTTP server.
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// StatusConfig configures where job status is persisted.
type StatusConfig struct {
	// Dir holds one JSON status file per job. Empty disables persistence.
	Dir string `yaml:"dir,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxOpenConns is the maximum number of open connections in the pool
	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// MaxIdleConns is the minimum number of idle connections kept in the pool
	MaxIdleConns int32 `yaml:"maxIdleConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from INDEX_SYNC_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		data, err := os.ReadFile(filepath.Clean(d.PasswordFile))
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(PasswordEnvVar); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s environment variable", PasswordEnvVar,
	)
}

// GetConnectionString builds a PostgreSQL connection string.
// The password is URL-escaped to handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = defaultSSLMode
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String(), nil
}

// GetConnMaxLifetime parses ConnMaxLifetime. Zero means unset.
func (d *DatabaseConfig) GetConnMaxLifetime() (time.Duration, error) {
	if d.ConnMaxLifetime == "" {
		return 0, nil
	}
	lifetime, err := time.ParseDuration(d.ConnMaxLifetime)
	if err != nil {
		return 0, fmt.Errorf("invalid connection max lifetime: %w", err)
	}
	return lifetime, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetIndexPageSize returns the configured index page size or the default.
func (c *Config) GetIndexPageSize() int {
	if c.Index.PageSize == 0 {
		return DefaultPageSize
	}
	return c.Index.PageSize
}

// GetStorePageSize returns the configured store page size or the default.
func (c *Config) GetStorePageSize() int {
	if c.Store.PageSize == 0 {
		return DefaultPageSize
	}
	return c.Store.PageSize
}

// GetServerAddress returns the operations listen address or the default.
func (c *Config) GetServerAddress() string {
	if c.Server.Address == "" {
		return DefaultServerAddress
	}
	return c.Server.Address
}

// GetRoot parses the job root scope.
func (j *JobConfig) GetRoot() (reference.Scope, error) {
	return reference.ParseScope(j.Root)
}

// GetInterval returns the parsed interval, or DefaultSyncInterval when unset.
func (j *JobConfig) GetInterval() time.Duration {
	if j.Interval == "" {
		return DefaultSyncInterval
	}
	d, err := time.ParseDuration(j.Interval)
	if err != nil || d <= 0 {
		return DefaultSyncInterval
	}
	return d
}

// GetRemoveMissing reports whether deletions are applied, true when unset.
func (j *JobConfig) GetRemoveMissing() bool {
	return j.RemoveMissing == nil || *j.RemoveMissing
}

// Validate checks the whole configuration and reports every problem found.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if c.Database == nil {
		errs = append(errs, fmt.Errorf("database configuration is required"))
	} else if err := c.Database.validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if c.Index.Path == "" {
		errs = append(errs, fmt.Errorf("index.path is required"))
	}
	if err := validatePageSize(c.Index.PageSize); err != nil {
		errs = append(errs, fmt.Errorf("index.pageSize: %w", err))
	}
	if err := validatePageSize(c.Store.PageSize); err != nil {
		errs = append(errs, fmt.Errorf("store.pageSize: %w", err))
	}

	names := make(map[string]bool)
	for i := range c.Sync.Jobs {
		job := &c.Sync.Jobs[i]
		if job.Name == "" {
			errs = append(errs, fmt.Errorf("sync.jobs[%d]: name is required", i))
			continue
		}
		if names[job.Name] {
			errs = append(errs, fmt.Errorf("sync.jobs[%d]: duplicate job name '%s'", i, job.Name))
		}
		names[job.Name] = true
		if err := job.validate(); err != nil {
			errs = append(errs, fmt.Errorf("sync.jobs[%d] (%s): %w", i, job.Name, err))
		}
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (d *DatabaseConfig) validate() error {
	var errs []error
	if d.Host == "" {
		errs = append(errs, fmt.Errorf("host is required"))
	}
	if d.Port <= 0 || d.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, fmt.Errorf("user is required"))
	}
	if d.Database == "" {
		errs = append(errs, fmt.Errorf("database is required"))
	}
	if _, err := d.GetConnMaxLifetime(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (j *JobConfig) validate() error {
	if _, err := j.GetRoot(); err != nil {
		return fmt.Errorf("root: %w", err)
	}
	if j.Interval != "" {
		d, err := time.ParseDuration(j.Interval)
		if err != nil {
			return fmt.Errorf("interval must be a valid duration (e.g., '30m', '1h'): %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("interval must be positive, got %s", j.Interval)
		}
	}
	return nil
}

func validatePageSize(size int) error {
	if size < 0 || size > maxPageSize {
		return fmt.Errorf("must be between 1 and %d, got %d", maxPageSize, size)
	}
	return nil
}
