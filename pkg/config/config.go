package config

import (
	"strings"
	"time"
)

// Config is the root configuration structure for steward.
// It contains the storage backend, governance policy values, the batch
// scheduler, the reporting cache, the HTTP surface, and telemetry settings.
type Config struct {
	// Storage selects and configures the persistence backend.
	Storage StorageConfig `yaml:"storage"`

	// Policy holds governance tunables as a nested map, for example
	// policy.audit.timeout_hours. Values are interpreted by pkg/policy,
	// which falls back to defaults for malformed entries.
	Policy map[string]any `yaml:"policy"`

	// Scheduler contains cron schedules for unattended runs.
	Scheduler SchedulerConfig `yaml:"scheduler"`

	// Analytics contains configuration for course reports and rankings.
	Analytics AnalyticsConfig `yaml:"analytics"`

	// Server contains configuration for the HTTP surface of `steward serve`.
	Server ServerConfig `yaml:"server"`

	// Watch controls hot reload of the configuration file.
	Watch WatchConfig `yaml:"watch"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and health checks.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StorageConfig contains storage backend configuration.
type StorageConfig struct {
	// Backend is the storage backend type.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite storage configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/steward.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite3" (cgo), "sqlite" (pure Go)
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait for a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// SchedulerConfig contains cron schedules for batch runs.
// An empty schedule disables that job.
type SchedulerConfig struct {
	// Enabled controls whether `steward serve` starts the scheduler.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// AutoApproveSchedule is the cron expression for audit auto-approval.
	// Default: "*/15 * * * *"
	AutoApproveSchedule string `yaml:"auto_approve_schedule"`

	// TimeoutCheckSchedule is the cron expression for the audit timeout check.
	// Default: "0 * * * *"
	TimeoutCheckSchedule string `yaml:"timeout_check_schedule"`

	// CleanupSchedule is the cron expression for retention cleanup.
	// Default: "0 3 * * *"
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// CleanupTasks lists the cleanup tasks to run.
	// Options: "cache", "versions", "audits", "courses"
	// Default: all of them
	CleanupTasks []string `yaml:"cleanup_tasks"`

	// DryRun makes scheduled runs report without mutating.
	// Default: false
	DryRun bool `yaml:"dry_run"`
}

// AnalyticsConfig contains configuration for the reporting path.
type AnalyticsConfig struct {
	// CacheTTL is how long computed reports and rankings are reused.
	// Zero disables caching.
	// Default: 5m
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// CacheMaxEntries bounds the number of cached results.
	// Default: 1000
	CacheMaxEntries int `yaml:"cache_max_entries"`

	// DefaultSortKey is the ranking key used when none is given.
	// Options: "popularity", "quality", "engagement", "completeness"
	// Default: "popularity"
	DefaultSortKey string `yaml:"default_sort_key"`

	// DefaultLimit is the ranking size used when none is given.
	// Default: 10
	DefaultLimit int `yaml:"default_limit"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// WatchConfig controls configuration hot reload.
type WatchConfig struct {
	// Enabled reloads the configuration file when it changes.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// DebounceInterval is the quiet period before a reload fires.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "steward"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "lifecycle"
	Subsystem string `yaml:"subsystem"`

	// TaskDurationBuckets defines histogram buckets for task duration (seconds).
	// Default: [0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120]
	TaskDurationBuckets []float64 `yaml:"task_duration_buckets"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// PolicyValues flattens the nested policy section into dotted keys, so
// policy.audit.timeout_hours becomes "audit.timeout_hours". Keys that are
// already dotted are kept as-is.
func (c *Config) PolicyValues() map[string]any {
	out := make(map[string]any)
	flatten("", c.Policy, out)
	return out
}

func flatten(prefix string, in map[string]any, out map[string]any) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

// SetPolicyValue stores value under a dotted policy key, creating nested
// sections as needed so that it replaces any value loaded from the file.
func (c *Config) SetPolicyValue(key string, value any) {
	if c.Policy == nil {
		c.Policy = make(map[string]any)
	}
	parts := strings.Split(key, ".")
	section := c.Policy
	for _, part := range parts[:len(parts)-1] {
		next, ok := section[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			section[part] = next
		}
		section = next
	}
	section[parts[len(parts)-1]] = value
}
