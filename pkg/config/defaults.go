package config

import "time"

// Default values for configuration fields.
const (
	// Storage defaults
	DefaultStorageBackend     = "sqlite"
	DefaultSQLitePath         = "data/steward.db"
	DefaultSQLiteDriver       = "sqlite3"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteMaxIdleConns = 5
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Scheduler defaults
	DefaultSchedulerEnabled     = false
	DefaultAutoApproveSchedule  = "*/15 * * * *"
	DefaultTimeoutCheckSchedule = "0 * * * *"
	DefaultCleanupSchedule      = "0 3 * * *"

	// Analytics defaults
	DefaultAnalyticsCacheTTL        = 5 * time.Minute
	DefaultAnalyticsCacheMaxEntries = 1000
	DefaultAnalyticsSortKey         = "popularity"
	DefaultAnalyticsLimit           = 10

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:9090"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Watch defaults
	DefaultWatchDebounce = 250 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "steward"
	DefaultMetricsSubsystem   = "lifecycle"
	DefaultLivenessPath       = "/health"
	DefaultReadinessPath      = "/ready"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultCleanupTasks returns the cleanup tasks run when none are configured.
func DefaultCleanupTasks() []string {
	return []string{"cache", "versions", "audits", "courses"}
}

// DefaultTaskDurationBuckets returns the default task duration histogram buckets.
func DefaultTaskDurationBuckets() []float64 {
	return []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120}
}

// Default returns a configuration with every default applied, including
// boolean defaults that ApplyDefaults cannot distinguish from "unset".
// LoadConfig decodes the YAML file on top of this value.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.SQLite.WALMode = DefaultSQLiteWALMode
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Scheduler.Enabled = DefaultSchedulerEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Storage defaults
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = DefaultStorageBackend
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = DefaultSQLiteMaxIdleConns
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Policy section may be absent entirely
	if cfg.Policy == nil {
		cfg.Policy = make(map[string]any)
	}

	// Scheduler defaults
	if cfg.Scheduler.AutoApproveSchedule == "" {
		cfg.Scheduler.AutoApproveSchedule = DefaultAutoApproveSchedule
	}
	if cfg.Scheduler.TimeoutCheckSchedule == "" {
		cfg.Scheduler.TimeoutCheckSchedule = DefaultTimeoutCheckSchedule
	}
	if cfg.Scheduler.CleanupSchedule == "" {
		cfg.Scheduler.CleanupSchedule = DefaultCleanupSchedule
	}
	if len(cfg.Scheduler.CleanupTasks) == 0 {
		cfg.Scheduler.CleanupTasks = DefaultCleanupTasks()
	}

	// Analytics defaults
	if cfg.Analytics.CacheTTL == 0 {
		cfg.Analytics.CacheTTL = DefaultAnalyticsCacheTTL
	}
	if cfg.Analytics.CacheMaxEntries == 0 {
		cfg.Analytics.CacheMaxEntries = DefaultAnalyticsCacheMaxEntries
	}
	if cfg.Analytics.DefaultSortKey == "" {
		cfg.Analytics.DefaultSortKey = DefaultAnalyticsSortKey
	}
	if cfg.Analytics.DefaultLimit == 0 {
		cfg.Analytics.DefaultLimit = DefaultAnalyticsLimit
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Watch defaults
	if cfg.Watch.DebounceInterval == 0 {
		cfg.Watch.DebounceInterval = DefaultWatchDebounce
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.TaskDurationBuckets) == 0 {
		cfg.Telemetry.Metrics.TaskDurationBuckets = DefaultTaskDurationBuckets()
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
