package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"storage.backend", cfg.Storage.Backend, DefaultStorageBackend},
		{"storage.sqlite.path", cfg.Storage.SQLite.Path, DefaultSQLitePath},
		{"storage.sqlite.driver", cfg.Storage.SQLite.Driver, DefaultSQLiteDriver},
		{"storage.sqlite.max_open_conns", cfg.Storage.SQLite.MaxOpenConns, DefaultSQLiteMaxOpenConns},
		{"storage.sqlite.busy_timeout", cfg.Storage.SQLite.BusyTimeout, DefaultSQLiteBusyTimeout},
		{"scheduler.auto_approve_schedule", cfg.Scheduler.AutoApproveSchedule, DefaultAutoApproveSchedule},
		{"scheduler.timeout_check_schedule", cfg.Scheduler.TimeoutCheckSchedule, DefaultTimeoutCheckSchedule},
		{"scheduler.cleanup_schedule", cfg.Scheduler.CleanupSchedule, DefaultCleanupSchedule},
		{"analytics.cache_ttl", cfg.Analytics.CacheTTL, DefaultAnalyticsCacheTTL},
		{"analytics.default_sort_key", cfg.Analytics.DefaultSortKey, DefaultAnalyticsSortKey},
		{"analytics.default_limit", cfg.Analytics.DefaultLimit, DefaultAnalyticsLimit},
		{"server.listen_address", cfg.Server.ListenAddress, DefaultListenAddress},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout, DefaultShutdownTimeout},
		{"watch.debounce_interval", cfg.Watch.DebounceInterval, DefaultWatchDebounce},
		{"telemetry.logging.level", cfg.Telemetry.Logging.Level, DefaultLoggingLevel},
		{"telemetry.logging.format", cfg.Telemetry.Logging.Format, DefaultLoggingFormat},
		{"telemetry.metrics.path", cfg.Telemetry.Metrics.Path, DefaultPrometheusPath},
		{"telemetry.metrics.namespace", cfg.Telemetry.Metrics.Namespace, DefaultMetricsNamespace},
		{"telemetry.health.readiness_path", cfg.Telemetry.Health.ReadinessPath, DefaultReadinessPath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if !reflect.DeepEqual(cfg.Scheduler.CleanupTasks, DefaultCleanupTasks()) {
		t.Errorf("cleanup tasks = %v, want %v", cfg.Scheduler.CleanupTasks, DefaultCleanupTasks())
	}
	if cfg.Policy == nil {
		t.Error("expected policy map to be initialized")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.SQLite.Path = "/var/lib/steward.db"
	cfg.Analytics.CacheTTL = time.Minute
	cfg.Scheduler.CleanupTasks = []string{"versions"}

	ApplyDefaults(cfg)

	if cfg.Storage.SQLite.Path != "/var/lib/steward.db" {
		t.Errorf("path overwritten: %q", cfg.Storage.SQLite.Path)
	}
	if cfg.Analytics.CacheTTL != time.Minute {
		t.Errorf("cache TTL overwritten: %v", cfg.Analytics.CacheTTL)
	}
	if len(cfg.Scheduler.CleanupTasks) != 1 {
		t.Errorf("cleanup tasks overwritten: %v", cfg.Scheduler.CleanupTasks)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	first := &Config{}
	ApplyDefaults(first)
	second := &Config{}
	ApplyDefaults(second)
	ApplyDefaults(second)

	if !reflect.DeepEqual(first, second) {
		t.Error("ApplyDefaults is not idempotent")
	}
}

func TestDefault_BooleanDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Storage.SQLite.WALMode != DefaultSQLiteWALMode {
		t.Errorf("WAL mode = %v, want %v", cfg.Storage.SQLite.WALMode, DefaultSQLiteWALMode)
	}
	if cfg.Telemetry.Metrics.Enabled != DefaultMetricsEnabled {
		t.Errorf("metrics enabled = %v, want %v", cfg.Telemetry.Metrics.Enabled, DefaultMetricsEnabled)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration is invalid: %v", err)
	}
}
