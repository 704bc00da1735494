package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"courseware-hq/steward/pkg/scoring"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "storage.sqlite.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// The policy section is not validated here: malformed policy values fall
// back to their defaults when the policy is loaded.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateScheduler(&cfg.Scheduler)...)
	errs = append(errs, validateAnalytics(&cfg.Analytics)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validateStorage validates storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"sqlite": true, "memory": true}
	if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	if cfg.Backend != "sqlite" {
		return errs
	}

	if cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.path",
			Message: "SQLite path is required when backend is 'sqlite'",
		})
	}
	validDrivers := map[string]bool{"sqlite3": true, "sqlite": true}
	if !validDrivers[cfg.SQLite.Driver] {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite3' or 'sqlite'", cfg.SQLite.Driver),
		})
	}
	if cfg.SQLite.MaxOpenConns <= 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_open_conns",
			Message: "max open connections must be positive",
		})
	}
	if cfg.SQLite.MaxIdleConns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.max_idle_conns",
			Message: "max idle connections must be non-negative",
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.sqlite.busy_timeout",
			Message: "busy timeout must be non-negative",
		})
	}

	return errs
}

// validateScheduler validates cron schedules and cleanup tasks.
func validateScheduler(cfg *SchedulerConfig) []FieldError {
	var errs []FieldError

	validTasks := map[string]bool{"cache": true, "versions": true, "audits": true, "courses": true}
	for i, task := range cfg.CleanupTasks {
		if !validTasks[task] {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("scheduler.cleanup_tasks[%d]", i),
				Message: fmt.Sprintf("invalid cleanup task %q: must be 'cache', 'versions', 'audits', or 'courses'", task),
			})
		}
	}

	if !cfg.Enabled {
		return errs
	}

	schedules := []struct {
		field string
		expr  string
	}{
		{"scheduler.auto_approve_schedule", cfg.AutoApproveSchedule},
		{"scheduler.timeout_check_schedule", cfg.TimeoutCheckSchedule},
		{"scheduler.cleanup_schedule", cfg.CleanupSchedule},
	}
	for _, s := range schedules {
		if s.expr == "" {
			continue
		}
		if _, err := cron.ParseStandard(s.expr); err != nil {
			errs = append(errs, FieldError{
				Field:   s.field,
				Message: fmt.Sprintf("invalid cron expression %q: %v", s.expr, err),
			})
		}
	}

	return errs
}

// validateAnalytics validates reporting configuration.
func validateAnalytics(cfg *AnalyticsConfig) []FieldError {
	var errs []FieldError

	if cfg.CacheTTL < 0 {
		errs = append(errs, FieldError{
			Field:   "analytics.cache_ttl",
			Message: "cache TTL must be non-negative",
		})
	}
	if cfg.CacheMaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "analytics.cache_max_entries",
			Message: "cache max entries must be non-negative",
		})
	}
	if _, err := scoring.ParseSortKey(cfg.DefaultSortKey); err != nil {
		errs = append(errs, FieldError{
			Field:   "analytics.default_sort_key",
			Message: err.Error(),
		})
	}
	if cfg.DefaultLimit <= 0 {
		errs = append(errs, FieldError{
			Field:   "analytics.default_limit",
			Message: "default limit must be positive",
		})
	}

	return errs
}

// validateServer validates HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be non-negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be non-negative",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be non-negative",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Path == "" || cfg.Metrics.Path[0] != '/' {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: "metrics path must start with /",
			})
		}
		for i, b := range cfg.Metrics.TaskDurationBuckets {
			if b <= 0 || (i > 0 && b <= cfg.Metrics.TaskDurationBuckets[i-1]) {
				errs = append(errs, FieldError{
					Field:   "telemetry.metrics.task_duration_buckets",
					Message: "buckets must be positive and strictly increasing",
				})
				break
			}
		}
	}

	if cfg.Health.LivenessPath != "" && cfg.Health.LivenessPath[0] != '/' {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.liveness_path",
			Message: "liveness path must start with /",
		})
	}
	if cfg.Health.ReadinessPath != "" && cfg.Health.ReadinessPath[0] != '/' {
		errs = append(errs, FieldError{
			Field:   "telemetry.health.readiness_path",
			Message: "readiness path must start with /",
		})
	}

	return errs
}
