package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"courseware-hq/steward/pkg/policy"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "STEWARD_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	// Decode on top of defaults so absent booleans keep their default
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention STEWARD_SECTION_FIELD (e.g., STEWARD_STORAGE_SQLITE_PATH).
// Environment variables always take precedence over file-based configuration.
//
// An empty path skips the file and starts from defaults.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format STEWARD_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Storage overrides
	if val := os.Getenv("STEWARD_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("STEWARD_STORAGE_SQLITE_PATH"); val != "" {
		cfg.Storage.SQLite.Path = val
	}
	if val := os.Getenv("STEWARD_STORAGE_SQLITE_DRIVER"); val != "" {
		cfg.Storage.SQLite.Driver = val
	}
	if val := os.Getenv("STEWARD_STORAGE_SQLITE_BUSY_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Storage.SQLite.BusyTimeout = d
		}
	}

	// Scheduler overrides
	if val := os.Getenv("STEWARD_SCHEDULER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Scheduler.Enabled = b
		}
	}
	if val := os.Getenv("STEWARD_SCHEDULER_AUTO_APPROVE_SCHEDULE"); val != "" {
		cfg.Scheduler.AutoApproveSchedule = val
	}
	if val := os.Getenv("STEWARD_SCHEDULER_TIMEOUT_CHECK_SCHEDULE"); val != "" {
		cfg.Scheduler.TimeoutCheckSchedule = val
	}
	if val := os.Getenv("STEWARD_SCHEDULER_CLEANUP_SCHEDULE"); val != "" {
		cfg.Scheduler.CleanupSchedule = val
	}
	if val := os.Getenv("STEWARD_SCHEDULER_CLEANUP_TASKS"); val != "" {
		cfg.Scheduler.CleanupTasks = splitList(val)
	}
	if val := os.Getenv("STEWARD_SCHEDULER_DRY_RUN"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Scheduler.DryRun = b
		}
	}

	// Analytics overrides
	if val := os.Getenv("STEWARD_ANALYTICS_CACHE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Analytics.CacheTTL = d
		}
	}
	if val := os.Getenv("STEWARD_ANALYTICS_DEFAULT_SORT_KEY"); val != "" {
		cfg.Analytics.DefaultSortKey = val
	}
	if val := os.Getenv("STEWARD_ANALYTICS_DEFAULT_LIMIT"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Analytics.DefaultLimit = i
		}
	}

	// Server overrides
	if val := os.Getenv("STEWARD_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}

	// Watch overrides
	if val := os.Getenv("STEWARD_WATCH_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Watch.Enabled = b
		}
	}

	// Telemetry overrides
	if val := os.Getenv("STEWARD_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("STEWARD_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("STEWARD_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("STEWARD_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}

	applyPolicyEnvOverrides(cfg)
}

// applyPolicyEnvOverrides maps STEWARD_POLICY_<KEY> onto policy keys, where
// KEY is the dotted policy key upper-cased with dots replaced by underscores
// (STEWARD_POLICY_AUDIT_TIMEOUT_HOURS sets audit.timeout_hours). Values are
// stored as strings and parsed by the policy loader.
func applyPolicyEnvOverrides(cfg *Config) {
	for _, key := range policy.Keys() {
		name := EnvPrefix + "POLICY_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if val, ok := os.LookupEnv(name); ok && val != "" {
			cfg.SetPolicyValue(key, val)
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
