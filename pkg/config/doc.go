// Package config provides configuration management for Steward.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// by environment variables and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("steward.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("steward.yaml")
//
// Passing an empty path to LoadConfigWithEnvOverrides starts from defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention STEWARD_SECTION_FIELD:
//
//   - STEWARD_STORAGE_SQLITE_PATH overrides storage.sqlite.path
//   - STEWARD_SCHEDULER_ENABLED overrides scheduler.enabled
//   - STEWARD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Policy keys are overridden with STEWARD_POLICY_ followed by the dotted key
// in upper case with dots replaced by underscores:
//
//   - STEWARD_POLICY_AUDIT_TIMEOUT_HOURS overrides policy.audit.timeout_hours
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// Policy values are the exception to fail-fast validation. They are passed
// through untouched and interpreted by package policy, which substitutes
// the documented default for any malformed value and logs a warning.
//
// # Singleton Pattern
//
//	if err := config.Initialize("steward.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// ReloadConfig swaps the global configuration atomically and then runs the
// hooks registered with OnReload. A Watcher calls it when the file changes.
//
// # Example Configuration
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/steward.db"
//
//	policy:
//	  audit:
//	    auto_audit_enabled: true
//	    auto_approve_types: [update, content]
//	    timeout_hours: 72
//	  cleanup:
//	    version_retention_days: 30
//
//	scheduler:
//	  enabled: true
//	  cleanup_schedule: "0 3 * * *"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
