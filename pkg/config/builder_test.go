package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg *Config
}

// NewTestConfig creates a builder backed by an in-memory store so the
// resulting configuration is valid without touching disk.
func NewTestConfig() *ConfigBuilder {
	cfg := Default()
	cfg.Storage.Backend = "memory"
	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return b.cfg
}

func (b *ConfigBuilder) WithSQLite(path string) *ConfigBuilder {
	b.cfg.Storage.Backend = "sqlite"
	b.cfg.Storage.SQLite.Path = path
	return b
}

func (b *ConfigBuilder) WithPolicy(key string, value any) *ConfigBuilder {
	b.cfg.SetPolicyValue(key, value)
	return b
}

func (b *ConfigBuilder) WithScheduler(autoApprove, timeout, cleanup string) *ConfigBuilder {
	b.cfg.Scheduler.Enabled = true
	b.cfg.Scheduler.AutoApproveSchedule = autoApprove
	b.cfg.Scheduler.TimeoutCheckSchedule = timeout
	b.cfg.Scheduler.CleanupSchedule = cleanup
	return b
}

func (b *ConfigBuilder) WithCacheTTL(ttl time.Duration) *ConfigBuilder {
	b.cfg.Analytics.CacheTTL = ttl
	return b
}
