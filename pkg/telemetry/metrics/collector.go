package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"courseware-hq/steward/pkg/config"
)

// Collector owns every Prometheus metric Steward exports. It satisfies the
// recorder interfaces of the orchestrator and the analytics cache, so one
// instance is shared across the process.
//
// When metrics are disabled in configuration every Record method is a no-op.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	taskMetrics   *TaskMetrics
	cacheMetrics  *CacheMetrics
	policyMetrics *PolicyMetrics
}

// NewCollector creates a collector registered against registry. A nil
// registry gets a fresh one.
//
//	cfg := &config.MetricsConfig{Enabled: true}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: config.DefaultMetricsEnabled}
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.TaskDurationBuckets) == 0 {
		cfg.TaskDurationBuckets = config.DefaultTaskDurationBuckets()
	}

	return &Collector{
		config:        cfg,
		registry:      registry,
		taskMetrics:   NewTaskMetrics(cfg, registry),
		cacheMetrics:  NewCacheMetrics(cfg, registry),
		policyMetrics: NewPolicyMetrics(cfg, registry),
	}
}

// RecordTask records one finished orchestrator task.
//
// Parameters:
//   - task: task name (e.g., "auto_approve", "versions")
//   - mode: "dry-run" or "commit"
//   - outcome: "success", "partial", "disabled" or "error"
//   - actions: number of state-changing actions decided
//   - failures: number of per-item failures
//   - duration: wall time spent in the task
func (c *Collector) RecordTask(task, mode, outcome string, actions, failures int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.taskMetrics.Record(task, mode, outcome, actions, failures, duration)
}

// RecordLastRun stores the completion time of a run started in mode.
func (c *Collector) RecordLastRun(mode string, at time.Time) {
	if !c.config.Enabled {
		return
	}

	c.taskMetrics.SetLastRun(mode, at)
}

// RecordInvalidPolicyValue counts a policy value that fell back to its default.
func (c *Collector) RecordInvalidPolicyValue(key string) {
	if !c.config.Enabled {
		return
	}

	c.policyMetrics.RecordInvalidValue(key)
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordMiss(cacheName)
}

// RecordCacheEviction records entries dropped from a cache.
func (c *Collector) RecordCacheEviction(cacheName string, n int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordEvictions(cacheName, n)
}

// UpdateCacheSize updates the current size of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateSize(cacheName, size)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
