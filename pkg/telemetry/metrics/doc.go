// Package metrics provides Prometheus metrics collection for Steward.
//
// # Metrics Categories
//
//   - Task Metrics: orchestrator task executions, actions, failures and durations
//   - Cache Metrics: analytics cache hits, misses, size and evictions
//   - Policy Metrics: policy values that fell back to their default
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	runner := orchestrator.NewRunner(store, src, orchestrator.WithRecorder(collector))
//	http.Handle("/metrics", collector.Handler())
//
// # Prometheus Endpoint
//
//	# HELP steward_lifecycle_task_runs_total Total number of orchestrator task executions
//	# TYPE steward_lifecycle_task_runs_total counter
//	steward_lifecycle_task_runs_total{mode="commit",outcome="success",task="auto_approve"} 12
//
// Label values are drawn from fixed sets (task names, modes, outcomes, cache
// names and policy keys), so cardinality is bounded.
package metrics
