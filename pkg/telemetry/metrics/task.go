package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"courseware-hq/steward/pkg/config"
)

// TaskMetrics tracks orchestrator task executions.
//
// Metrics:
//   - steward_lifecycle_task_runs_total: task executions by task, mode and outcome
//   - steward_lifecycle_task_actions_total: decided actions by task and mode
//   - steward_lifecycle_task_failures_total: per-item failures by task
//   - steward_lifecycle_task_duration_seconds: task wall time
//   - steward_lifecycle_last_run_timestamp_seconds: completion time of the last run by mode
type TaskMetrics struct {
	runsTotal     *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	lastRun       *prometheus.GaugeVec
}

// NewTaskMetrics creates and registers task metrics with the provided registry.
func NewTaskMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *TaskMetrics {
	tm := &TaskMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "task_runs_total",
				Help:      "Total number of orchestrator task executions",
			},
			[]string{"task", "mode", "outcome"},
		),

		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "task_actions_total",
				Help:      "Total number of actions decided by orchestrator tasks",
			},
			[]string{"task", "mode"},
		),

		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "task_failures_total",
				Help:      "Total number of per-item failures in orchestrator tasks",
			},
			[]string{"task"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "task_duration_seconds",
				Help:      "Duration of orchestrator tasks in seconds",
				Buckets:   cfg.TaskDurationBuckets,
			},
			[]string{"task"},
		),

		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "last_run_timestamp_seconds",
				Help:      "Unix time at which the last batch run finished",
			},
			[]string{"mode"},
		),
	}

	registry.MustRegister(
		tm.runsTotal,
		tm.actionsTotal,
		tm.failuresTotal,
		tm.duration,
		tm.lastRun,
	)

	return tm
}

// Record records one task execution.
func (tm *TaskMetrics) Record(task, mode, outcome string, actions, failures int, duration time.Duration) {
	tm.runsTotal.WithLabelValues(task, mode, outcome).Inc()
	if actions > 0 {
		tm.actionsTotal.WithLabelValues(task, mode).Add(float64(actions))
	}
	if failures > 0 {
		tm.failuresTotal.WithLabelValues(task).Add(float64(failures))
	}
	tm.duration.WithLabelValues(task).Observe(duration.Seconds())
}

// SetLastRun records when the last run in mode finished.
func (tm *TaskMetrics) SetLastRun(mode string, at time.Time) {
	tm.lastRun.WithLabelValues(mode).Set(float64(at.Unix()))
}
