package orchestrator

import (
	"fmt"
	"time"

	"courseware-hq/steward/pkg/course"
)

// Mode selects whether a run mutates persisted state.
type Mode string

const (
	// ModeDryRun computes and reports intended actions without mutating.
	ModeDryRun Mode = "dry-run"

	// ModeCommit applies actions and flushes them once per task.
	ModeCommit Mode = "commit"
)

// ModeFor returns the mode for the dryRun flag.
func ModeFor(dryRun bool) Mode {
	if dryRun {
		return ModeDryRun
	}
	return ModeCommit
}

// Task names a unit of work inside a run.
type Task string

const (
	TaskAutoApprove  Task = "auto_approve"
	TaskTimeoutCheck Task = "timeout_check"
	TaskDecide       Task = "decide"

	TaskCleanupCache    Task = "cache"
	TaskCleanupVersions Task = "versions"
	TaskCleanupAudits   Task = "audits"
	TaskCleanupCourses  Task = "courses"
)

// CleanupTasks returns every cleanup task in execution order. Courses run
// last because removing a course also removes its audits and versions.
func CleanupTasks() []Task {
	return []Task{TaskCleanupCache, TaskCleanupVersions, TaskCleanupAudits, TaskCleanupCourses}
}

// ParseCleanupTasks validates task names and returns them in execution
// order without duplicates. An empty list selects every cleanup task.
func ParseCleanupTasks(names []string) ([]Task, error) {
	if len(names) == 0 {
		return CleanupTasks(), nil
	}

	selected := make(map[Task]bool, len(names))
	for _, name := range names {
		t := Task(name)
		switch t {
		case TaskCleanupCache, TaskCleanupVersions, TaskCleanupAudits, TaskCleanupCourses:
			selected[t] = true
		default:
			return nil, fmt.Errorf("unknown cleanup task %q (supported: cache, versions, audits, courses)", name)
		}
	}

	var tasks []Task
	for _, t := range CleanupTasks() {
		if selected[t] {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

// KindCache identifies cache entries in a report.
const KindCache course.Kind = "cache"

// Entry is one decision recorded during a run.
type Entry struct {
	Time     time.Time   `json:"time"`
	Task     Task        `json:"task"`
	Kind     course.Kind `json:"kind"`
	EntityID int64       `json:"entity_id"`
	Action   string      `json:"action"`
	Reason   string      `json:"reason,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Task outcomes, also used as metric labels.
const (
	OutcomeSuccess  = "success"
	OutcomePartial  = "partial"
	OutcomeDisabled = "disabled"
	OutcomeError    = "error"
)

// TaskResult summarizes one task.
type TaskResult struct {
	Task Task `json:"task"`

	// Processed counts candidates examined.
	Processed int `json:"processed"`

	// Skipped counts candidates that needed no action, or vanished before
	// they could be mutated.
	Skipped int `json:"skipped"`

	// Actions counts actions taken in commit mode, or that would be taken
	// in dry-run mode.
	Actions int `json:"actions"`

	// Failed counts per-item failures.
	Failed int `json:"failed"`

	// Disabled is set when a policy flag gated the whole task.
	Disabled       bool   `json:"disabled"`
	DisabledReason string `json:"disabled_reason,omitempty"`

	// Aborted is set when the task could not run at all, for example when
	// fetching candidates failed.
	Aborted bool `json:"aborted"`

	Errors   []string      `json:"errors,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Outcome classifies the result.
func (t *TaskResult) Outcome() string {
	switch {
	case t.Disabled:
		return OutcomeDisabled
	case t.Aborted:
		return OutcomeError
	case t.Failed > 0:
		return OutcomePartial
	default:
		return OutcomeSuccess
	}
}

// RunReport is the outcome of one orchestrator invocation. It is always
// returned, even when every task failed.
type RunReport struct {
	ID         string        `json:"id"`
	Mode       Mode          `json:"mode"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Tasks      []*TaskResult `json:"tasks"`
	Entries    []Entry       `json:"entries"`

	// PolicyWarnings lists policy values replaced by their defaults.
	PolicyWarnings []string `json:"policy_warnings,omitempty"`

	// Completed is set once every requested task has run.
	Completed bool `json:"completed"`
}

// DryRun reports whether the run was a dry run.
func (r *RunReport) DryRun() bool {
	return r.Mode == ModeDryRun
}

// Task returns the result for name, or nil.
func (r *RunReport) Task(name Task) *TaskResult {
	for _, t := range r.Tasks {
		if t.Task == name {
			return t
		}
	}
	return nil
}

// ActionCount sums actions across tasks.
func (r *RunReport) ActionCount() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.Actions
	}
	return n
}

// FailureCount sums per-item failures and aborted tasks.
func (r *RunReport) FailureCount() int {
	n := 0
	for _, t := range r.Tasks {
		n += t.Failed
		if t.Aborted {
			n++
		}
	}
	return n
}

// Duration returns the wall time of the run.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TaskError wraps a failure that stopped a task.
type TaskError struct {
	Task  Task
	Stage string
	Cause error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s: %s: %v", e.Task, e.Stage, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *TaskError) Unwrap() error {
	return e.Cause
}
