package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/policy"
	"courseware-hq/steward/pkg/telemetry/logging"
)

// Recorder receives task metrics. *metrics.Collector implements it.
type Recorder interface {
	RecordTask(task, mode, outcome string, actions, failures int, duration time.Duration)
	RecordLastRun(mode string, at time.Time)
	RecordInvalidPolicyValue(key string)
}

// Cache is the result cache dropped by the cache cleanup task.
type Cache interface {
	// Len returns the number of cached entries.
	Len() int

	// Clear drops every entry and returns how many were dropped.
	Clear() int
}

// Runner drives the audit workflow and the retention specifications over
// candidates fetched from a Store. Runs are serialized: a second run waits
// for the first to finish.
type Runner struct {
	store    course.Store
	source   policy.Source
	cache    Cache
	recorder Recorder
	now      func() time.Time
	logger   *slog.Logger

	// runMu is held for a whole run.
	runMu   sync.Mutex
	lastRun atomic.Pointer[time.Time]
}

// Option configures a Runner.
type Option func(*Runner)

// WithCache sets the cache cleared by the cache cleanup task.
func WithCache(c Cache) Option {
	return func(r *Runner) { r.cache = c }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the base logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner over store. The policy is re-read from source
// at the start of every run.
func NewRunner(store course.Store, source policy.Source, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		source: source,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "orchestrator")
	return r
}

// LastRun returns when the last run finished, or the zero time. It never
// waits for a run in progress.
func (r *Runner) LastRun() time.Time {
	if t := r.lastRun.Load(); t != nil {
		return *t
	}
	return time.Time{}
}

// run holds the state of one invocation.
type run struct {
	r      *Runner
	ctx    context.Context
	report *RunReport
	policy policy.Policy
	logger *slog.Logger
}

// start serializes runs, resolves the policy and opens a report.
func (r *Runner) start(ctx context.Context, dryRun bool) *run {
	r.runMu.Lock()

	report := &RunReport{
		ID:        uuid.NewString(),
		Mode:      ModeFor(dryRun),
		StartedAt: r.now(),
	}
	ctx = logging.WithRunID(ctx, report.ID)
	logger := logging.FromContext(ctx, r.logger).With("mode", report.Mode)

	p := policy.LoadAndLog(r.source, logger)
	for _, w := range p.Warnings {
		report.PolicyWarnings = append(report.PolicyWarnings, w.Error())
		if r.recorder != nil {
			r.recorder.RecordInvalidPolicyValue(w.Key)
		}
	}

	logger.Info("run started")
	return &run{r: r, ctx: ctx, report: report, policy: p, logger: logger}
}

// finish closes the report and releases the run lock.
func (rn *run) finish() *RunReport {
	defer rn.r.runMu.Unlock()

	finished := rn.r.now()
	rn.report.FinishedAt = finished
	rn.r.lastRun.Store(&finished)
	if rn.r.recorder != nil {
		rn.r.recorder.RecordLastRun(string(rn.report.Mode), rn.report.FinishedAt)
	}

	rn.logger.Info("run finished",
		"completed", rn.report.Completed,
		"actions", rn.report.ActionCount(),
		"failures", rn.report.FailureCount(),
		"duration", rn.report.Duration(),
	)
	return rn.report
}

// cancelled reports whether the caller gave up before the next task.
// Tasks are never interrupted once started.
func (rn *run) cancelled() bool {
	if err := rn.ctx.Err(); err != nil {
		rn.logger.Warn("run cancelled before all tasks ran", "error", err)
		return true
	}
	return false
}

// taskRun accumulates the result of one task. In commit mode mutations are
// staged as they are decided and flushed once in close.
type taskRun struct {
	rn      *run
	result  *TaskResult
	logger  *slog.Logger
	started time.Time
	staged  int
}

func (rn *run) begin(task Task) *taskRun {
	result := &TaskResult{Task: task}
	rn.report.Tasks = append(rn.report.Tasks, result)
	logger := rn.logger.With("task", task)
	logger.Debug("task started")
	return &taskRun{rn: rn, result: result, logger: logger, started: rn.r.now()}
}

func (t *taskRun) commit() bool {
	return t.rn.report.Mode == ModeCommit
}

func (t *taskRun) ctx() context.Context {
	return logging.WithTask(t.rn.ctx, string(t.result.Task))
}

func (t *taskRun) record(kind course.Kind, id int64, action, reason string, err error) {
	e := Entry{
		Time:     t.rn.r.now(),
		Task:     t.result.Task,
		Kind:     kind,
		EntityID: id,
		Action:   action,
		Reason:   reason,
	}
	if err != nil {
		e.Error = err.Error()
	}
	t.rn.report.Entries = append(t.rn.report.Entries, e)
}

// disable marks the whole task as gated off by policy.
func (t *taskRun) disable(reason string) {
	t.result.Disabled = true
	t.result.DisabledReason = reason
	t.logger.Info("task disabled by policy", "reason", reason)
}

// abort marks the task as unable to run.
func (t *taskRun) abort(stage string, err error) {
	terr := &TaskError{Task: t.result.Task, Stage: stage, Cause: err}
	t.result.Aborted = true
	t.result.Errors = append(t.result.Errors, terr.Error())
	t.logger.Error("task aborted", "stage", stage, "error", err)
}

// skip records a candidate that needs no action.
func (t *taskRun) skip(e course.Entity, reason string) {
	t.result.Skipped++
	t.record(e.EntityKind(), e.EntityID(), "skip", reason, nil)
}

// fail records a per-item failure.
func (t *taskRun) fail(kind course.Kind, id int64, action string, err error) {
	t.result.Failed++
	t.result.Errors = append(t.result.Errors, err.Error())
	t.record(kind, id, action, "", err)
	t.logger.Error("action failed",
		"entity_kind", kind,
		"entity_id", id,
		"action", action,
		"error", err,
	)
}

// stageKind selects the persistence primitive for an action.
type stageKind int

const (
	stagePersist stageKind = iota
	stageRemove
)

// act records an action on e. In commit mode mutate is applied first (it
// may be nil) and then the entity is staged. A NotFound from staging means
// the entity vanished and is skipped; any other error is a failure.
func (t *taskRun) act(e course.Entity, action, reason string, mutate func() error, sk stageKind) {
	if !t.commit() {
		t.result.Actions++
		t.record(e.EntityKind(), e.EntityID(), action, reason, nil)
		return
	}

	if mutate != nil {
		if err := mutate(); err != nil {
			t.fail(e.EntityKind(), e.EntityID(), action, err)
			return
		}
	}

	var err error
	switch sk {
	case stagePersist:
		err = t.rn.r.store.Persist(t.ctx(), e)
	case stageRemove:
		err = t.rn.r.store.Remove(t.ctx(), e)
	}
	switch {
	case errors.Is(err, course.ErrNotFound):
		t.skip(e, "entity no longer exists")
		return
	case err != nil:
		t.fail(e.EntityKind(), e.EntityID(), action, err)
		return
	}

	t.staged++
	t.result.Actions++
	t.record(e.EntityKind(), e.EntityID(), action, reason, nil)
}

// close flushes staged mutations, once, and records metrics. A task that
// staged nothing performs no flush.
func (t *taskRun) close() {
	if t.commit() && t.staged > 0 {
		applied, err := t.rn.r.store.Flush(t.ctx())
		switch {
		case err != nil:
			// Nothing from this task was applied.
			t.rn.r.store.Discard()
			t.result.Actions -= t.staged
			t.result.Failed += t.staged
			t.result.Errors = append(t.result.Errors, (&TaskError{Task: t.result.Task, Stage: "flush", Cause: err}).Error())
			t.record("", 0, "flush", "", err)
			t.logger.Error("flush failed, task mutations discarded", "staged", t.staged, "error", err)
		case applied < t.staged:
			// Entities removed by someone else between staging and flushing.
			vanished := t.staged - applied
			t.result.Actions -= vanished
			t.result.Skipped += vanished
			t.logger.Warn("some staged entities vanished before flush", "staged", t.staged, "applied", applied)
		}
	}

	t.result.Duration = t.rn.r.now().Sub(t.started)
	if rec := t.rn.r.recorder; rec != nil {
		rec.RecordTask(string(t.result.Task), string(t.rn.report.Mode), t.result.Outcome(),
			t.result.Actions, t.result.Failed, t.result.Duration)
	}

	t.logger.Info("task finished",
		"outcome", t.result.Outcome(),
		"processed", t.result.Processed,
		"skipped", t.result.Skipped,
		"actions", t.result.Actions,
		"failed", t.result.Failed,
	)
}
