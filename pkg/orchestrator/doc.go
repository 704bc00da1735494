// Package orchestrator runs the audit workflow and the retention
// specifications in batch.
//
// A Runner fetches candidates from a course.Store with a coarse Query,
// lets the pure deciders in pkg/audit and pkg/retention decide per entity,
// and accumulates every decision in a RunReport. The policy is re-read at
// the start of each run.
//
// # Modes
//
// In dry-run mode nothing is mutated; the report lists the actions that
// would be taken. In commit mode actions are staged with Persist or Remove
// and flushed once at the end of each task. A task that decides nothing
// performs no flush.
//
// # Failure isolation
//
// Per-item failures are counted and recorded; they never stop the batch.
// A task whose candidate fetch fails is marked aborted and the next task
// still runs. No error escapes a task boundary; callers inspect the
// report:
//
//	report := runner.RunCleanup(ctx, orchestrator.CleanupOptions{DryRun: true})
//	if report.FailureCount() > 0 {
//	    // decide the exit status
//	}
//
// # Scheduling
//
// Scheduler drives the runner from cron expressions in the scheduler
// section of the configuration.
package orchestrator
