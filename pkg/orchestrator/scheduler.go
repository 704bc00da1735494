package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"courseware-hq/steward/pkg/config"
)

// Scheduler runs the orchestrator unattended on cron schedules. Schedules
// are fixed at Start; the dry-run flag and the cleanup task list are read
// from the configuration before every run so hot reloads apply.
type Scheduler struct {
	runner   *Runner
	settings func() config.SchedulerConfig
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a scheduler. settings is called at Start and before
// each job; it usually wraps config.GetConfig.
func NewScheduler(runner *Runner, settings func() config.SchedulerConfig) *Scheduler {
	return &Scheduler{
		runner:   runner,
		settings: settings,
		cron:     cron.New(),
		logger:   slog.Default().With("component", "orchestrator.scheduler"),
	}
}

type scheduledJob struct {
	name     string
	schedule string
	run      func(ctx context.Context, cfg config.SchedulerConfig) *RunReport
}

// Start registers a cron job for every non-empty schedule and starts the
// cron loop. With no schedule configured the scheduler stays idle. The
// scheduler stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg := s.settings()
	jobs := []scheduledJob{
		{"auto_approve", cfg.AutoApproveSchedule, s.autoApprove},
		{"timeout_check", cfg.TimeoutCheckSchedule, s.timeoutCheck},
		{"cleanup", cfg.CleanupSchedule, s.cleanup},
	}

	scheduled := 0
	for _, job := range jobs {
		if job.schedule == "" {
			s.logger.Info("schedule not configured, skipping job", "job", job.name)
			continue
		}
		if _, err := cron.ParseStandard(job.schedule); err != nil {
			return fmt.Errorf("invalid cron schedule %q for %s: %w", job.schedule, job.name, err)
		}
		if _, err := s.cron.AddFunc(job.schedule, func() {
			s.runJob(ctx, job)
		}); err != nil {
			return fmt.Errorf("failed to schedule %s: %w", job.name, err)
		}
		scheduled++
	}

	if scheduled == 0 {
		s.logger.Info("no schedules configured, scheduler idle")
		return nil
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started",
		"jobs", scheduled,
		"dry_run", cfg.DryRun,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runJob(ctx context.Context, job scheduledJob) *RunReport {
	s.logger.Info("starting scheduled run", "job", job.name)

	report := job.run(ctx, s.settings())
	if n := report.FailureCount(); n > 0 {
		s.logger.Error("scheduled run finished with failures",
			"job", job.name,
			"run_id", report.ID,
			"failures", n,
		)
		return report
	}
	s.logger.Info("scheduled run completed",
		"job", job.name,
		"run_id", report.ID,
		"actions", report.ActionCount(),
	)
	return report
}

func (s *Scheduler) autoApprove(ctx context.Context, cfg config.SchedulerConfig) *RunReport {
	return s.runner.RunAuditAutoApprove(ctx, cfg.DryRun)
}

func (s *Scheduler) timeoutCheck(ctx context.Context, cfg config.SchedulerConfig) *RunReport {
	return s.runner.RunAuditTimeoutCheck(ctx, cfg.DryRun)
}

func (s *Scheduler) cleanup(ctx context.Context, cfg config.SchedulerConfig) *RunReport {
	tasks, err := ParseCleanupTasks(cfg.CleanupTasks)
	if err != nil {
		s.logger.Warn("invalid cleanup tasks, running all", "error", err)
		tasks = CleanupTasks()
	}
	return s.runner.RunCleanup(ctx, CleanupOptions{Tasks: tasks, DryRun: cfg.DryRun})
}

// Stop stops the scheduler and waits for any running job to complete.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the earliest upcoming scheduled run.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *time.Time
	for _, e := range s.cron.Entries() {
		if e.Next.IsZero() {
			continue
		}
		if next == nil || e.Next.Before(*next) {
			t := e.Next
			next = &t
		}
	}
	return next
}

// LastRun returns when the runner last finished a run.
func (s *Scheduler) LastRun() time.Time {
	return s.runner.LastRun()
}
