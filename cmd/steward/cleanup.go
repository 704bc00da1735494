package main

import (
	"github.com/spf13/cobra"

	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/orchestrator"
)

var cleanupFlags struct {
	tasks         []string
	retentionDays int
	dryRun        bool
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge stale versions, audit records and abandoned courses",
	Long: `Apply the retention policy. Tasks always run in the order cache,
versions, audits, courses, and a failing task never stops the ones after it.
Course removal additionally requires cleanup.auto_cleanup_expired.

The cache task clears the in-process report cache of a running
"steward serve", so a standalone cleanup skips it unless --tasks names it.

Examples:
  # Preview everything
  steward cleanup --dry-run

  # Purge versions and audits older than 90 days
  steward cleanup --tasks versions,audits --retention-days 90`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringSliceVar(&cleanupFlags.tasks, "tasks", nil, "tasks to run (cache, versions, audits, courses); default versions, audits, courses")
	cleanupCmd.Flags().IntVar(&cleanupFlags.retentionDays, "retention-days", -1, "override version and audit retention for this run")
	cleanupCmd.Flags().BoolVar(&cleanupFlags.dryRun, "dry-run", false, "report intended removals without changing anything")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	tasks, err := orchestrator.ParseCleanupTasks(cleanupFlags.tasks)
	if err != nil {
		return cli.NewConfigError("tasks", err.Error())
	}
	if len(cleanupFlags.tasks) == 0 {
		tasks = storedDataTasks(tasks)
	}

	opts := orchestrator.CleanupOptions{Tasks: tasks, DryRun: cleanupFlags.dryRun}
	if cmd.Flags().Changed("retention-days") {
		if cleanupFlags.retentionDays < 0 {
			return cli.NewConfigError("retention-days", "must not be negative")
		}
		opts.RetentionDays = &cleanupFlags.retentionDays
	}

	env, err := openEnvironment(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	svc := newAnalytics(env.cfg, env.store, nil)
	runner := env.newRunner(orchestrator.WithCache(svc.Cache()))
	return env.finishRun(runner.RunCleanup(cmd.Context(), opts))
}

// storedDataTasks drops the cache task, which has nothing to clear outside
// of serve.
func storedDataTasks(tasks []orchestrator.Task) []orchestrator.Task {
	out := make([]orchestrator.Task, 0, len(tasks))
	for _, t := range tasks {
		if t != orchestrator.TaskCleanupCache {
			out = append(out, t)
		}
	}
	return out
}
