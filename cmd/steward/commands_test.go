package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/cli"
	"courseware-hq/steward/pkg/config"
	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/course/storage"
	"courseware-hq/steward/pkg/orchestrator"
)

func f64(v float64) *float64 { return &v }

// seedDatabase creates a SQLite database with one complete course, one
// abandoned course, a pending update audit and an old approved audit. It
// returns the configuration and the ID of the pending audit.
func seedDatabase(t *testing.T) (*config.Config, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "steward.db")
	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{Path: path, Driver: storage.DriverPureGo})
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	now := time.Now()
	courses := []*course.Course{
		{
			Valid: true, Title: "Concurrency in Go", Description: "goroutines", Cover: "cover.png",
			LearnHour: f64(6), Price: f64(49), CreatedAt: now.AddDate(0, 0, -90),
			Content: course.ContentBreakdown{Chapters: 2, Lessons: 3, PublishedOutlines: 1},
		},
		{Valid: false, Title: "Abandoned", CreatedAt: now.AddDate(0, 0, -30)},
	}
	for _, c := range courses {
		if err := store.InsertCourse(ctx, c); err != nil {
			t.Fatalf("InsertCourse() failed: %v", err)
		}
	}
	audits := []*course.AuditRecord{
		{CourseID: courses[0].ID, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: now.Add(-time.Hour)},
		{CourseID: courses[0].ID, Status: course.AuditApproved, Type: course.AuditTypeContent, CreatedAt: now.AddDate(0, 0, -60)},
	}
	for _, a := range audits {
		if err := store.InsertAudit(ctx, a); err != nil {
			t.Fatalf("InsertAudit() failed: %v", err)
		}
	}

	cfg := config.Default()
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.SQLite.Path = path
	cfg.Storage.SQLite.Driver = storage.DriverPureGo
	return cfg, strconv.FormatInt(audits[0].ID, 10)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the CLI against cfg and returns stdout.
func execute(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()

	// Consume the one-time initialization so SetConfig stays in effect.
	_ = config.Initialize("")
	config.SetConfig(cfg)
	t.Cleanup(func() { config.SetConfig(nil) })

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(append([]string{"--env-file", "", "--config", ""}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func decodeReport(t *testing.T, out string) *orchestrator.RunReport {
	t.Helper()
	var report orchestrator.RunReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON report: %v\n%s", err, out)
	}
	return &report
}

func TestAuditAutoApprove_DryRunThenCommit(t *testing.T) {
	cfg, _ := seedDatabase(t)
	cfg.SetPolicyValue("audit.auto_audit_enabled", true)

	out, err := execute(t, cfg, "audit", "auto-approve", "--dry-run", "--format", "json")
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	report := decodeReport(t, out)
	if !report.DryRun() || report.ActionCount() != 1 {
		t.Fatalf("dry run report = %+v", report.Tasks[0])
	}

	out, err = execute(t, cfg, "audit", "auto-approve", "--format", "json")
	if err != nil {
		t.Fatalf("commit run failed: %v", err)
	}
	if got := decodeReport(t, out).ActionCount(); got != 1 {
		t.Errorf("commit actions = %d, want 1", got)
	}

	out, err = execute(t, cfg, "audit", "auto-approve", "--format", "json")
	if err != nil {
		t.Fatalf("second commit run failed: %v", err)
	}
	if got := decodeReport(t, out).ActionCount(); got != 0 {
		t.Errorf("second run actions = %d, want 0", got)
	}
}

func TestAuditDecide(t *testing.T) {
	cfg, pendingID := seedDatabase(t)

	_, err := execute(t, cfg, "audit", "decide", "--id", pendingID, "--action", "reject", "--actor", "alice")
	var cfgErr *cli.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("reject without reason: err = %v, want ConfigError", err)
	}
	if cli.ExitCode(err) != cli.ExitUsageError {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitUsageError)
	}

	out, err := execute(t, cfg, "audit", "decide", "--id", pendingID, "--action", "reject", "--actor", "alice", "--reason", "no outline", "--format", "json")
	if err != nil {
		t.Fatalf("decide failed: %v", err)
	}
	if got := decodeReport(t, out).ActionCount(); got != 1 {
		t.Errorf("actions = %d, want 1", got)
	}

	// The record is no longer pending, so a second decision fails the run.
	_, err = execute(t, cfg, "audit", "decide", "--id", pendingID, "--action", "approve", "--actor", "alice", "--format", "json")
	var runErr *cli.RunFailedError
	if !errors.As(err, &runErr) {
		t.Fatalf("second decision: err = %v, want RunFailedError", err)
	}
	if cli.ExitCode(err) != cli.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", cli.ExitCode(err), cli.ExitFailure)
	}
}

func TestCleanup(t *testing.T) {
	cfg, _ := seedDatabase(t)

	out, err := execute(t, cfg, "cleanup", "--tasks", "audits,courses", "--dry-run", "--format", "json")
	if err != nil {
		t.Fatalf("cleanup dry run failed: %v", err)
	}
	report := decodeReport(t, out)
	if got := report.Task(orchestrator.TaskCleanupAudits); got == nil || got.Actions != 1 {
		t.Errorf("audits task = %+v, want 1 action", got)
	}
	if got := report.Task(orchestrator.TaskCleanupCourses); got == nil || !got.Disabled {
		t.Errorf("courses task = %+v, want disabled by policy", got)
	}
	if report.Task(orchestrator.TaskCleanupVersions) != nil {
		t.Error("versions task ran although it was not selected")
	}

	out, err = execute(t, cfg, "cleanup", "--tasks", "audits", "--retention-days", "90", "--format", "json")
	if err != nil {
		t.Fatalf("cleanup with retention override failed: %v", err)
	}
	if got := decodeReport(t, out).ActionCount(); got != 0 {
		t.Errorf("actions with 90 day retention = %d, want 0", got)
	}

	out, err = execute(t, cfg, "cleanup", "--dry-run", "--format", "json")
	if err != nil {
		t.Fatalf("default cleanup failed: %v", err)
	}
	report = decodeReport(t, out)
	if report.Task(orchestrator.TaskCleanupCache) != nil {
		t.Error("default cleanup ran the cache task outside of serve")
	}
	if len(report.Tasks) != 3 {
		t.Errorf("default cleanup ran %d tasks, want 3", len(report.Tasks))
	}

	if _, err := execute(t, cfg, "cleanup", "--tasks", "logs"); cli.ExitCode(err) != cli.ExitUsageError {
		t.Errorf("unknown task: err = %v, want usage error", err)
	}
}

func TestReportAndRank(t *testing.T) {
	cfg, _ := seedDatabase(t)

	out, err := execute(t, cfg, "report", "1", "--format", "json")
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	var report analytics.CourseReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Scorecard.Completeness.Percentage != 80 {
		t.Errorf("completeness = %v, want 80", report.Scorecard.Completeness.Percentage)
	}

	if _, err := execute(t, cfg, "report", "99"); err == nil {
		t.Error("report for unknown course succeeded")
	}
	if _, err := execute(t, cfg, "report", "abc"); cli.ExitCode(err) != cli.ExitUsageError {
		t.Errorf("bad course ID: err = %v, want usage error", err)
	}

	out, err = execute(t, cfg, "rank", "--sort", "quality", "--format", "csv")
	if err != nil {
		t.Fatalf("rank failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "1,1,") {
		t.Errorf("rank csv = %q, want header plus course 1", out)
	}

	if _, err := execute(t, cfg, "rank", "--sort", "price"); cli.ExitCode(err) != cli.ExitUsageError {
		t.Errorf("unknown sort key: err = %v, want usage error", err)
	}
}
