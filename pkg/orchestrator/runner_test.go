package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"courseware-hq/steward/pkg/audit"
	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/course/storage"
	"courseware-hq/steward/pkg/policy"
)

var testNow = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func f64(v float64) *float64 { return &v }

func readyCourse(id int64) *course.Course {
	return &course.Course{
		ID:          id,
		Valid:       true,
		Title:       "Concurrency in Go",
		Description: "goroutines and channels",
		Cover:       "cover.png",
		LearnHour:   f64(6),
		Price:       f64(49.0),
		Content:     course.ContentBreakdown{Chapters: 2, Lessons: 3, PublishedOutlines: 1},
		CreatedAt:   daysAgo(90),
	}
}

func newTestRunner(store course.Store, values map[string]any, opts ...Option) *Runner {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return NewRunner(store, policy.MapSource(values), append(base, opts...)...)
}

type fakeCache struct{ n int }

func (c *fakeCache) Len() int { return c.n }

func (c *fakeCache) Clear() int {
	n := c.n
	c.n = 0
	return n
}

type fakeRecorder struct {
	mu       sync.Mutex
	tasks    map[string]string
	lastRuns int
	invalid  []string
}

func (r *fakeRecorder) RecordTask(task, mode, outcome string, actions, failures int, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks == nil {
		r.tasks = make(map[string]string)
	}
	r.tasks[task] = outcome
}

func (r *fakeRecorder) RecordLastRun(mode string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRuns++
}

func (r *fakeRecorder) RecordInvalidPolicyValue(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalid = append(r.invalid, key)
}

// faultyStore injects failures into a memory store.
type faultyStore struct {
	*storage.MemoryStorage

	failFindVersions bool
	failPersistID    int64
	vanishID         int64
	failFlush        bool
	findCourseCalls  int
}

func (s *faultyStore) FindVersions(ctx context.Context, q *course.Query) ([]*course.CourseVersion, error) {
	if s.failFindVersions {
		return nil, errors.New("versions table unavailable")
	}
	return s.MemoryStorage.FindVersions(ctx, q)
}

func (s *faultyStore) FindCourses(ctx context.Context, q *course.Query) ([]*course.Course, error) {
	s.findCourseCalls++
	return s.MemoryStorage.FindCourses(ctx, q)
}

func (s *faultyStore) Persist(ctx context.Context, e course.Entity) error {
	switch e.EntityID() {
	case s.failPersistID:
		return course.NewStorageError("faulty", "persist", errors.New("disk full"))
	case s.vanishID:
		return course.NewNotFoundError(e.EntityKind(), e.EntityID())
	}
	return s.MemoryStorage.Persist(ctx, e)
}

func (s *faultyStore) Flush(ctx context.Context) (int, error) {
	if s.failFlush {
		s.MemoryStorage.Discard()
		return 0, errors.New("database is locked")
	}
	return s.MemoryStorage.Flush(ctx)
}

func seedAudits() *storage.MemoryStorage {
	s := storage.NewMemoryStorage()
	s.AddCourse(readyCourse(1))
	s.AddAudit(&course.AuditRecord{ID: 10, CourseID: 1, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: testNow.Add(-time.Hour)})
	s.AddAudit(&course.AuditRecord{ID: 11, CourseID: 1, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: testNow.Add(-2 * time.Hour)})
	return s
}

func seedCleanup() *storage.MemoryStorage {
	s := storage.NewMemoryStorage()
	s.AddCourse(readyCourse(1))
	s.AddCourse(&course.Course{ID: 2, Valid: false, Title: "Abandoned", CreatedAt: daysAgo(10)})
	s.AddCourse(&course.Course{ID: 3, Valid: false, Title: "Bookmarked", CollectCount: 1, CreatedAt: daysAgo(10)})

	s.AddVersion(&course.CourseVersion{ID: 20, CourseID: 1, Label: "v1", Status: course.VersionDraft, CreatedAt: daysAgo(45)})
	s.AddVersion(&course.CourseVersion{ID: 21, CourseID: 1, Label: "v2", Status: course.VersionPublished, IsCurrent: true, CreatedAt: daysAgo(45)})
	s.AddVersion(&course.CourseVersion{ID: 22, CourseID: 1, Label: "v3", Status: course.VersionArchived, CreatedAt: daysAgo(2)})

	s.AddAudit(&course.AuditRecord{ID: 30, CourseID: 1, Status: course.AuditApproved, Type: course.AuditTypeContent, CreatedAt: daysAgo(40)})
	s.AddAudit(&course.AuditRecord{ID: 31, CourseID: 1, Status: course.AuditPending, Type: course.AuditTypeFinal, CreatedAt: daysAgo(400)})
	s.AddAudit(&course.AuditRecord{ID: 32, CourseID: 1, Status: course.AuditRejected, Type: course.AuditTypeQuality, CreatedAt: daysAgo(5)})
	return s
}

func auditStatus(t *testing.T, s *storage.MemoryStorage, id int64) *course.AuditRecord {
	t.Helper()
	a, err := s.GetAudit(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAudit(%d) failed: %v", id, err)
	}
	return a
}

// TestRunAuditAutoApprove_EligibleUpdate checks that an eligible update audit is
// approved by the system auditor and that a second run finds nothing to do.
func TestRunAuditAutoApprove_EligibleUpdate(t *testing.T) {
	store := seedAudits()
	r := newTestRunner(store, map[string]any{policy.KeyAutoAuditEnabled: true})

	report := r.RunAuditAutoApprove(context.Background(), false)

	if !report.Completed || report.Mode != ModeCommit {
		t.Errorf("Completed=%v Mode=%s", report.Completed, report.Mode)
	}
	task := report.Task(TaskAutoApprove)
	if task == nil {
		t.Fatal("auto_approve task missing from report")
	}
	if task.Processed != 2 || task.Actions != 2 || task.Failed != 0 {
		t.Errorf("task = %+v, want 2 processed, 2 actions", task)
	}

	for _, id := range []int64{10, 11} {
		a := auditStatus(t, store, id)
		if a.Status != course.AuditApproved {
			t.Errorf("audit %d status = %s, want approved", id, a.Status)
		}
		if a.AuditorName() != policy.DefaultSystemAuditor {
			t.Errorf("audit %d auditor = %q, want system", id, a.AuditorName())
		}
		if a.DecidedAt == nil || !a.DecidedAt.Equal(testNow) {
			t.Errorf("audit %d DecidedAt = %v", id, a.DecidedAt)
		}
	}
	if store.FlushCount() != 1 {
		t.Errorf("FlushCount() = %d, want 1", store.FlushCount())
	}

	again := r.RunAuditAutoApprove(context.Background(), false)
	if again.ActionCount() != 0 {
		t.Errorf("second run ActionCount() = %d, want 0", again.ActionCount())
	}
	if store.FlushCount() != 1 {
		t.Errorf("second run flushed with nothing staged")
	}
}

func TestRunAuditAutoApprove_Disabled(t *testing.T) {
	store := seedAudits()
	r := newTestRunner(store, nil)

	report := r.RunAuditAutoApprove(context.Background(), false)

	task := report.Task(TaskAutoApprove)
	if !task.Disabled || task.Outcome() != OutcomeDisabled {
		t.Errorf("task = %+v, want disabled", task)
	}
	if task.Processed != 0 || task.Actions != 0 {
		t.Errorf("disabled task counted work: %+v", task)
	}
	if a := auditStatus(t, store, 10); a.Status != course.AuditPending {
		t.Errorf("status = %s, want pending", a.Status)
	}
}

func TestRunAuditAutoApprove_SkipReasons(t *testing.T) {
	store := storage.NewMemoryStorage()
	c := readyCourse(1)
	c.Cover = ""
	store.AddCourse(c)
	store.AddAudit(&course.AuditRecord{ID: 10, CourseID: 1, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: testNow})
	store.AddAudit(&course.AuditRecord{ID: 11, CourseID: 99, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: testNow})

	r := newTestRunner(store, map[string]any{policy.KeyAutoAuditEnabled: "true"})
	report := r.RunAuditAutoApprove(context.Background(), false)

	task := report.Task(TaskAutoApprove)
	if task.Skipped != 2 || task.Actions != 0 {
		t.Errorf("task = %+v, want 2 skipped", task)
	}

	reasons := map[int64]string{}
	for _, e := range report.Entries {
		reasons[e.EntityID] = e.Reason
	}
	if reasons[10] != "missing cover" {
		t.Errorf("reason for 10 = %q", reasons[10])
	}
	if reasons[11] != "course not found" {
		t.Errorf("reason for 11 = %q", reasons[11])
	}
	if store.FlushCount() != 0 {
		t.Error("flush performed with nothing staged")
	}
}

// TestRunAuditTimeoutCheck_ReassignsOverdue checks that without auto-reject an
// overdue record stays pending with its auditor cleared.
func TestRunAuditTimeoutCheck_ReassignsOverdue(t *testing.T) {
	store := storage.NewMemoryStorage()
	who := "dana"
	store.AddAudit(&course.AuditRecord{ID: 1, CourseID: 1, Status: course.AuditPending, Auditor: &who, CreatedAt: testNow.Add(-100 * time.Hour)})
	store.AddAudit(&course.AuditRecord{ID: 2, CourseID: 1, Status: course.AuditPending, CreatedAt: testNow.Add(-time.Hour)})

	r := newTestRunner(store, map[string]any{policy.KeyTimeoutHours: 72})
	report := r.RunAuditTimeoutCheck(context.Background(), false)

	task := report.Task(TaskTimeoutCheck)
	if task.Processed != 1 || task.Actions != 1 {
		t.Errorf("task = %+v, want 1 processed, 1 action", task)
	}
	if len(report.Entries) != 1 || report.Entries[0].Action != string(audit.ActionReassign) {
		t.Errorf("entries = %+v, want one reassign", report.Entries)
	}

	a := auditStatus(t, store, 1)
	if a.Status != course.AuditPending {
		t.Errorf("status = %s, want pending", a.Status)
	}
	if a.Auditor != nil {
		t.Errorf("auditor = %q, want cleared", *a.Auditor)
	}
	if fresh := auditStatus(t, store, 2); fresh.Comment != "" {
		t.Errorf("fresh record touched: %+v", fresh)
	}
}

func TestRunAuditTimeoutCheck_AutoReject(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.AddAudit(&course.AuditRecord{ID: 1, CourseID: 1, Status: course.AuditPending, CreatedAt: testNow.Add(-100 * time.Hour)})

	r := newTestRunner(store, map[string]any{policy.KeyAutoRejectOnTimeout: "true"})
	report := r.RunAuditTimeoutCheck(context.Background(), false)

	if report.Entries[0].Action != string(audit.ActionReject) {
		t.Errorf("action = %s, want reject", report.Entries[0].Action)
	}
	a := auditStatus(t, store, 1)
	if a.Status != course.AuditRejected || a.Comment != audit.TimeoutRejectReason {
		t.Errorf("record = %+v, want rejected with timeout reason", a)
	}
}

func TestRunAuditTimeoutCheck_OversizedTimeoutFallsBack(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.AddAudit(&course.AuditRecord{ID: 1, CourseID: 1, Status: course.AuditPending, CreatedAt: testNow.Add(-time.Minute)})

	r := newTestRunner(store, map[string]any{
		policy.KeyTimeoutHours:        3000000,
		policy.KeyAutoRejectOnTimeout: true,
	})
	report := r.RunAuditTimeoutCheck(context.Background(), false)

	if got := report.ActionCount(); got != 0 {
		t.Errorf("actions = %d, want 0", got)
	}
	if len(report.PolicyWarnings) != 1 || !strings.Contains(report.PolicyWarnings[0], policy.KeyTimeoutHours) {
		t.Errorf("policy warnings = %v, want one for %s", report.PolicyWarnings, policy.KeyTimeoutHours)
	}
	if a := auditStatus(t, store, 1); a.Status != course.AuditPending {
		t.Errorf("status = %s, want pending", a.Status)
	}
}

func TestRunCleanup_Commit(t *testing.T) {
	store := seedCleanup()
	cache := &fakeCache{n: 3}
	r := newTestRunner(store, map[string]any{policy.KeyAutoCleanupExpired: true}, WithCache(cache))

	report := r.RunCleanup(context.Background(), CleanupOptions{})

	if !report.Completed {
		t.Fatal("report not completed")
	}
	if got := len(report.Tasks); got != 4 {
		t.Fatalf("len(Tasks) = %d, want 4", got)
	}
	for i, want := range CleanupTasks() {
		if report.Tasks[i].Task != want {
			t.Errorf("Tasks[%d] = %s, want %s", i, report.Tasks[i].Task, want)
		}
	}

	tests := []struct {
		task      Task
		processed int
		actions   int
		skipped   int
	}{
		{TaskCleanupCache, 3, 3, 0},
		{TaskCleanupVersions, 2, 1, 1},
		{TaskCleanupAudits, 2, 1, 1},
		{TaskCleanupCourses, 2, 1, 1},
	}
	for _, tt := range tests {
		got := report.Task(tt.task)
		if got.Processed != tt.processed || got.Actions != tt.actions || got.Skipped != tt.skipped {
			t.Errorf("%s = %+v, want processed=%d actions=%d skipped=%d",
				tt.task, got, tt.processed, tt.actions, tt.skipped)
		}
	}

	ctx := context.Background()
	if _, err := store.GetVersion(ctx, 20); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("draft version 20 not removed: %v", err)
	}
	if _, err := store.GetVersion(ctx, 21); err != nil {
		t.Errorf("current version 21 removed: %v", err)
	}
	if _, err := store.GetAudit(ctx, 31); err != nil {
		t.Errorf("pending audit 31 removed: %v", err)
	}
	if _, err := store.GetCourse(ctx, 2); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("abandoned course 2 not removed: %v", err)
	}
	if _, err := store.GetCourse(ctx, 3); err != nil {
		t.Errorf("engaged course 3 removed: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("cache not cleared")
	}

	again := r.RunCleanup(ctx, CleanupOptions{})
	if again.ActionCount() != 0 {
		t.Errorf("second run ActionCount() = %d, want 0", again.ActionCount())
	}
}

func TestRunCleanup_DryRunParity(t *testing.T) {
	values := map[string]any{policy.KeyAutoCleanupExpired: true}
	dryStore := seedCleanup()
	commitStore := seedCleanup()

	dry := newTestRunner(dryStore, values, WithCache(&fakeCache{n: 2})).
		RunCleanup(context.Background(), CleanupOptions{DryRun: true})
	committed := newTestRunner(commitStore, values, WithCache(&fakeCache{n: 2})).
		RunCleanup(context.Background(), CleanupOptions{})

	if !dry.DryRun() || committed.DryRun() {
		t.Fatalf("modes = %s / %s", dry.Mode, committed.Mode)
	}
	for _, task := range CleanupTasks() {
		if d, c := dry.Task(task).Actions, committed.Task(task).Actions; d != c {
			t.Errorf("%s: dry-run actions %d, commit actions %d", task, d, c)
		}
	}
	if len(dry.Entries) != len(committed.Entries) {
		t.Fatalf("entries: dry-run %d, commit %d", len(dry.Entries), len(committed.Entries))
	}
	for i := range dry.Entries {
		d, c := dry.Entries[i], committed.Entries[i]
		if d.EntityID != c.EntityID || d.Action != c.Action || d.Reason != c.Reason {
			t.Errorf("entry %d: dry-run %+v, commit %+v", i, d, c)
		}
	}

	if dryStore.FlushCount() != 0 || dryStore.Staged() != 0 {
		t.Errorf("dry run mutated store: flushes=%d staged=%d", dryStore.FlushCount(), dryStore.Staged())
	}
	if _, err := dryStore.GetVersion(context.Background(), 20); err != nil {
		t.Errorf("dry run removed version 20: %v", err)
	}
}

func TestRunCleanup_KeepsCoursesUnderReview(t *testing.T) {
	store := storage.NewMemoryStorage()
	store.AddCourse(&course.Course{ID: 7, Valid: false, Title: "Draft", CreatedAt: daysAgo(30)})
	store.AddAudit(&course.AuditRecord{ID: 70, CourseID: 7, Status: course.AuditPending, Type: course.AuditTypeFinal, CreatedAt: daysAgo(1)})
	values := map[string]any{policy.KeyAutoCleanupExpired: true}

	for _, dryRun := range []bool{true, false} {
		report := newTestRunner(store, values).RunCleanup(context.Background(), CleanupOptions{
			DryRun: dryRun,
			Tasks:  []Task{TaskCleanupCourses},
		})

		task := report.Task(TaskCleanupCourses)
		if task.Processed != 1 || task.Skipped != 1 || task.Actions != 0 {
			t.Errorf("dryRun=%v: task = %+v, want 1 processed, 1 skipped", dryRun, task)
		}
		if len(report.Entries) != 1 || report.Entries[0].Reason != "pending audit in progress" {
			t.Errorf("dryRun=%v: entries = %+v, want one pending audit skip", dryRun, report.Entries)
		}
	}

	if _, err := store.GetCourse(context.Background(), 7); err != nil {
		t.Errorf("course 7 removed: %v", err)
	}
	if a := auditStatus(t, store, 70); a.Status != course.AuditPending {
		t.Errorf("audit 70 status = %s, want pending", a.Status)
	}
}

func TestRunCleanup_CoursesGatedByPolicy(t *testing.T) {
	store := &faultyStore{MemoryStorage: seedCleanup()}
	r := newTestRunner(store, nil)

	report := r.RunCleanup(context.Background(), CleanupOptions{Tasks: []Task{TaskCleanupCourses}})

	if len(report.Tasks) != 1 {
		t.Fatalf("len(Tasks) = %d, want 1", len(report.Tasks))
	}
	task := report.Task(TaskCleanupCourses)
	if !task.Disabled || task.DisabledReason == "" {
		t.Errorf("task = %+v, want disabled", task)
	}
	if store.findCourseCalls != 0 {
		t.Errorf("disabled task fetched courses %d times", store.findCourseCalls)
	}
	if _, err := store.GetCourse(context.Background(), 2); err != nil {
		t.Errorf("course 2 removed while disabled: %v", err)
	}
}

func TestRunCleanup_RetentionOverride(t *testing.T) {
	days := 1
	r := newTestRunner(seedCleanup(), nil)

	report := r.RunCleanup(context.Background(), CleanupOptions{
		Tasks:         []Task{TaskCleanupVersions, TaskCleanupAudits},
		RetentionDays: &days,
		DryRun:        true,
	})

	if got := report.Task(TaskCleanupVersions).Actions; got != 2 {
		t.Errorf("versions actions = %d, want 2", got)
	}
	if got := report.Task(TaskCleanupAudits).Actions; got != 2 {
		t.Errorf("audits actions = %d, want 2", got)
	}
}

func TestRunCleanup_FailureIsolation(t *testing.T) {
	store := &faultyStore{MemoryStorage: seedCleanup(), failFindVersions: true}
	rec := &fakeRecorder{}
	r := newTestRunner(store, nil, WithRecorder(rec))

	report := r.RunCleanup(context.Background(), CleanupOptions{
		Tasks: []Task{TaskCleanupVersions, TaskCleanupAudits},
	})

	if !report.Completed {
		t.Error("report not completed after a task failure")
	}
	versions := report.Task(TaskCleanupVersions)
	if !versions.Aborted || versions.Outcome() != OutcomeError {
		t.Errorf("versions = %+v, want aborted", versions)
	}
	if len(versions.Errors) != 1 || !strings.Contains(versions.Errors[0], "versions table unavailable") {
		t.Errorf("versions errors = %v", versions.Errors)
	}
	if got := report.Task(TaskCleanupAudits).Actions; got != 1 {
		t.Errorf("audits actions = %d, want 1", got)
	}
	if report.FailureCount() != 1 {
		t.Errorf("FailureCount() = %d, want 1", report.FailureCount())
	}
	if rec.tasks[string(TaskCleanupVersions)] != OutcomeError || rec.tasks[string(TaskCleanupAudits)] != OutcomeSuccess {
		t.Errorf("recorded outcomes = %v", rec.tasks)
	}
	if rec.lastRuns != 1 {
		t.Errorf("lastRuns = %d, want 1", rec.lastRuns)
	}
}

func TestRunAuditAutoApprove_PerItemFailures(t *testing.T) {
	store := &faultyStore{MemoryStorage: seedAudits(), failPersistID: 10}
	store.AddAudit(&course.AuditRecord{ID: 12, CourseID: 1, Status: course.AuditPending, Type: course.AuditTypeUpdate, CreatedAt: testNow})
	store.vanishID = 12
	r := newTestRunner(store, map[string]any{policy.KeyAutoAuditEnabled: true})

	report := r.RunAuditAutoApprove(context.Background(), false)

	task := report.Task(TaskAutoApprove)
	if task.Processed != 3 || task.Actions != 1 || task.Failed != 1 || task.Skipped != 1 {
		t.Errorf("task = %+v, want 1 action, 1 failure, 1 skip", task)
	}
	if task.Outcome() != OutcomePartial {
		t.Errorf("Outcome() = %s, want partial", task.Outcome())
	}
	if a := auditStatus(t, store.MemoryStorage, 10); a.Status != course.AuditPending {
		t.Errorf("failed record 10 status = %s", a.Status)
	}
	if a := auditStatus(t, store.MemoryStorage, 11); a.Status != course.AuditApproved {
		t.Errorf("record 11 status = %s, want approved", a.Status)
	}
}

func TestRunAuditAutoApprove_FlushFailure(t *testing.T) {
	store := &faultyStore{MemoryStorage: seedAudits(), failFlush: true}
	r := newTestRunner(store, map[string]any{policy.KeyAutoAuditEnabled: true})

	report := r.RunAuditAutoApprove(context.Background(), false)

	task := report.Task(TaskAutoApprove)
	if task.Actions != 0 || task.Failed != 2 {
		t.Errorf("task = %+v, want 0 actions, 2 failures", task)
	}
	last := report.Entries[len(report.Entries)-1]
	if last.Action != "flush" || last.Error == "" {
		t.Errorf("last entry = %+v, want flush error", last)
	}
	if a := auditStatus(t, store.MemoryStorage, 10); a.Status != course.AuditPending {
		t.Errorf("status = %s, want pending after failed flush", a.Status)
	}
}

func TestRunner_Decide(t *testing.T) {
	tests := []struct {
		name       string
		decision   audit.Decision
		wantAction int
		wantFailed int
		wantStatus course.AuditStatus
	}{
		{
			name:       "approve",
			decision:   audit.Decision{RecordID: 10, Action: audit.ActionApprove, Actor: "erin"},
			wantAction: 1,
			wantStatus: course.AuditApproved,
		},
		{
			name:       "reject",
			decision:   audit.Decision{RecordID: 10, Action: audit.ActionReject, Actor: "erin", Reason: "no videos"},
			wantAction: 1,
			wantStatus: course.AuditRejected,
		},
		{
			name:       "skip",
			decision:   audit.Decision{RecordID: 10, Action: audit.ActionSkip, Actor: "erin"},
			wantStatus: course.AuditPending,
		},
		{
			name:       "reject without reason",
			decision:   audit.Decision{RecordID: 10, Action: audit.ActionReject, Actor: "erin"},
			wantFailed: 1,
			wantStatus: course.AuditPending,
		},
		{
			name:       "unknown record",
			decision:   audit.Decision{RecordID: 999, Action: audit.ActionApprove, Actor: "erin"},
			wantFailed: 1,
			wantStatus: course.AuditPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seedAudits()
			r := newTestRunner(store, nil)

			report := r.Decide(context.Background(), tt.decision, false)

			task := report.Task(TaskDecide)
			if task.Actions != tt.wantAction || task.Failed != tt.wantFailed {
				t.Errorf("task = %+v, want actions=%d failed=%d", task, tt.wantAction, tt.wantFailed)
			}
			if a := auditStatus(t, store, 10); a.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", a.Status, tt.wantStatus)
			}
		})
	}
}

func TestRunner_DecideDryRun(t *testing.T) {
	store := seedAudits()
	r := newTestRunner(store, nil)

	report := r.Decide(context.Background(), audit.Decision{RecordID: 10, Action: audit.ActionApprove, Actor: "erin"}, true)

	if report.Task(TaskDecide).Actions != 1 {
		t.Errorf("dry-run decide actions = %d, want 1", report.Task(TaskDecide).Actions)
	}
	if a := auditStatus(t, store, 10); a.Status != course.AuditPending {
		t.Errorf("dry run mutated record: %s", a.Status)
	}
}

func TestRunner_PolicyWarnings(t *testing.T) {
	rec := &fakeRecorder{}
	r := newTestRunner(seedAudits(), map[string]any{policy.KeyTimeoutHours: "soon"}, WithRecorder(rec))

	report := r.RunAuditTimeoutCheck(context.Background(), true)

	if len(report.PolicyWarnings) != 1 || !strings.Contains(report.PolicyWarnings[0], policy.KeyTimeoutHours) {
		t.Errorf("PolicyWarnings = %v", report.PolicyWarnings)
	}
	if len(rec.invalid) != 1 || rec.invalid[0] != policy.KeyTimeoutHours {
		t.Errorf("recorded invalid keys = %v", rec.invalid)
	}
	if !report.Completed {
		t.Error("invalid policy value must not stop the run")
	}
}

func TestRunCleanup_CancelledBeforeStart(t *testing.T) {
	r := newTestRunner(seedCleanup(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := r.RunCleanup(ctx, CleanupOptions{})

	if report.Completed {
		t.Error("cancelled run reported as completed")
	}
	if len(report.Tasks) != 0 {
		t.Errorf("len(Tasks) = %d, want 0", len(report.Tasks))
	}
	if report.ID == "" || report.FinishedAt.IsZero() {
		t.Errorf("report not finalized: %+v", report)
	}
	if !r.LastRun().Equal(testNow) {
		t.Errorf("LastRun() = %v, want %v", r.LastRun(), testNow)
	}
}

// blockingStore holds FindAudits until release is closed.
type blockingStore struct {
	*storage.MemoryStorage
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) FindAudits(ctx context.Context, q *course.Query) ([]*course.AuditRecord, error) {
	close(s.entered)
	<-s.release
	return s.MemoryStorage.FindAudits(ctx, q)
}

func TestRunner_LastRunDoesNotWaitForRun(t *testing.T) {
	store := &blockingStore{
		MemoryStorage: seedAudits(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	r := newTestRunner(store, map[string]any{policy.KeyAutoAuditEnabled: true})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.RunAuditAutoApprove(context.Background(), true)
	}()
	<-store.entered

	got := make(chan time.Time, 1)
	go func() { got <- r.LastRun() }()
	select {
	case last := <-got:
		if !last.IsZero() {
			t.Errorf("LastRun() = %v before any run finished, want zero", last)
		}
	case <-time.After(time.Second):
		t.Error("LastRun() blocked while a run was in progress")
	}

	close(store.release)
	<-done
	if !r.LastRun().Equal(testNow) {
		t.Errorf("LastRun() = %v, want %v", r.LastRun(), testNow)
	}
}

func TestParseCleanupTasks(t *testing.T) {
	tasks, err := ParseCleanupTasks([]string{"courses", "cache", "courses"})
	if err != nil {
		t.Fatalf("ParseCleanupTasks() failed: %v", err)
	}
	if len(tasks) != 2 || tasks[0] != TaskCleanupCache || tasks[1] != TaskCleanupCourses {
		t.Errorf("tasks = %v, want [cache courses]", tasks)
	}

	all, _ := ParseCleanupTasks(nil)
	if len(all) != 4 {
		t.Errorf("empty selection = %v, want all tasks", all)
	}

	if _, err := ParseCleanupTasks([]string{"logs"}); err == nil {
		t.Error("expected error for unknown task")
	}
}
