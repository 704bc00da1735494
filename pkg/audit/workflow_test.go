package audit

import (
	"errors"
	"strings"
	"testing"
	"time"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/policy"
)

func f64(v float64) *float64 { return &v }

func readyCourse() *course.Course {
	return &course.Course{
		ID:          7,
		Valid:       true,
		Title:       "Testing in Go",
		Description: "table-driven tests",
		Cover:       "cover.jpg",
		LearnHour:   f64(4),
		Price:       f64(49.0),
		Content:     course.ContentBreakdown{Chapters: 2, Lessons: 3},
	}
}

func pendingRecord(created time.Time) *course.AuditRecord {
	return &course.AuditRecord{
		ID:        1,
		CourseID:  7,
		Status:    course.AuditPending,
		Type:      course.AuditTypeUpdate,
		CreatedAt: created,
	}
}

func TestCheckEligibility(t *testing.T) {
	p := policy.Default()

	tests := []struct {
		name   string
		mutate func(c *course.Course, r *course.AuditRecord)
		reason string
	}{
		{"eligible", func(*course.Course, *course.AuditRecord) {}, ""},
		{"empty title", func(c *course.Course, _ *course.AuditRecord) { c.Title = " " }, "missing title"},
		{"no description", func(c *course.Course, _ *course.AuditRecord) { c.Description = "" }, "missing description"},
		{"no chapters", func(c *course.Course, _ *course.AuditRecord) { c.Content.Chapters = 0 }, "no chapters"},
		{"no lessons", func(c *course.Course, _ *course.AuditRecord) { c.Content.Lessons = 0 }, "no lessons"},
		{"no cover", func(c *course.Course, _ *course.AuditRecord) { c.Cover = "" }, "missing cover"},
		{"zero learn hours", func(c *course.Course, _ *course.AuditRecord) { c.LearnHour = f64(0) }, "missing learn hours"},
		{"nil learn hours", func(c *course.Course, _ *course.AuditRecord) { c.LearnHour = nil }, "missing learn hours"},
		{"nil price", func(c *course.Course, _ *course.AuditRecord) { c.Price = nil }, "missing price"},
		{"free course is priced", func(c *course.Course, _ *course.AuditRecord) { c.Price = f64(0) }, ""},
		{"type not allowed", func(_ *course.Course, r *course.AuditRecord) { r.Type = course.AuditTypeFinal }, "audit type final not auto-approvable"},
		{"not pending", func(_ *course.Course, r *course.AuditRecord) { r.Status = course.AuditRejected }, "record is not pending"},
		{"first failure wins", func(c *course.Course, _ *course.AuditRecord) { c.Title = ""; c.Price = nil }, "missing title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := readyCourse()
			r := pendingRecord(time.Now())
			tt.mutate(c, r)

			got := CheckEligibility(r, c, p)
			if got.Eligible != (tt.reason == "") {
				t.Errorf("Eligible = %v, want %v (reason %q)", got.Eligible, tt.reason == "", got.Reason)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

// TestAutoApprove_PopulatedUpdate checks that a fully populated update audit is
// approved by the system identity.
func TestAutoApprove_PopulatedUpdate(t *testing.T) {
	p := policy.Default()
	p.AutoAuditEnabled = true
	now := time.Now()
	rec := pendingRecord(now.Add(-time.Hour))

	if !CheckEligibility(rec, readyCourse(), p).Eligible {
		t.Fatal("expected record to be eligible")
	}

	action, _, err := AutoApprove(rec, readyCourse(), p, now)
	if err != nil {
		t.Fatalf("AutoApprove() failed: %v", err)
	}
	if action != ActionApprove {
		t.Errorf("action = %s, want approve", action)
	}
	if rec.Status != course.AuditApproved {
		t.Errorf("Status = %s, want approved", rec.Status)
	}
	if rec.AuditorName() != policy.DefaultSystemAuditor {
		t.Errorf("Auditor = %q, want %q", rec.AuditorName(), policy.DefaultSystemAuditor)
	}
	if rec.DecidedAt == nil || !rec.DecidedAt.Equal(now) {
		t.Errorf("DecidedAt = %v, want %v", rec.DecidedAt, now)
	}
	if rec.Comment != AutoApproveComment {
		t.Errorf("Comment = %q", rec.Comment)
	}
}

func TestAutoApprove_IneligibleIsUntouched(t *testing.T) {
	rec := pendingRecord(time.Now())
	c := readyCourse()
	c.Cover = ""

	action, reason, err := AutoApprove(rec, c, policy.Default(), time.Now())
	if err != nil || action != ActionNone || reason != "missing cover" {
		t.Errorf("AutoApprove() = %s, %q, %v", action, reason, err)
	}
	if rec.Status != course.AuditPending || rec.DecidedAt != nil {
		t.Errorf("ineligible record was mutated: %+v", rec)
	}
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		age     time.Duration
		status  course.AuditStatus
		overdue bool
	}{
		{"100h pending", 100 * time.Hour, course.AuditPending, true},
		{"exactly at threshold", 72 * time.Hour, course.AuditPending, false},
		{"fresh", time.Hour, course.AuditPending, false},
		{"old but decided", 500 * time.Hour, course.AuditApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := pendingRecord(now.Add(-tt.age))
			rec.Status = tt.status
			if got := IsOverdue(rec, 72, now); got != tt.overdue {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.overdue)
			}
		})
	}
}

func TestIsOverdue_TimeoutBeyondDurationRange(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := pendingRecord(now.Add(-time.Minute))

	if IsOverdue(rec, 3000000, now) {
		t.Error("a minute old record must not be overdue with a 3000000 hour timeout")
	}
	if !Deadline(3000000, now).IsZero() {
		t.Errorf("Deadline() = %v, want zero time", Deadline(3000000, now))
	}
	if got, want := Deadline(72, now), now.Add(-72*time.Hour); !got.Equal(want) {
		t.Errorf("Deadline(72) = %v, want %v", got, want)
	}
}

// TestRemediateTimeout_Reassigns checks that without auto-reject an overdue
// record stays pending with its auditor cleared.
func TestRemediateTimeout_Reassigns(t *testing.T) {
	now := time.Now()
	rec := pendingRecord(now.Add(-100 * time.Hour))
	who := "dana"
	rec.Auditor = &who

	p := policy.Default()
	p.TimeoutHours = 72
	p.AutoRejectOnTimeout = false

	action, err := RemediateTimeout(rec, p, now)
	if err != nil {
		t.Fatalf("RemediateTimeout() failed: %v", err)
	}
	if action != ActionReassign {
		t.Errorf("action = %s, want reassign", action)
	}
	if rec.Status != course.AuditPending {
		t.Errorf("Status = %s, want pending", rec.Status)
	}
	if rec.Auditor != nil {
		t.Errorf("Auditor = %q, want cleared", *rec.Auditor)
	}
	if rec.DecidedAt != nil {
		t.Error("pending record must not have a decision time")
	}
	if !strings.Contains(rec.Comment, TimeoutReassignNote) {
		t.Errorf("Comment = %q, want reassignment note", rec.Comment)
	}
}

func TestRemediateTimeout_AutoReject(t *testing.T) {
	now := time.Now()
	rec := pendingRecord(now.Add(-100 * time.Hour))

	p := policy.Default()
	p.AutoRejectOnTimeout = true

	action, err := RemediateTimeout(rec, p, now)
	if err != nil {
		t.Fatalf("RemediateTimeout() failed: %v", err)
	}
	if action != ActionReject || rec.Status != course.AuditRejected {
		t.Errorf("action=%s status=%s, want reject/rejected", action, rec.Status)
	}
	if rec.AuditorName() != p.SystemAuditor || rec.Comment != TimeoutRejectReason {
		t.Errorf("rejection metadata = %q / %q", rec.AuditorName(), rec.Comment)
	}

	// Not overdue: no mutation.
	fresh := pendingRecord(now)
	if a, _ := RemediateTimeout(fresh, p, now); a != ActionNotOverdue || fresh.Status != course.AuditPending {
		t.Errorf("fresh record remediated: %s/%s", a, fresh.Status)
	}
}

func TestDecide(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		decision   Decision
		wantAction Action
		wantStatus course.AuditStatus
		wantErr    bool
	}{
		{
			name:       "approve",
			decision:   Decision{RecordID: 1, Action: ActionApprove, Actor: "erin"},
			wantAction: ActionApprove,
			wantStatus: course.AuditApproved,
		},
		{
			name:       "reject with reason",
			decision:   Decision{RecordID: 1, Action: ActionReject, Actor: "erin", Reason: "videos missing"},
			wantAction: ActionReject,
			wantStatus: course.AuditRejected,
		},
		{
			name:       "skip",
			decision:   Decision{RecordID: 1, Action: ActionSkip, Actor: "erin"},
			wantAction: ActionSkip,
			wantStatus: course.AuditPending,
		},
		{
			name:       "reject without reason",
			decision:   Decision{RecordID: 1, Action: ActionReject, Actor: "erin"},
			wantStatus: course.AuditPending,
			wantErr:    true,
		},
		{
			name:       "missing actor",
			decision:   Decision{RecordID: 1, Action: ActionApprove},
			wantStatus: course.AuditPending,
			wantErr:    true,
		},
		{
			name:       "unsupported action",
			decision:   Decision{RecordID: 1, Action: ActionReassign, Actor: "erin"},
			wantStatus: course.AuditPending,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := pendingRecord(now.Add(-time.Hour))
			action, err := Decide(rec, tt.decision, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decide() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && action != tt.wantAction {
				t.Errorf("action = %s, want %s", action, tt.wantAction)
			}
			if rec.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", rec.Status, tt.wantStatus)
			}
			if rec.Status == course.AuditApproved || rec.Status == course.AuditRejected {
				if rec.AuditorName() != "erin" || rec.DecidedAt == nil {
					t.Errorf("decision metadata missing: %+v", rec)
				}
			}
		})
	}
}

func TestDecide_Errors(t *testing.T) {
	now := time.Now()

	var derr *DecisionError
	if _, err := Decide(pendingRecord(now), Decision{Action: ActionApprove, Actor: "x"}, now); !errors.As(err, &derr) {
		t.Errorf("missing record id error = %v, want DecisionError", err)
	}

	if _, err := Decide(pendingRecord(now), Decision{RecordID: 99, Action: ActionApprove, Actor: "x"}, now); !errors.Is(err, course.ErrNotFound) {
		t.Errorf("mismatched record error = %v, want ErrNotFound", err)
	}

	done := pendingRecord(now)
	done.Status = course.AuditCancelled
	if _, err := Decide(done, Decision{RecordID: 1, Action: ActionApprove, Actor: "x"}, now); !errors.Is(err, ErrNotPending) {
		t.Errorf("decided record error = %v, want ErrNotPending", err)
	}
}
