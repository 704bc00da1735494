package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"courseware-hq/steward/pkg/audit"
	"courseware-hq/steward/pkg/course"
)

// RunAuditAutoApprove approves every eligible pending audit record as the
// system auditor. The task is disabled when auto-audit is off.
func (r *Runner) RunAuditAutoApprove(ctx context.Context, dryRun bool) *RunReport {
	rn := r.start(ctx, dryRun)
	rn.autoApprove()
	rn.report.Completed = true
	return rn.finish()
}

// RunAuditTimeoutCheck rejects or reassigns pending audit records older
// than the policy timeout.
func (r *Runner) RunAuditTimeoutCheck(ctx context.Context, dryRun bool) *RunReport {
	rn := r.start(ctx, dryRun)
	rn.timeoutCheck()
	rn.report.Completed = true
	return rn.finish()
}

// Decide applies one manual reviewer decision. Invalid decisions and
// missing records are reported as failures on the decide task.
func (r *Runner) Decide(ctx context.Context, d audit.Decision, dryRun bool) *RunReport {
	rn := r.start(ctx, dryRun)
	rn.decide(d)
	rn.report.Completed = true
	return rn.finish()
}

func (rn *run) autoApprove() {
	t := rn.begin(TaskAutoApprove)
	defer t.close()

	if !rn.policy.AutoAuditEnabled {
		t.disable("audit.auto_audit_enabled is false")
		return
	}

	records, err := rn.r.store.FindAudits(t.ctx(), &course.Query{Status: string(course.AuditPending)})
	if err != nil {
		t.abort("fetch", err)
		return
	}

	now := rn.r.now()
	courses := make(map[int64]*course.Course)
	for _, rec := range records {
		t.result.Processed++

		c, ok := courses[rec.CourseID]
		if !ok {
			c, err = rn.r.store.GetCourse(t.ctx(), rec.CourseID)
			switch {
			case errors.Is(err, course.ErrNotFound):
				c = nil
			case err != nil:
				t.fail(course.KindAudit, rec.ID, string(audit.ActionApprove), fmt.Errorf("load course %d: %w", rec.CourseID, err))
				continue
			}
			courses[rec.CourseID] = c
		}
		if c == nil {
			t.skip(rec, "course not found")
			continue
		}

		el := audit.CheckEligibility(rec, c, rn.policy)
		if !el.Eligible {
			t.skip(rec, el.Reason)
			continue
		}

		t.act(rec, string(audit.ActionApprove), "eligible for auto-approval", func() error {
			_, _, err := audit.AutoApprove(rec, c, rn.policy, now)
			return err
		}, stagePersist)
	}
}

func (rn *run) timeoutCheck() {
	t := rn.begin(TaskTimeoutCheck)
	defer t.close()

	now := rn.r.now()
	deadline := audit.Deadline(rn.policy.TimeoutHours, now)
	records, err := rn.r.store.FindAudits(t.ctx(), &course.Query{
		Status:        string(course.AuditPending),
		CreatedBefore: &deadline,
	})
	if err != nil {
		t.abort("fetch", err)
		return
	}

	reason := fmt.Sprintf("pending longer than %d hours", rn.policy.TimeoutHours)
	for _, rec := range records {
		t.result.Processed++

		// The query bound is inclusive; the workflow decides exactly.
		action := audit.PlanTimeout(rec, rn.policy, now)
		if action == audit.ActionNotOverdue {
			t.skip(rec, "not overdue")
			continue
		}

		t.act(rec, string(action), reason, func() error {
			_, err := audit.RemediateTimeout(rec, rn.policy, now)
			return err
		}, stagePersist)
	}
}

func (rn *run) decide(d audit.Decision) {
	t := rn.begin(TaskDecide)
	defer t.close()

	if err := d.Validate(); err != nil {
		t.fail(course.KindAudit, d.RecordID, string(d.Action), err)
		return
	}

	records, err := rn.r.store.FindAudits(t.ctx(), &course.Query{ID: d.RecordID})
	if err != nil {
		t.abort("fetch", err)
		return
	}
	if len(records) == 0 {
		t.fail(course.KindAudit, d.RecordID, string(d.Action), course.NewNotFoundError(course.KindAudit, d.RecordID))
		return
	}

	rec := records[0]
	t.result.Processed++

	if d.Action == audit.ActionSkip {
		t.skip(rec, "skipped by "+d.Actor)
		return
	}
	if rec.Status != course.AuditPending {
		t.fail(course.KindAudit, rec.ID, string(d.Action), fmt.Errorf("record %d is %s: %w", rec.ID, rec.Status, audit.ErrNotPending))
		return
	}

	reason := d.Reason
	if reason == "" {
		reason = "decided by " + d.Actor
	}
	t.act(rec, string(d.Action), reason, func() error {
		_, err := audit.Decide(rec, d, rn.r.now())
		return err
	}, stagePersist)
}
