package audit

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/policy"
)

// Fixed comments written by system transitions.
const (
	AutoApproveComment  = "Automatically approved: course meets all auto-approval criteria"
	TimeoutRejectReason = "Automatically rejected: audit exceeded the review timeout"
	TimeoutReassignNote = "Audit timed out; auditor cleared for reassignment"
)

// Action is the outcome of applying the workflow to one record.
type Action string

const (
	ActionNone       Action = "none"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionReassign   Action = "reassign"
	ActionSkip       Action = "skip"
	ActionNotOverdue Action = "not-overdue"
)

// ErrNotPending is returned when an operation requires a pending record.
var ErrNotPending = errors.New("audit record is not pending")

// Eligibility is the result of the auto-approval check.
type Eligibility struct {
	Eligible bool
	// Reason names the first failing predicate. Empty when eligible.
	Reason string
}

// CheckEligibility decides whether rec may be auto-approved given its course.
// Predicates short-circuit on the first failure.
func CheckEligibility(rec *course.AuditRecord, c *course.Course, p policy.Policy) Eligibility {
	switch {
	case rec == nil || rec.Status != course.AuditPending:
		return Eligibility{Reason: "record is not pending"}
	case c == nil:
		return Eligibility{Reason: "course not loaded"}
	case strings.TrimSpace(c.Title) == "":
		return Eligibility{Reason: "missing title"}
	case strings.TrimSpace(c.Description) == "":
		return Eligibility{Reason: "missing description"}
	case c.Content.Chapters <= 0:
		return Eligibility{Reason: "no chapters"}
	case c.Content.Lessons <= 0:
		return Eligibility{Reason: "no lessons"}
	case strings.TrimSpace(c.Cover) == "":
		return Eligibility{Reason: "missing cover"}
	case c.LearnHour == nil || *c.LearnHour <= 0:
		return Eligibility{Reason: "missing learn hours"}
	case c.Price == nil:
		return Eligibility{Reason: "missing price"}
	case !p.AllowsAutoApprove(rec.Type):
		return Eligibility{Reason: fmt.Sprintf("audit type %s not auto-approvable", rec.Type)}
	}
	return Eligibility{Eligible: true}
}

// AutoApprove approves rec as the policy's system auditor when it is
// eligible. It returns ActionNone with the failing reason when it is not.
// The caller is responsible for honoring the auto-audit feature flag.
func AutoApprove(rec *course.AuditRecord, c *course.Course, p policy.Policy, now time.Time) (Action, string, error) {
	el := CheckEligibility(rec, c, p)
	if !el.Eligible {
		return ActionNone, el.Reason, nil
	}
	if err := rec.Approve(p.SystemAuditor, AutoApproveComment, now); err != nil {
		return ActionNone, "", err
	}
	return ActionApprove, "eligible for auto-approval", nil
}

// IsOverdue reports whether rec is pending and was created more than
// timeoutHours before now.
func IsOverdue(rec *course.AuditRecord, timeoutHours int, now time.Time) bool {
	if rec == nil || rec.Status != course.AuditPending {
		return false
	}
	return rec.CreatedAt.Before(Deadline(timeoutHours, now))
}

// maxTimeoutHours is the largest timeout representable as a time.Duration.
const maxTimeoutHours = math.MaxInt64 / int64(time.Hour)

// Deadline returns now minus timeoutHours. Timeouts beyond the range of
// time.Duration saturate, so nothing created after the zero time is overdue.
func Deadline(timeoutHours int, now time.Time) time.Time {
	if int64(timeoutHours) > maxTimeoutHours {
		return time.Time{}
	}
	return now.Add(-time.Duration(timeoutHours) * time.Hour)
}

// PlanTimeout returns the remediation that RemediateTimeout would apply,
// without mutating rec.
func PlanTimeout(rec *course.AuditRecord, p policy.Policy, now time.Time) Action {
	if !IsOverdue(rec, p.TimeoutHours, now) {
		return ActionNotOverdue
	}
	if p.AutoRejectOnTimeout {
		return ActionReject
	}
	return ActionReassign
}

// RemediateTimeout applies the policy-selected remediation to an overdue
// record: rejection with TimeoutRejectReason, or reassignment which keeps
// the record pending.
func RemediateTimeout(rec *course.AuditRecord, p policy.Policy, now time.Time) (Action, error) {
	action := PlanTimeout(rec, p, now)
	switch action {
	case ActionReject:
		if err := rec.Reject(p.SystemAuditor, TimeoutRejectReason, now); err != nil {
			return ActionNone, err
		}
	case ActionReassign:
		if err := rec.Reassign(TimeoutReassignNote); err != nil {
			return ActionNone, err
		}
	}
	return action, nil
}
