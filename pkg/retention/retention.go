// Package retention decides which historical entities are safe to purge.
//
// Each Specification is a pure predicate over one entity, the resolved
// policy, and the evaluation time. Specifications never fetch or mutate;
// the orchestrator feeds them candidates and applies removals.
//
// Safety rules:
//   - current or published versions are never removable, whatever their age
//   - pending audit records are never removable, whatever their age
//   - a course is removable only when it is invalid and has no engagement
package retention

import (
	"fmt"
	"time"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/policy"
)

// Specification decides whether an entity of type T may be removed.
type Specification[T any] interface {
	// ShouldRemove reports whether entity is eligible for removal at now.
	ShouldRemove(entity T, p policy.Policy, now time.Time) bool

	// Reason describes why a removable entity qualifies.
	Reason(entity T, p policy.Policy) string

	// Cutoff returns the coarse creation-time bound used to fetch candidates.
	Cutoff(p policy.Policy, now time.Time) time.Time
}

// Cutoff returns now minus days.
func Cutoff(now time.Time, days int) time.Time {
	return now.AddDate(0, 0, -days)
}

// VersionSpec removes stale non-current, non-published versions.
type VersionSpec struct{}

// ShouldRemove implements Specification.
func (VersionSpec) ShouldRemove(v *course.CourseVersion, p policy.Policy, now time.Time) bool {
	if v == nil || v.IsCurrent || v.Status == course.VersionPublished {
		return false
	}
	return v.CreatedAt.Before(Cutoff(now, p.VersionRetentionDays))
}

// Reason implements Specification.
func (VersionSpec) Reason(v *course.CourseVersion, p policy.Policy) string {
	return fmt.Sprintf("%s version older than %s", v.Status, days(p.VersionRetentionDays))
}

// Cutoff implements Specification.
func (VersionSpec) Cutoff(p policy.Policy, now time.Time) time.Time {
	return Cutoff(now, p.VersionRetentionDays)
}

// AuditSpec removes stale audit records that are no longer pending.
type AuditSpec struct{}

// ShouldRemove implements Specification.
func (AuditSpec) ShouldRemove(a *course.AuditRecord, p policy.Policy, now time.Time) bool {
	if a == nil || a.Status == course.AuditPending {
		return false
	}
	return a.CreatedAt.Before(Cutoff(now, p.AuditRetentionDays))
}

// Reason implements Specification.
func (AuditSpec) Reason(a *course.AuditRecord, p policy.Policy) string {
	return fmt.Sprintf("%s audit older than %s", a.Status, days(p.AuditRetentionDays))
}

// Cutoff implements Specification.
func (AuditSpec) Cutoff(p policy.Policy, now time.Time) time.Time {
	return Cutoff(now, p.AuditRetentionDays)
}

// CourseSpec removes invalid courses without engagement once their grace
// period has elapsed. The orchestrator additionally gates it behind the
// auto-cleanup-expired flag.
type CourseSpec struct{}

// ShouldRemove implements Specification.
func (CourseSpec) ShouldRemove(c *course.Course, p policy.Policy, now time.Time) bool {
	if c == nil || c.Valid || c.HasEngagement() {
		return false
	}
	return !c.CreatedAt.After(Cutoff(now, p.CourseGracePeriodDays))
}

// Reason implements Specification.
func (CourseSpec) Reason(c *course.Course, p policy.Policy) string {
	return "invalid course without engagement past grace period of " + days(p.CourseGracePeriodDays)
}

// Cutoff implements Specification.
func (CourseSpec) Cutoff(p policy.Policy, now time.Time) time.Time {
	return Cutoff(now, p.CourseGracePeriodDays)
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

var (
	_ Specification[*course.CourseVersion] = VersionSpec{}
	_ Specification[*course.AuditRecord]   = AuditSpec{}
	_ Specification[*course.Course]        = CourseSpec{}
)
