package orchestrator

import (
	"context"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/retention"
)

// CleanupOptions selects what RunCleanup does.
type CleanupOptions struct {
	// Tasks to run. They always execute in CleanupTasks order. Empty
	// selects every task.
	Tasks []Task

	// RetentionDays, when set, overrides both the version and the audit
	// retention windows for this run.
	RetentionDays *int

	DryRun bool
}

// RunCleanup runs the selected retention tasks. A failing task never stops
// the tasks after it. Cancellation is honored between tasks only, in which
// case the report is returned with Completed unset.
func (r *Runner) RunCleanup(ctx context.Context, opts CleanupOptions) *RunReport {
	rn := r.start(ctx, opts.DryRun)

	if opts.RetentionDays != nil && *opts.RetentionDays >= 0 {
		rn.policy.VersionRetentionDays = *opts.RetentionDays
		rn.policy.AuditRetentionDays = *opts.RetentionDays
		rn.logger.Info("retention window overridden", "days", *opts.RetentionDays)
	}

	selected := make(map[Task]bool, len(opts.Tasks))
	for _, t := range opts.Tasks {
		selected[t] = true
	}

	for _, task := range CleanupTasks() {
		if len(selected) > 0 && !selected[task] {
			continue
		}
		if rn.cancelled() {
			return rn.finish()
		}

		switch task {
		case TaskCleanupCache:
			rn.cleanCache()
		case TaskCleanupVersions:
			rn.cleanVersions()
		case TaskCleanupAudits:
			rn.cleanAudits()
		case TaskCleanupCourses:
			rn.cleanCourses()
		}
	}

	rn.report.Completed = true
	return rn.finish()
}

func (rn *run) cleanCache() {
	t := rn.begin(TaskCleanupCache)
	defer t.close()

	cache := rn.r.cache
	if cache == nil {
		return
	}

	var n int
	if t.commit() {
		n = cache.Clear()
	} else {
		n = cache.Len()
	}
	t.result.Processed = n
	t.result.Actions = n
	t.record(KindCache, 0, "clear", "result cache entries", nil)
}

func (rn *run) cleanVersions() {
	t := rn.begin(TaskCleanupVersions)
	defer t.close()

	spec := retention.VersionSpec{}
	now := rn.r.now()
	cutoff := spec.Cutoff(rn.policy, now)

	versions, err := rn.r.store.FindVersions(t.ctx(), &course.Query{CreatedBefore: &cutoff})
	if err != nil {
		t.abort("fetch", err)
		return
	}
	for _, v := range versions {
		t.result.Processed++
		if !spec.ShouldRemove(v, rn.policy, now) {
			t.skip(v, "retained")
			continue
		}
		t.act(v, "remove", spec.Reason(v, rn.policy), nil, stageRemove)
	}
}

func (rn *run) cleanAudits() {
	t := rn.begin(TaskCleanupAudits)
	defer t.close()

	spec := retention.AuditSpec{}
	now := rn.r.now()
	cutoff := spec.Cutoff(rn.policy, now)

	records, err := rn.r.store.FindAudits(t.ctx(), &course.Query{CreatedBefore: &cutoff})
	if err != nil {
		t.abort("fetch", err)
		return
	}
	for _, a := range records {
		t.result.Processed++
		if !spec.ShouldRemove(a, rn.policy, now) {
			t.skip(a, "retained")
			continue
		}
		t.act(a, "remove", spec.Reason(a, rn.policy), nil, stageRemove)
	}
}

func (rn *run) cleanCourses() {
	t := rn.begin(TaskCleanupCourses)
	defer t.close()

	if !rn.policy.AutoCleanupExpired {
		t.disable("cleanup.auto_cleanup_expired is false")
		return
	}

	spec := retention.CourseSpec{}
	now := rn.r.now()
	cutoff := spec.Cutoff(rn.policy, now)
	invalid := false

	courses, err := rn.r.store.FindCourses(t.ctx(), &course.Query{Valid: &invalid, CreatedBefore: &cutoff})
	if err != nil {
		t.abort("fetch", err)
		return
	}
	if len(courses) == 0 {
		return
	}

	// Removing a course removes its audits, so courses under review are kept.
	pending, err := rn.r.store.FindAudits(t.ctx(), &course.Query{Status: string(course.AuditPending)})
	if err != nil {
		t.abort("fetch", err)
		return
	}
	underReview := make(map[int64]bool, len(pending))
	for _, a := range pending {
		underReview[a.CourseID] = true
	}

	for _, c := range courses {
		t.result.Processed++
		if !spec.ShouldRemove(c, rn.policy, now) {
			t.skip(c, "has engagement")
			continue
		}
		if underReview[c.ID] {
			t.skip(c, "pending audit in progress")
			continue
		}
		t.act(c, "remove", spec.Reason(c, rn.policy), nil, stageRemove)
	}
}
