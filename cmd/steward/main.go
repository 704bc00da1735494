// Steward governs the lifecycle of courses in a course catalog.
//
// It scores courses, drives the audit workflow for pending reviews, and
// purges stale versions, audit records, and abandoned courses under a
// configurable retention policy:
//   - Completeness, popularity, quality, and engagement scoring
//   - Auto-approval and timeout remediation of pending audits
//   - Retention cleanup with dry-run previews
//   - Cron-scheduled batch runs with Prometheus metrics
//
// Usage:
//
//	# Preview which audits would be auto-approved
//	steward audit auto-approve --dry-run
//
//	# Purge stale versions and audit records
//	steward cleanup --tasks versions,audits
//
//	# Score one course
//	steward report 42 --format json
//
//	# Rank the top 20 courses by quality
//	steward rank --sort quality --limit 20
//
//	# Run the scheduler and HTTP endpoints
//	steward serve --config /etc/steward/steward.yaml
package main

func main() {
	Execute()
}
