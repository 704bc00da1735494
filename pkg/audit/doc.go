// Package audit implements the audit workflow: auto-approval eligibility,
// automatic approval, timeout detection and remediation, and manual
// decisions.
//
// State changes are delegated to the course.AuditRecord transition methods,
// which enforce that approved and rejected records always carry a decision
// time and an auditor. This package decides which transition applies; it
// never persists anything. Staging and flushing are the orchestrator's job.
//
// # Eligibility
//
// A pending record is eligible for auto-approval only when every predicate
// holds for its course: non-empty title and description, at least one
// chapter and one lesson, a cover, a positive learn-hour, a price, and an
// audit type in the policy allow-list. The first failing predicate is
// reported as the reason.
//
// # Timeouts
//
// A record is overdue when it is pending and was created before
// now - timeoutHours. Remediation either rejects it with a fixed reason or
// clears the auditor so it can be reassigned, keeping it pending.
package audit
