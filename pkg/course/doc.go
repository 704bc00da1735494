// Package course defines the course lifecycle data model shared by the
// audit workflow, the scoring engine and the retention engine.
//
// # Entities
//
// Three persisted entities are governed by Steward:
//
//   - Course: the catalog entry with its content counters and engagement totals
//   - AuditRecord: one review cycle for a course (pending → approved/rejected/cancelled)
//   - CourseVersion: a published snapshot of a course (draft, published, archived, deprecated)
//
// Every entity implements the Entity contract so the batch orchestrator can
// stage mutations without knowing the concrete type.
//
// # Audit Record Invariant
//
// Decided records (approved, rejected) always carry a decision timestamp and
// an auditor identity. Pending records never carry a decision timestamp.
// The only way to change an audit record's status is through Approve,
// Reject and Cancel, which enforce this invariant:
//
//	if err := rec.Approve("system", "auto approved", time.Now()); err != nil {
//	    // rec was not pending
//	}
//
// # Storage
//
// Persistence is an external collaborator described by the Store interface.
// Mutations are staged with Persist and Remove and applied atomically with
// Flush:
//
//	audits, err := store.FindAudits(ctx, &course.Query{Status: "pending"})
//	...
//	_ = store.Persist(ctx, audit)
//	applied, err := store.Flush(ctx)
//
// The storage subpackage provides an in-memory backend (tests, dry runs)
// and a SQLite backend.
package course
