package course

import (
	"time"
)

// AuditStatus is the lifecycle state of an audit record.
type AuditStatus string

const (
	AuditPending   AuditStatus = "pending"
	AuditApproved  AuditStatus = "approved"
	AuditRejected  AuditStatus = "rejected"
	AuditCancelled AuditStatus = "cancelled"
)

// IsTerminal reports whether no transition can leave the status.
func (s AuditStatus) IsTerminal() bool {
	return s == AuditApproved || s == AuditRejected || s == AuditCancelled
}

// AuditType is the kind of review an audit record represents.
type AuditType string

const (
	AuditTypeContent AuditType = "content"
	AuditTypeQuality AuditType = "quality"
	AuditTypeFinal   AuditType = "final"
	AuditTypeUpdate  AuditType = "update"
)

// ParseAuditType validates an audit type string.
func ParseAuditType(s string) (AuditType, bool) {
	switch t := AuditType(s); t {
	case AuditTypeContent, AuditTypeQuality, AuditTypeFinal, AuditTypeUpdate:
		return t, true
	}
	return "", false
}

// VersionStatus is the publication state of a course version.
type VersionStatus string

const (
	VersionDraft      VersionStatus = "draft"
	VersionPublished  VersionStatus = "published"
	VersionArchived   VersionStatus = "archived"
	VersionDeprecated VersionStatus = "deprecated"
)

// AuditRecord is one review cycle for a course.
type AuditRecord struct {
	ID       int64       `json:"id"`
	CourseID int64       `json:"course_id"`
	Status   AuditStatus `json:"status"`
	Type     AuditType   `json:"type"`

	// Auditor is nil when nobody is assigned.
	Auditor *string `json:"auditor,omitempty"`
	Comment string  `json:"comment"`

	// DecidedAt is set exactly when the record is approved or rejected.
	DecidedAt *time.Time `json:"decided_at,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	Priority  int        `json:"priority"`
	Deadline  *time.Time `json:"deadline,omitempty"`
}

// EntityKind implements Entity.
func (a *AuditRecord) EntityKind() Kind { return KindAudit }

// EntityID implements Entity.
func (a *AuditRecord) EntityID() int64 { return a.ID }

// AuditorName returns the assigned auditor or "".
func (a *AuditRecord) AuditorName() string {
	if a.Auditor == nil {
		return ""
	}
	return *a.Auditor
}

// Approve moves a pending record to approved.
func (a *AuditRecord) Approve(auditor, comment string, at time.Time) error {
	return a.decide(AuditApproved, auditor, comment, at)
}

// Reject moves a pending record to rejected.
func (a *AuditRecord) Reject(auditor, reason string, at time.Time) error {
	return a.decide(AuditRejected, auditor, reason, at)
}

// Cancel moves a pending record to cancelled. Cancellation is not a review
// decision, so no decision timestamp is recorded.
func (a *AuditRecord) Cancel(comment string) error {
	if a.Status != AuditPending {
		return &TransitionError{RecordID: a.ID, From: a.Status, To: AuditCancelled}
	}
	a.Status = AuditCancelled
	if comment != "" {
		a.Comment = comment
	}
	return nil
}

// Reassign clears the auditor assignment of a pending record and appends
// note to its comment. The record stays pending.
func (a *AuditRecord) Reassign(note string) error {
	if a.Status != AuditPending {
		return &TransitionError{RecordID: a.ID, From: a.Status, To: AuditPending}
	}
	a.Auditor = nil
	switch {
	case note == "":
	case a.Comment == "":
		a.Comment = note
	default:
		a.Comment = a.Comment + "\n" + note
	}
	return nil
}

func (a *AuditRecord) decide(to AuditStatus, auditor, comment string, at time.Time) error {
	if a.Status != AuditPending {
		return &TransitionError{RecordID: a.ID, From: a.Status, To: to}
	}
	if auditor == "" {
		return &TransitionError{RecordID: a.ID, From: a.Status, To: to, Reason: "auditor identity is required"}
	}
	if at.IsZero() {
		return &TransitionError{RecordID: a.ID, From: a.Status, To: to, Reason: "decision time is required"}
	}

	decided := at
	who := auditor
	a.Status = to
	a.Auditor = &who
	a.DecidedAt = &decided
	a.Comment = comment
	return nil
}
