package audit

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"courseware-hq/steward/pkg/course"
)

// Decision is an explicit reviewer verdict on one audit record.
type Decision struct {
	RecordID int64  `json:"record_id" validate:"required,gt=0"`
	Action   Action `json:"action" validate:"required,oneof=approve reject skip"`
	Actor    string `json:"actor" validate:"required"`
	Reason   string `json:"reason" validate:"required_if=Action reject"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func decisionValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// DecisionError reports an invalid Decision.
type DecisionError struct {
	Fields []string
	Cause  error
}

// Error implements the error interface.
func (e *DecisionError) Error() string {
	return fmt.Sprintf("invalid decision: %s", strings.Join(e.Fields, "; "))
}

// Unwrap returns the underlying validation error.
func (e *DecisionError) Unwrap() error {
	return e.Cause
}

// Validate checks a decision before it is applied.
func (d Decision) Validate() error {
	err := decisionValidator().Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &DecisionError{Fields: []string{err.Error()}, Cause: err}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return &DecisionError{Fields: fields, Cause: err}
}

// Decide applies a manual decision to rec. Approve and reject record the
// acting identity as auditor; skip leaves the record untouched.
func Decide(rec *course.AuditRecord, d Decision, now time.Time) (Action, error) {
	if err := d.Validate(); err != nil {
		return ActionNone, err
	}
	if rec == nil || rec.ID != d.RecordID {
		return ActionNone, course.NewNotFoundError(course.KindAudit, d.RecordID)
	}
	if d.Action == ActionSkip {
		return ActionSkip, nil
	}
	if rec.Status != course.AuditPending {
		return ActionNone, fmt.Errorf("record %d is %s: %w", rec.ID, rec.Status, ErrNotPending)
	}

	switch d.Action {
	case ActionApprove:
		if err := rec.Approve(d.Actor, d.Reason, now); err != nil {
			return ActionNone, err
		}
	case ActionReject:
		if err := rec.Reject(d.Actor, d.Reason, now); err != nil {
			return ActionNone, err
		}
	}
	return d.Action, nil
}
