// Package policy consolidates every tunable that drives the audit workflow
// and the retention engine into one immutable Policy value.
//
// Policy values are resolved from a Source (the getConfig collaborator).
// A value of the wrong type never fails the load: the documented default is
// used instead and an InvalidPolicyValueError is recorded on the Policy.
//
//	src := policy.Layered(store, policy.MapSource(cfg.Policy))
//	p := policy.Load(src)
//	for _, w := range p.Warnings {
//	    logger.Warn("invalid policy value", "error", w)
//	}
package policy

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"courseware-hq/steward/pkg/course"
)

// Policy keys.
const (
	KeyAutoAuditEnabled      = "audit.auto_audit_enabled"
	KeyAutoApproveTypes      = "audit.auto_approve_types"
	KeyTimeoutHours          = "audit.timeout_hours"
	KeyAutoRejectOnTimeout   = "audit.auto_reject_on_timeout"
	KeySystemAuditor         = "audit.system_auditor"
	KeyVersionRetentionDays  = "cleanup.version_retention_days"
	KeyAuditRetentionDays    = "cleanup.audit_retention_days"
	KeyCourseGracePeriodDays = "cleanup.course_grace_period_days"
	KeyAutoCleanupExpired    = "cleanup.auto_cleanup_expired"
)

// Keys returns every recognized policy key.
func Keys() []string {
	return []string{
		KeyAutoAuditEnabled,
		KeyAutoApproveTypes,
		KeyTimeoutHours,
		KeyAutoRejectOnTimeout,
		KeySystemAuditor,
		KeyVersionRetentionDays,
		KeyAuditRetentionDays,
		KeyCourseGracePeriodDays,
		KeyAutoCleanupExpired,
	}
}

// Default policy values.
const (
	DefaultAutoAuditEnabled      = false
	DefaultTimeoutHours          = 72
	DefaultAutoRejectOnTimeout   = false
	DefaultSystemAuditor         = "system"
	DefaultVersionRetentionDays  = 30
	DefaultAuditRetentionDays    = 30
	DefaultCourseGracePeriodDays = 7
	DefaultAutoCleanupExpired    = false
)

// Upper bounds keep hour and day windows within the range of time.Duration.
const (
	MaxTimeoutHours  = int(math.MaxInt64 / int64(time.Hour))
	MaxRetentionDays = int(math.MaxInt64 / int64(24*time.Hour))
)

// DefaultAutoApproveTypes returns the audit types eligible for auto-approval
// when nothing is configured.
func DefaultAutoApproveTypes() []course.AuditType {
	return []course.AuditType{course.AuditTypeUpdate}
}

// Policy is the resolved set of tunables for one run. Treat it as immutable.
type Policy struct {
	AutoAuditEnabled    bool
	AutoApproveTypes    []course.AuditType
	TimeoutHours        int
	AutoRejectOnTimeout bool
	SystemAuditor       string

	VersionRetentionDays  int
	AuditRetentionDays    int
	CourseGracePeriodDays int
	AutoCleanupExpired    bool

	// Warnings lists values that were ignored in favour of defaults.
	Warnings []*InvalidPolicyValueError
}

// Default returns the policy with every documented default.
func Default() Policy {
	return Policy{
		AutoAuditEnabled:      DefaultAutoAuditEnabled,
		AutoApproveTypes:      DefaultAutoApproveTypes(),
		TimeoutHours:          DefaultTimeoutHours,
		AutoRejectOnTimeout:   DefaultAutoRejectOnTimeout,
		SystemAuditor:         DefaultSystemAuditor,
		VersionRetentionDays:  DefaultVersionRetentionDays,
		AuditRetentionDays:    DefaultAuditRetentionDays,
		CourseGracePeriodDays: DefaultCourseGracePeriodDays,
		AutoCleanupExpired:    DefaultAutoCleanupExpired,
	}
}

// AllowsAutoApprove reports whether audits of type t may be auto-approved.
func (p Policy) AllowsAutoApprove(t course.AuditType) bool {
	for _, allowed := range p.AutoApproveTypes {
		if allowed == t {
			return true
		}
	}
	return false
}

// InvalidPolicyValueError records a configured value that could not be used.
type InvalidPolicyValueError struct {
	Key     string
	Value   any
	Default any
	Reason  string
}

// Error implements the error interface.
func (e *InvalidPolicyValueError) Error() string {
	return fmt.Sprintf("invalid policy value for %s (%v): %s; using default %v", e.Key, e.Value, e.Reason, e.Default)
}

// Load resolves a Policy from src. A nil src yields Default().
func Load(src Source) Policy {
	p := Default()
	if src == nil {
		return p
	}

	l := &loader{src: src}
	p.AutoAuditEnabled = l.boolean(KeyAutoAuditEnabled, p.AutoAuditEnabled)
	p.AutoApproveTypes = l.auditTypes(KeyAutoApproveTypes, p.AutoApproveTypes)
	p.TimeoutHours = l.nonNegativeInt(KeyTimeoutHours, p.TimeoutHours, MaxTimeoutHours)
	p.AutoRejectOnTimeout = l.boolean(KeyAutoRejectOnTimeout, p.AutoRejectOnTimeout)
	p.SystemAuditor = l.str(KeySystemAuditor, p.SystemAuditor)
	p.VersionRetentionDays = l.nonNegativeInt(KeyVersionRetentionDays, p.VersionRetentionDays, MaxRetentionDays)
	p.AuditRetentionDays = l.nonNegativeInt(KeyAuditRetentionDays, p.AuditRetentionDays, MaxRetentionDays)
	p.CourseGracePeriodDays = l.nonNegativeInt(KeyCourseGracePeriodDays, p.CourseGracePeriodDays, MaxRetentionDays)
	p.AutoCleanupExpired = l.boolean(KeyAutoCleanupExpired, p.AutoCleanupExpired)
	p.Warnings = l.warnings

	return p
}

// LoadAndLog resolves a Policy and logs every ignored value.
func LoadAndLog(src Source, logger *slog.Logger) Policy {
	if logger == nil {
		logger = slog.Default()
	}
	p := Load(src)
	for _, w := range p.Warnings {
		logger.Warn("invalid policy value, using default",
			"key", w.Key,
			"value", w.Value,
			"default", w.Default,
			"reason", w.Reason,
		)
	}
	return p
}

type loader struct {
	src      Source
	warnings []*InvalidPolicyValueError
}

func (l *loader) invalid(key string, value, def any, reason string) {
	l.warnings = append(l.warnings, &InvalidPolicyValueError{Key: key, Value: value, Default: def, Reason: reason})
}

func (l *loader) boolean(key string, def bool) bool {
	raw, ok := l.src.Lookup(key)
	if !ok || raw == nil {
		return def
	}
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			l.invalid(key, raw, def, "not a boolean")
			return def
		}
		return b
	case int:
		if v == 0 || v == 1 {
			return v == 1
		}
	}
	l.invalid(key, raw, def, fmt.Sprintf("unexpected type %T", raw))
	return def
}

func (l *loader) nonNegativeInt(key string, def, limit int) int {
	raw, ok := l.src.Lookup(key)
	if !ok || raw == nil {
		return def
	}
	var n int
	switch v := raw.(type) {
	case int:
		n = v
	case int64:
		if v > int64(limit) {
			l.invalid(key, raw, def, fmt.Sprintf("must not exceed %d", limit))
			return def
		}
		n = int(v)
	case float64:
		if v != math.Trunc(v) {
			l.invalid(key, raw, def, "not an integer")
			return def
		}
		if v > float64(limit) {
			l.invalid(key, raw, def, fmt.Sprintf("must not exceed %d", limit))
			return def
		}
		n = int(v)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			l.invalid(key, raw, def, "not an integer")
			return def
		}
		n = parsed
	default:
		l.invalid(key, raw, def, fmt.Sprintf("unexpected type %T", raw))
		return def
	}
	if n < 0 {
		l.invalid(key, raw, def, "must not be negative")
		return def
	}
	if n > limit {
		l.invalid(key, raw, def, fmt.Sprintf("must not exceed %d", limit))
		return def
	}
	return n
}

func (l *loader) str(key string, def string) string {
	raw, ok := l.src.Lookup(key)
	if !ok || raw == nil {
		return def
	}
	s, isString := raw.(string)
	if !isString || strings.TrimSpace(s) == "" {
		l.invalid(key, raw, def, "must be a non-empty string")
		return def
	}
	return strings.TrimSpace(s)
}

func (l *loader) auditTypes(key string, def []course.AuditType) []course.AuditType {
	raw, ok := l.src.Lookup(key)
	if !ok || raw == nil {
		return def
	}

	var items []string
	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
	case []string:
		items = v
	case []any:
		for _, item := range v {
			s, isString := item.(string)
			if !isString {
				l.invalid(key, raw, def, fmt.Sprintf("list element of type %T", item))
				return def
			}
			items = append(items, s)
		}
	default:
		l.invalid(key, raw, def, fmt.Sprintf("unexpected type %T", raw))
		return def
	}

	types := make([]course.AuditType, 0, len(items))
	for _, item := range items {
		t, valid := course.ParseAuditType(strings.TrimSpace(item))
		if !valid {
			l.invalid(key, raw, def, fmt.Sprintf("unknown audit type %q", item))
			return def
		}
		types = append(types, t)
	}
	return types
}
