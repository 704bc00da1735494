package policy

import (
	"errors"
	"reflect"
	"testing"

	"courseware-hq/steward/pkg/course"
)

func TestLoad_Defaults(t *testing.T) {
	for name, src := range map[string]Source{"nil": nil, "empty": MapSource{}} {
		t.Run(name, func(t *testing.T) {
			p := Load(src)
			want := Default()
			if !reflect.DeepEqual(p, want) {
				t.Errorf("Load() = %+v, want %+v", p, want)
			}
			if len(p.Warnings) != 0 {
				t.Errorf("unexpected warnings: %v", p.Warnings)
			}
		})
	}
}

func TestLoad_TypedValues(t *testing.T) {
	src := MapSource{
		KeyAutoAuditEnabled:      true,
		KeyAutoApproveTypes:      []any{"update", "content"},
		KeyTimeoutHours:          48,
		KeyAutoRejectOnTimeout:   "true",
		KeySystemAuditor:         "robot",
		KeyVersionRetentionDays:  "14",
		KeyAuditRetentionDays:    float64(60),
		KeyCourseGracePeriodDays: 0,
		KeyAutoCleanupExpired:    "1",
	}

	p := Load(src)
	if len(p.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", p.Warnings)
	}

	if !p.AutoAuditEnabled || !p.AutoRejectOnTimeout || !p.AutoCleanupExpired {
		t.Errorf("flags not applied: %+v", p)
	}
	if p.TimeoutHours != 48 || p.VersionRetentionDays != 14 || p.AuditRetentionDays != 60 || p.CourseGracePeriodDays != 0 {
		t.Errorf("numbers not applied: %+v", p)
	}
	if p.SystemAuditor != "robot" {
		t.Errorf("SystemAuditor = %q", p.SystemAuditor)
	}
	wantTypes := []course.AuditType{course.AuditTypeUpdate, course.AuditTypeContent}
	if !reflect.DeepEqual(p.AutoApproveTypes, wantTypes) {
		t.Errorf("AutoApproveTypes = %v, want %v", p.AutoApproveTypes, wantTypes)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		check func(Policy) bool
	}{
		{"bool from junk string", KeyAutoAuditEnabled, "maybe", func(p Policy) bool { return p.AutoAuditEnabled == DefaultAutoAuditEnabled }},
		{"bool from map", KeyAutoCleanupExpired, map[string]any{}, func(p Policy) bool { return p.AutoCleanupExpired == DefaultAutoCleanupExpired }},
		{"int from junk string", KeyTimeoutHours, "three days", func(p Policy) bool { return p.TimeoutHours == DefaultTimeoutHours }},
		{"negative int", KeyVersionRetentionDays, -5, func(p Policy) bool { return p.VersionRetentionDays == DefaultVersionRetentionDays }},
		{"fractional float", KeyAuditRetentionDays, 1.5, func(p Policy) bool { return p.AuditRetentionDays == DefaultAuditRetentionDays }},
		{"timeout beyond duration range", KeyTimeoutHours, 3000000, func(p Policy) bool { return p.TimeoutHours == DefaultTimeoutHours }},
		{"huge float timeout", KeyTimeoutHours, 1e300, func(p Policy) bool { return p.TimeoutHours == DefaultTimeoutHours }},
		{"retention beyond duration range", KeyAuditRetentionDays, "200000", func(p Policy) bool { return p.AuditRetentionDays == DefaultAuditRetentionDays }},
		{"bool for int", KeyCourseGracePeriodDays, true, func(p Policy) bool { return p.CourseGracePeriodDays == DefaultCourseGracePeriodDays }},
		{"empty auditor", KeySystemAuditor, "  ", func(p Policy) bool { return p.SystemAuditor == DefaultSystemAuditor }},
		{"unknown audit type", KeyAutoApproveTypes, "update,bogus", func(p Policy) bool {
			return reflect.DeepEqual(p.AutoApproveTypes, DefaultAutoApproveTypes())
		}},
		{"non-string list element", KeyAutoApproveTypes, []any{"update", 3}, func(p Policy) bool {
			return reflect.DeepEqual(p.AutoApproveTypes, DefaultAutoApproveTypes())
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Load(MapSource{tt.key: tt.value})
			if !tt.check(p) {
				t.Errorf("value %v for %s was not replaced by default: %+v", tt.value, tt.key, p)
			}
			if len(p.Warnings) != 1 {
				t.Fatalf("got %d warnings, want 1", len(p.Warnings))
			}
			var ipv *InvalidPolicyValueError
			if !errors.As(error(p.Warnings[0]), &ipv) || ipv.Key != tt.key {
				t.Errorf("warning = %v, want key %s", p.Warnings[0], tt.key)
			}
		})
	}
}

func TestLoad_CommaSeparatedTypes(t *testing.T) {
	p := Load(MapSource{KeyAutoApproveTypes: " update , final "})
	want := []course.AuditType{course.AuditTypeUpdate, course.AuditTypeFinal}
	if !reflect.DeepEqual(p.AutoApproveTypes, want) {
		t.Errorf("AutoApproveTypes = %v, want %v", p.AutoApproveTypes, want)
	}
	if !p.AllowsAutoApprove(course.AuditTypeFinal) || p.AllowsAutoApprove(course.AuditTypeQuality) {
		t.Error("AllowsAutoApprove() does not match configured types")
	}
}

func TestLayered_FirstHitWins(t *testing.T) {
	db := MapSource{KeyTimeoutHours: "24"}
	file := MapSource{KeyTimeoutHours: 96, KeySystemAuditor: "file-bot"}

	p := Load(Layered(nil, db, file))
	if p.TimeoutHours != 24 {
		t.Errorf("TimeoutHours = %d, want 24 from first source", p.TimeoutHours)
	}
	if p.SystemAuditor != "file-bot" {
		t.Errorf("SystemAuditor = %q, want fallthrough to second source", p.SystemAuditor)
	}
	if _, ok := Layered().Lookup(KeyTimeoutHours); ok {
		t.Error("empty Layered() should report no value")
	}
}
