package course

import (
	"context"
	"time"
)

// Kind identifies the type of a persisted entity.
type Kind string

const (
	KindCourse  Kind = "course"
	KindAudit   Kind = "audit"
	KindVersion Kind = "version"
)

// Entity is the capability contract shared by all persisted entities.
type Entity interface {
	EntityKind() Kind
	EntityID() int64
}

// ContentBreakdown counts the content attached to a course.
type ContentBreakdown struct {
	Chapters          int `json:"chapters"`
	Lessons           int `json:"lessons"` // across all chapters
	Outlines          int `json:"outlines"`
	PublishedOutlines int `json:"published_outlines"`
	Videos            int `json:"videos"`
}

// Course is a catalog entry.
type Course struct {
	ID          int64  `json:"id"`
	Valid       bool   `json:"valid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Cover       string `json:"cover"`

	// LearnHour and Price are optional; nil means "not set".
	LearnHour *float64 `json:"learn_hour,omitempty"`
	Price     *float64 `json:"price,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	Content         ContentBreakdown `json:"content"`
	CollectCount    int              `json:"collect_count"`
	EvaluationCount int              `json:"evaluation_count"`
}

// EntityKind implements Entity.
func (c *Course) EntityKind() Kind { return KindCourse }

// EntityID implements Entity.
func (c *Course) EntityID() int64 { return c.ID }

// HasEngagement reports whether anyone collected or evaluated the course.
func (c *Course) HasEngagement() bool {
	return c.CollectCount > 0 || c.EvaluationCount > 0
}

// CourseVersion is a snapshot of a course created on publish.
type CourseVersion struct {
	ID        int64         `json:"id"`
	CourseID  int64         `json:"course_id"`
	Label     string        `json:"label"`
	Status    VersionStatus `json:"status"`
	IsCurrent bool          `json:"is_current"`
	CreatedAt time.Time     `json:"created_at"`
}

// EntityKind implements Entity.
func (v *CourseVersion) EntityKind() Kind { return KindVersion }

// EntityID implements Entity.
func (v *CourseVersion) EntityID() int64 { return v.ID }

// EngagementSnapshot aggregates engagement counters for one course at
// evaluation time. It is derived, never persisted.
type EngagementSnapshot struct {
	CollectCount    int `json:"collect_count"`
	EvaluationCount int `json:"evaluation_count"`

	// RatingDistribution counts evaluations per star; index 0 is one star.
	RatingDistribution [5]int `json:"rating_distribution"`

	AverageRating float64 `json:"average_rating"`
}

// Query is the coarse pre-filter used to fetch candidate entities.
// Zero-valued fields do not filter.
type Query struct {
	// ID matches a single entity.
	ID int64 `json:"id,omitempty"`

	// Status matches AuditStatus or VersionStatus values.
	Status string `json:"status,omitempty"`

	// Valid filters courses by validity flag.
	Valid *bool `json:"valid,omitempty"`

	// CreatedBefore is inclusive.
	CreatedBefore *time.Time `json:"created_before,omitempty"`

	CourseID int64 `json:"course_id,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store is the persistence collaborator used by the batch orchestrator.
// Results are ordered by ID ascending. Persist and Remove only stage a
// mutation; Flush applies every staged mutation atomically.
type Store interface {
	FindCourses(ctx context.Context, query *Query) ([]*Course, error)
	FindAudits(ctx context.Context, query *Query) ([]*AuditRecord, error)
	FindVersions(ctx context.Context, query *Query) ([]*CourseVersion, error)

	// GetCourse returns ErrNotFound if the course does not exist.
	GetCourse(ctx context.Context, id int64) (*Course, error)

	// Persist stages an update of an existing entity.
	// Returns ErrNotFound if the entity no longer exists.
	Persist(ctx context.Context, entity Entity) error

	// Remove stages a deletion. Removing a course also removes its audit
	// records and versions.
	Remove(ctx context.Context, entity Entity) error

	// Flush applies all staged mutations and returns how many were applied.
	// On error nothing is applied and the staging area is cleared.
	Flush(ctx context.Context) (int, error)

	// Discard drops staged mutations without applying them.
	Discard()

	Close() error
}

// MetricsSource provides read-only aggregates used by the scoring engine.
type MetricsSource interface {
	GetCourse(ctx context.Context, id int64) (*Course, error)
	FindCourses(ctx context.Context, query *Query) ([]*Course, error)

	// Engagement returns nil, nil when the course has no engagement data.
	Engagement(ctx context.Context, courseID int64) (*EngagementSnapshot, error)
}
