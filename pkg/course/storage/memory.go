package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"courseware-hq/steward/pkg/course"
)

type opKind string

const (
	opPersist opKind = "persist"
	opRemove  opKind = "remove"
)

// mutation is a staged change waiting for Flush.
type mutation struct {
	op     opKind
	entity course.Entity
}

// MemoryStorage implements course.Store and course.MetricsSource in memory.
// It is intended for tests and for dry runs against fixture data.
type MemoryStorage struct {
	courses    map[int64]*course.Course
	audits     map[int64]*course.AuditRecord
	versions   map[int64]*course.CourseVersion
	engagement map[int64]*course.EngagementSnapshot
	settings   map[string]string
	staged     []mutation
	flushes    int
	mu         sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		courses:    make(map[int64]*course.Course),
		audits:     make(map[int64]*course.AuditRecord),
		versions:   make(map[int64]*course.CourseVersion),
		engagement: make(map[int64]*course.EngagementSnapshot),
		settings:   make(map[string]string),
	}
}

// AddCourse stores a copy of c, replacing any course with the same ID.
func (s *MemoryStorage) AddCourse(c *course.Course) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.courses[c.ID] = &cp
}

// AddAudit stores a copy of a.
func (s *MemoryStorage) AddAudit(a *course.AuditRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.audits[a.ID] = &cp
}

// AddVersion stores a copy of v.
func (s *MemoryStorage) AddVersion(v *course.CourseVersion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	s.versions[v.ID] = &cp
}

// SetEngagement sets the engagement snapshot returned for a course.
func (s *MemoryStorage) SetEngagement(courseID int64, snap *course.EngagementSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *snap
	s.engagement[courseID] = &cp
}

// SetConfigValue stores a system configuration value.
func (s *MemoryStorage) SetConfigValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = value
}

// Lookup returns a system configuration value. It implements policy.Source.
func (s *MemoryStorage) Lookup(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.settings[key]
	if !ok {
		return nil, false
	}
	return v, true
}

// GetAudit returns a copy of the audit record with the given ID.
func (s *MemoryStorage) GetAudit(ctx context.Context, id int64) (*course.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.audits[id]
	if !ok {
		return nil, course.NewNotFoundError(course.KindAudit, id)
	}
	cp := *a
	return &cp, nil
}

// GetVersion returns a copy of the version with the given ID.
func (s *MemoryStorage) GetVersion(ctx context.Context, id int64) (*course.CourseVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, course.NewNotFoundError(course.KindVersion, id)
	}
	cp := *v
	return &cp, nil
}

// GetCourse returns a copy of the course with the given ID.
func (s *MemoryStorage) GetCourse(ctx context.Context, id int64) (*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, course.NewNotFoundError(course.KindCourse, id)
	}
	cp := *c
	return &cp, nil
}

// FindCourses retrieves courses matching the query filters.
func (s *MemoryStorage) FindCourses(ctx context.Context, query *course.Query) ([]*course.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*course.Course{}
	for _, c := range s.courses {
		if query.Valid != nil && c.Valid != *query.Valid {
			continue
		}
		if query.ID != 0 && c.ID != query.ID {
			continue
		}
		if query.CreatedBefore != nil && c.CreatedAt.After(*query.CreatedBefore) {
			continue
		}
		if query.CourseID != 0 && c.ID != query.CourseID {
			continue
		}
		cp := *c
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return paginate(results, query), nil
}

// FindAudits retrieves audit records matching the query filters.
func (s *MemoryStorage) FindAudits(ctx context.Context, query *course.Query) ([]*course.AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*course.AuditRecord{}
	for _, a := range s.audits {
		if query.Status != "" && string(a.Status) != query.Status {
			continue
		}
		if query.ID != 0 && a.ID != query.ID {
			continue
		}
		if query.CreatedBefore != nil && a.CreatedAt.After(*query.CreatedBefore) {
			continue
		}
		if query.CourseID != 0 && a.CourseID != query.CourseID {
			continue
		}
		cp := *a
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return paginate(results, query), nil
}

// FindVersions retrieves course versions matching the query filters.
func (s *MemoryStorage) FindVersions(ctx context.Context, query *course.Query) ([]*course.CourseVersion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := []*course.CourseVersion{}
	for _, v := range s.versions {
		if query.Status != "" && string(v.Status) != query.Status {
			continue
		}
		if query.ID != 0 && v.ID != query.ID {
			continue
		}
		if query.CreatedBefore != nil && v.CreatedAt.After(*query.CreatedBefore) {
			continue
		}
		if query.CourseID != 0 && v.CourseID != query.CourseID {
			continue
		}
		cp := *v
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return paginate(results, query), nil
}

// Engagement returns the snapshot set with SetEngagement, or nil.
func (s *MemoryStorage) Engagement(ctx context.Context, courseID int64) (*course.EngagementSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.courses[courseID]; !ok {
		return nil, course.NewNotFoundError(course.KindCourse, courseID)
	}
	snap, ok := s.engagement[courseID]
	if !ok {
		return nil, nil
	}
	cp := *snap
	return &cp, nil
}

// Persist stages an update of an existing entity.
func (s *MemoryStorage) Persist(ctx context.Context, entity course.Entity) error {
	return s.stage(opPersist, entity)
}

// Remove stages a deletion.
func (s *MemoryStorage) Remove(ctx context.Context, entity course.Entity) error {
	return s.stage(opRemove, entity)
}

func (s *MemoryStorage) stage(op opKind, entity course.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.existsLocked(entity) {
		return course.NewNotFoundError(entity.EntityKind(), entity.EntityID())
	}
	cp, err := copyEntity(entity)
	if err != nil {
		return course.NewStorageError("memory", string(op), err)
	}
	s.staged = append(s.staged, mutation{op: op, entity: cp})
	return nil
}

// Flush applies all staged mutations. Mutations targeting entities that
// vanished after staging are skipped and not counted.
func (s *MemoryStorage) Flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.staged
	s.staged = nil
	if len(staged) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, course.NewStorageError("memory", "flush", err)
	}

	applied := 0
	for _, m := range staged {
		if !s.existsLocked(m.entity) {
			continue
		}
		switch m.op {
		case opPersist:
			s.putLocked(m.entity)
		case opRemove:
			s.deleteLocked(m.entity)
		}
		applied++
	}
	s.flushes++
	return applied, nil
}

// Discard drops staged mutations.
func (s *MemoryStorage) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = nil
}

// Staged returns the number of mutations waiting for Flush.
func (s *MemoryStorage) Staged() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.staged)
}

// FlushCount returns how many non-empty flushes have been applied.
func (s *MemoryStorage) FlushCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flushes
}

// Ping implements a health check.
func (s *MemoryStorage) Ping(ctx context.Context) error {
	return nil
}

// Close releases resources held by the storage backend.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.courses = make(map[int64]*course.Course)
	s.audits = make(map[int64]*course.AuditRecord)
	s.versions = make(map[int64]*course.CourseVersion)
	s.engagement = make(map[int64]*course.EngagementSnapshot)
	s.staged = nil
	return nil
}

func (s *MemoryStorage) existsLocked(entity course.Entity) bool {
	id := entity.EntityID()
	switch entity.EntityKind() {
	case course.KindCourse:
		_, ok := s.courses[id]
		return ok
	case course.KindAudit:
		_, ok := s.audits[id]
		return ok
	case course.KindVersion:
		_, ok := s.versions[id]
		return ok
	}
	return false
}

func (s *MemoryStorage) putLocked(entity course.Entity) {
	switch e := entity.(type) {
	case *course.Course:
		s.courses[e.ID] = e
	case *course.AuditRecord:
		s.audits[e.ID] = e
	case *course.CourseVersion:
		s.versions[e.ID] = e
	}
}

func (s *MemoryStorage) deleteLocked(entity course.Entity) {
	id := entity.EntityID()
	switch entity.EntityKind() {
	case course.KindCourse:
		delete(s.courses, id)
		delete(s.engagement, id)
		for aid, a := range s.audits {
			if a.CourseID == id {
				delete(s.audits, aid)
			}
		}
		for vid, v := range s.versions {
			if v.CourseID == id {
				delete(s.versions, vid)
			}
		}
	case course.KindAudit:
		delete(s.audits, id)
	case course.KindVersion:
		delete(s.versions, id)
	}
}

func copyEntity(entity course.Entity) (course.Entity, error) {
	switch e := entity.(type) {
	case *course.Course:
		cp := *e
		return &cp, nil
	case *course.AuditRecord:
		cp := *e
		return &cp, nil
	case *course.CourseVersion:
		cp := *e
		return &cp, nil
	}
	return nil, fmt.Errorf("unsupported entity type %T", entity)
}

func paginate[T any](items []T, query *course.Query) []T {
	start := query.Offset
	if start > len(items) {
		return []T{}
	}
	items = items[start:]
	if query.Limit > 0 && query.Limit < len(items) {
		items = items[:query.Limit]
	}
	return items
}
