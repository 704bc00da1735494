package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"courseware-hq/steward/pkg/course"
)

const (
	// DriverCGO selects github.com/mattn/go-sqlite3.
	DriverCGO = "sqlite3"

	// DriverPureGo selects modernc.org/sqlite.
	DriverPureGo = "sqlite"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver is the database/sql driver name: "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging mode for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/steward.db",
		Driver:       DriverCGO,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements course.Store and course.MetricsSource using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	staged []mutation
	mu     sync.Mutex
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode if configured.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = DriverCGO
	}
	if config.Driver != DriverCGO && config.Driver != DriverPureGo {
		return nil, course.NewStorageError("sqlite", "open", fmt.Errorf("unsupported driver %q", config.Driver))
	}

	logger := slog.Default().With("component", "course.storage.sqlite")

	if dir := filepath.Dir(config.Path); config.Path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, course.NewStorageError("sqlite", "open", err)
		}
	}

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, course.NewStorageError("sqlite", "open", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		// journal_mode returns a row, so read it instead of Exec.
		var mode string
		if err := s.db.QueryRow("PRAGMA journal_mode=WAL;").Scan(&mode); err != nil {
			return course.NewStorageError("sqlite", "enable_wal", err)
		}
		s.logger.Debug("WAL mode enabled", "journal_mode", mode)
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return course.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return course.NewStorageError("sqlite", "create_schema", err)
	}
	s.logger.Debug("database schema created")

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return course.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return course.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return course.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

const courseColumns = `id, valid, title, description, cover, learn_hour, price, created_at,
	chapter_count, lesson_count, outline_count, published_outline_count, video_count,
	collect_count, evaluation_count`

const auditColumns = `id, course_id, status, audit_type, auditor, comment, decided_at, created_at, priority, deadline`

const versionColumns = `id, course_id, label, status, is_current, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (*course.Course, error) {
	var (
		c         course.Course
		learnHour sql.NullFloat64
		price     sql.NullFloat64
		created   int64
	)
	err := row.Scan(&c.ID, &c.Valid, &c.Title, &c.Description, &c.Cover, &learnHour, &price, &created,
		&c.Content.Chapters, &c.Content.Lessons, &c.Content.Outlines, &c.Content.PublishedOutlines, &c.Content.Videos,
		&c.CollectCount, &c.EvaluationCount)
	if err != nil {
		return nil, err
	}
	c.LearnHour = floatPtr(learnHour)
	c.Price = floatPtr(price)
	c.CreatedAt = fromNanos(created)
	return &c, nil
}

func scanAudit(row scanner) (*course.AuditRecord, error) {
	var (
		a         course.AuditRecord
		status    string
		auditType string
		auditor   sql.NullString
		decidedAt sql.NullInt64
		created   int64
		deadline  sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.CourseID, &status, &auditType, &auditor, &a.Comment, &decidedAt, &created, &a.Priority, &deadline)
	if err != nil {
		return nil, err
	}
	a.Status = course.AuditStatus(status)
	a.Type = course.AuditType(auditType)
	if auditor.Valid {
		name := auditor.String
		a.Auditor = &name
	}
	a.DecidedAt = timePtr(decidedAt)
	a.CreatedAt = fromNanos(created)
	a.Deadline = timePtr(deadline)
	return &a, nil
}

func scanVersion(row scanner) (*course.CourseVersion, error) {
	var (
		v       course.CourseVersion
		status  string
		created int64
	)
	if err := row.Scan(&v.ID, &v.CourseID, &v.Label, &status, &v.IsCurrent, &created); err != nil {
		return nil, err
	}
	v.Status = course.VersionStatus(status)
	v.CreatedAt = fromNanos(created)
	return &v, nil
}

// GetCourse returns the course with the given ID.
func (s *SQLiteStorage) GetCourse(ctx context.Context, id int64) (*course.Course, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+courseColumns+" FROM courses WHERE id = ?", id)
	c, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, course.NewNotFoundError(course.KindCourse, id)
	}
	if err != nil {
		return nil, course.NewStorageError("sqlite", "get_course", err)
	}
	return c, nil
}

// FindCourses retrieves courses matching the query filters.
func (s *SQLiteStorage) FindCourses(ctx context.Context, query *course.Query) ([]*course.Course, error) {
	var where []string
	var args []any
	if query.ID != 0 {
		where = append(where, "id = ?")
		args = append(args, query.ID)
	}
	if query.Valid != nil {
		where = append(where, "valid = ?")
		args = append(args, *query.Valid)
	}
	if query.CreatedBefore != nil {
		where = append(where, "created_at <= ?")
		args = append(args, query.CreatedBefore.UnixNano())
	}
	if query.CourseID != 0 {
		where = append(where, "id = ?")
		args = append(args, query.CourseID)
	}

	stmt, args := buildSelect("SELECT "+courseColumns+" FROM courses", where, args, query)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, course.NewStorageError("sqlite", "find_courses", err)
	}
	defer rows.Close()

	results := []*course.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, course.NewStorageError("sqlite", "scan_course", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, course.NewStorageError("sqlite", "find_courses", err)
	}
	return results, nil
}

// FindAudits retrieves audit records matching the query filters.
func (s *SQLiteStorage) FindAudits(ctx context.Context, query *course.Query) ([]*course.AuditRecord, error) {
	where, args := commonFilters(query)
	stmt, args := buildSelect("SELECT "+auditColumns+" FROM course_audits", where, args, query)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, course.NewStorageError("sqlite", "find_audits", err)
	}
	defer rows.Close()

	results := []*course.AuditRecord{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, course.NewStorageError("sqlite", "scan_audit", err)
		}
		results = append(results, a)
	}
	if err := rows.Err(); err != nil {
		return nil, course.NewStorageError("sqlite", "find_audits", err)
	}
	return results, nil
}

// FindVersions retrieves course versions matching the query filters.
func (s *SQLiteStorage) FindVersions(ctx context.Context, query *course.Query) ([]*course.CourseVersion, error) {
	where, args := commonFilters(query)
	stmt, args := buildSelect("SELECT "+versionColumns+" FROM course_versions", where, args, query)
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, course.NewStorageError("sqlite", "find_versions", err)
	}
	defer rows.Close()

	results := []*course.CourseVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, course.NewStorageError("sqlite", "scan_version", err)
		}
		results = append(results, v)
	}
	if err := rows.Err(); err != nil {
		return nil, course.NewStorageError("sqlite", "find_versions", err)
	}
	return results, nil
}

// Engagement aggregates collect and evaluation counters for a course.
// It returns nil when the course has neither collections nor evaluations.
func (s *SQLiteStorage) Engagement(ctx context.Context, courseID int64) (*course.EngagementSnapshot, error) {
	var snap course.EngagementSnapshot
	err := s.db.QueryRowContext(ctx,
		"SELECT collect_count, evaluation_count FROM courses WHERE id = ?", courseID,
	).Scan(&snap.CollectCount, &snap.EvaluationCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, course.NewNotFoundError(course.KindCourse, courseID)
	}
	if err != nil {
		return nil, course.NewStorageError("sqlite", "engagement", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT rating, COUNT(*) FROM course_evaluations WHERE course_id = ? GROUP BY rating", courseID)
	if err != nil {
		return nil, course.NewStorageError("sqlite", "rating_distribution", err)
	}
	defer rows.Close()

	rated, sum := 0, 0
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, course.NewStorageError("sqlite", "rating_distribution", err)
		}
		if rating < 1 || rating > 5 {
			continue
		}
		snap.RatingDistribution[rating-1] = count
		rated += count
		sum += rating * count
	}
	if err := rows.Err(); err != nil {
		return nil, course.NewStorageError("sqlite", "rating_distribution", err)
	}

	if snap.CollectCount == 0 && snap.EvaluationCount == 0 && rated == 0 {
		return nil, nil
	}
	if rated > 0 {
		snap.AverageRating = float64(sum) / float64(rated)
	}
	return &snap, nil
}

// Persist stages an update of an existing entity.
func (s *SQLiteStorage) Persist(ctx context.Context, entity course.Entity) error {
	return s.stage(ctx, opPersist, entity)
}

// Remove stages a deletion.
func (s *SQLiteStorage) Remove(ctx context.Context, entity course.Entity) error {
	return s.stage(ctx, opRemove, entity)
}

func (s *SQLiteStorage) stage(ctx context.Context, op opKind, entity course.Entity) error {
	table, err := tableFor(entity.EntityKind())
	if err != nil {
		return course.NewStorageError("sqlite", string(op), err)
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM "+table+" WHERE id = ?)", entity.EntityID()).Scan(&exists)
	if err != nil {
		return course.NewStorageError("sqlite", string(op), err)
	}
	if !exists {
		return course.NewNotFoundError(entity.EntityKind(), entity.EntityID())
	}

	cp, err := copyEntity(entity)
	if err != nil {
		return course.NewStorageError("sqlite", string(op), err)
	}

	s.mu.Lock()
	s.staged = append(s.staged, mutation{op: op, entity: cp})
	s.mu.Unlock()
	return nil
}

// Flush applies all staged mutations in a single transaction.
func (s *SQLiteStorage) Flush(ctx context.Context) (int, error) {
	s.mu.Lock()
	staged := s.staged
	s.staged = nil
	s.mu.Unlock()

	if len(staged) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, course.NewStorageError("sqlite", "begin", err)
	}

	applied := 0
	for _, m := range staged {
		n, err := applyMutation(ctx, tx, m)
		if err != nil {
			tx.Rollback()
			return 0, course.NewStorageError("sqlite", "flush", fmt.Errorf("%s %s %d: %w",
				m.op, m.entity.EntityKind(), m.entity.EntityID(), err))
		}
		if n > 0 {
			applied++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, course.NewStorageError("sqlite", "commit", err)
	}

	s.logger.Debug("flushed staged mutations", "staged", len(staged), "applied", applied)
	return applied, nil
}

// Discard drops staged mutations.
func (s *SQLiteStorage) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = nil
}

func applyMutation(ctx context.Context, tx *sql.Tx, m mutation) (int64, error) {
	var (
		res sql.Result
		err error
	)
	switch m.op {
	case opPersist:
		switch e := m.entity.(type) {
		case *course.Course:
			res, err = tx.ExecContext(ctx, `UPDATE courses SET valid = ?, title = ?, description = ?, cover = ?,
				learn_hour = ?, price = ?, chapter_count = ?, lesson_count = ?, outline_count = ?,
				published_outline_count = ?, video_count = ?, collect_count = ?, evaluation_count = ?
				WHERE id = ?`,
				e.Valid, e.Title, e.Description, e.Cover, nullFloat(e.LearnHour), nullFloat(e.Price),
				e.Content.Chapters, e.Content.Lessons, e.Content.Outlines, e.Content.PublishedOutlines,
				e.Content.Videos, e.CollectCount, e.EvaluationCount, e.ID)
		case *course.AuditRecord:
			res, err = tx.ExecContext(ctx, `UPDATE course_audits SET status = ?, audit_type = ?, auditor = ?,
				comment = ?, decided_at = ?, priority = ?, deadline = ? WHERE id = ?`,
				string(e.Status), string(e.Type), nullString(e.Auditor), e.Comment,
				nullTime(e.DecidedAt), e.Priority, nullTime(e.Deadline), e.ID)
		case *course.CourseVersion:
			res, err = tx.ExecContext(ctx, `UPDATE course_versions SET label = ?, status = ?, is_current = ?
				WHERE id = ?`, e.Label, string(e.Status), e.IsCurrent, e.ID)
		default:
			return 0, fmt.Errorf("unsupported entity type %T", m.entity)
		}
	case opRemove:
		id := m.entity.EntityID()
		if m.entity.EntityKind() == course.KindCourse {
			for _, child := range []string{"course_audits", "course_versions", "course_evaluations"} {
				if _, err := tx.ExecContext(ctx, "DELETE FROM "+child+" WHERE course_id = ?", id); err != nil {
					return 0, err
				}
			}
		}
		table, terr := tableFor(m.entity.EntityKind())
		if terr != nil {
			return 0, terr
		}
		res, err = tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// InsertCourse creates a course and sets its ID.
func (s *SQLiteStorage) InsertCourse(ctx context.Context, c *course.Course) error {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO courses (valid, title, description, cover, learn_hour, price,
		created_at, chapter_count, lesson_count, outline_count, published_outline_count, video_count,
		collect_count, evaluation_count) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Valid, c.Title, c.Description, c.Cover, nullFloat(c.LearnHour), nullFloat(c.Price),
		created.UnixNano(), c.Content.Chapters, c.Content.Lessons, c.Content.Outlines,
		c.Content.PublishedOutlines, c.Content.Videos, c.CollectCount, c.EvaluationCount)
	if err != nil {
		return course.NewStorageError("sqlite", "insert_course", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return course.NewStorageError("sqlite", "insert_course", err)
	}
	c.ID = id
	c.CreatedAt = created
	return nil
}

// InsertAudit creates an audit record and sets its ID.
func (s *SQLiteStorage) InsertAudit(ctx context.Context, a *course.AuditRecord) error {
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO course_audits (course_id, status, audit_type, auditor,
		comment, decided_at, created_at, priority, deadline) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CourseID, string(a.Status), string(a.Type), nullString(a.Auditor), a.Comment,
		nullTime(a.DecidedAt), created.UnixNano(), a.Priority, nullTime(a.Deadline))
	if err != nil {
		return course.NewStorageError("sqlite", "insert_audit", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return course.NewStorageError("sqlite", "insert_audit", err)
	}
	a.ID = id
	a.CreatedAt = created
	return nil
}

// InsertVersion creates a course version and sets its ID.
func (s *SQLiteStorage) InsertVersion(ctx context.Context, v *course.CourseVersion) error {
	created := v.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO course_versions (course_id, label, status, is_current, created_at)
		VALUES (?, ?, ?, ?, ?)`, v.CourseID, v.Label, string(v.Status), v.IsCurrent, created.UnixNano())
	if err != nil {
		return course.NewStorageError("sqlite", "insert_version", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return course.NewStorageError("sqlite", "insert_version", err)
	}
	v.ID = id
	v.CreatedAt = created
	return nil
}

// AddEvaluation records a rating for a course and bumps its evaluation counter.
func (s *SQLiteStorage) AddEvaluation(ctx context.Context, courseID int64, rating int, at time.Time) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating %d out of range 1-5", rating)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return course.NewStorageError("sqlite", "add_evaluation", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE courses SET evaluation_count = evaluation_count + 1 WHERE id = ?", courseID)
	if err != nil {
		return course.NewStorageError("sqlite", "add_evaluation", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.NewNotFoundError(course.KindCourse, courseID)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO course_evaluations (course_id, rating, created_at) VALUES (?, ?, ?)",
		courseID, rating, at.UnixNano()); err != nil {
		return course.NewStorageError("sqlite", "add_evaluation", err)
	}
	if err := tx.Commit(); err != nil {
		return course.NewStorageError("sqlite", "add_evaluation", err)
	}
	return nil
}

// SetConfigValue upserts a system configuration value.
func (s *SQLiteStorage) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO system_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return course.NewStorageError("sqlite", "set_config", err)
	}
	return nil
}

// Lookup returns a system configuration value. It implements policy.Source.
func (s *SQLiteStorage) Lookup(key string) (any, bool) {
	var value string
	err := s.db.QueryRow("SELECT value FROM system_config WHERE key = ?", key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("system config lookup failed", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

// Ping verifies the database connection.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	s.Discard()
	if err := s.db.Close(); err != nil {
		return course.NewStorageError("sqlite", "close", err)
	}
	return nil
}

func commonFilters(query *course.Query) ([]string, []any) {
	var where []string
	var args []any
	if query.ID != 0 {
		where = append(where, "id = ?")
		args = append(args, query.ID)
	}
	if query.Status != "" {
		where = append(where, "status = ?")
		args = append(args, query.Status)
	}
	if query.CreatedBefore != nil {
		where = append(where, "created_at <= ?")
		args = append(args, query.CreatedBefore.UnixNano())
	}
	if query.CourseID != 0 {
		where = append(where, "course_id = ?")
		args = append(args, query.CourseID)
	}
	return where, args
}

func buildSelect(base string, where []string, args []any, query *course.Query) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY id")
	switch {
	case query.Limit > 0:
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, query.Limit, query.Offset)
	case query.Offset > 0:
		sb.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, query.Offset)
	}
	return sb.String(), args
}

func tableFor(kind course.Kind) (string, error) {
	switch kind {
	case course.KindCourse:
		return "courses", nil
	case course.KindAudit:
		return "course_audits", nil
	case course.KindVersion:
		return "course_versions", nil
	}
	return "", fmt.Errorf("unknown entity kind %q", kind)
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromNanos(v.Int64)
	return &t
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
