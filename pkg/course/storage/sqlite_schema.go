package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the course database schema.
// Timestamps are stored as Unix nanoseconds so that both SQLite drivers
// compare them identically.
const Schema = `
-- Courses
CREATE TABLE IF NOT EXISTS courses (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    valid BOOLEAN NOT NULL DEFAULT 1,
    title TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    cover TEXT NOT NULL DEFAULT '',
    learn_hour REAL,
    price REAL,
    created_at INTEGER NOT NULL,

    -- Content counters
    chapter_count INTEGER NOT NULL DEFAULT 0,
    lesson_count INTEGER NOT NULL DEFAULT 0,
    outline_count INTEGER NOT NULL DEFAULT 0,
    published_outline_count INTEGER NOT NULL DEFAULT 0,
    video_count INTEGER NOT NULL DEFAULT 0,

    -- Engagement counters
    collect_count INTEGER NOT NULL DEFAULT 0,
    evaluation_count INTEGER NOT NULL DEFAULT 0
);

-- Audit records
CREATE TABLE IF NOT EXISTS course_audits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL,
    status TEXT NOT NULL,
    audit_type TEXT NOT NULL,
    auditor TEXT,
    comment TEXT NOT NULL DEFAULT '',
    decided_at INTEGER,
    created_at INTEGER NOT NULL,
    priority INTEGER NOT NULL DEFAULT 0,
    deadline INTEGER
);

-- Course versions
CREATE TABLE IF NOT EXISTS course_versions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL,
    label TEXT NOT NULL,
    status TEXT NOT NULL,
    is_current BOOLEAN NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL
);

-- Individual evaluations (ratings 1-5)
CREATE TABLE IF NOT EXISTS course_evaluations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    course_id INTEGER NOT NULL,
    rating INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
    created_at INTEGER NOT NULL
);

-- Runtime policy values
CREATE TABLE IF NOT EXISTS system_config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_courses_valid_created ON courses(valid, created_at);
CREATE INDEX IF NOT EXISTS idx_audits_status_created ON course_audits(status, created_at);
CREATE INDEX IF NOT EXISTS idx_audits_course_id ON course_audits(course_id);
CREATE INDEX IF NOT EXISTS idx_versions_created ON course_versions(created_at);
CREATE INDEX IF NOT EXISTS idx_versions_course_id ON course_versions(course_id);
CREATE INDEX IF NOT EXISTS idx_evaluations_course_id ON course_evaluations(course_id);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
