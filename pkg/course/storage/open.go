package storage

import (
	"context"
	"fmt"

	"courseware-hq/steward/pkg/course"
)

// Backend is the full surface a storage backend offers to Steward.
type Backend interface {
	course.Store
	course.MetricsSource

	// Lookup reads the system_config table.
	Lookup(key string) (any, bool)

	Ping(ctx context.Context) error
}

var (
	_ Backend = (*MemoryStorage)(nil)
	_ Backend = (*SQLiteStorage)(nil)
)

// Open creates the backend named by backendType ("sqlite" or "memory").
func Open(backendType string, sqliteConfig *SQLiteConfig) (Backend, error) {
	switch backendType {
	case "sqlite", "":
		return NewSQLiteStorage(sqliteConfig)
	case "memory":
		return NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: sqlite, memory)", backendType)
	}
}
