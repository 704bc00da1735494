// Package storage provides storage backends for courses, audit records and
// course versions.
//
// # Storage Backends
//
//   - SQLite: Embedded database for single-node deployments
//   - Memory: In-memory storage for tests and fixture-driven dry runs
//
// Both backends implement course.Store (staged persistence),
// course.MetricsSource (read-only aggregates) and policy.Source (the
// system_config key/value table).
//
// # SQLite Drivers
//
// Two database/sql drivers are supported and selected with SQLiteConfig.Driver:
//
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, default)
//   - "sqlite":  modernc.org/sqlite (pure Go, for CGO_ENABLED=0 builds)
//
// # Staged Mutations
//
// Persist and Remove verify that the entity still exists and stage a copy.
// Flush applies every staged mutation in one transaction:
//
//	_ = store.Persist(ctx, audit)
//	_ = store.Remove(ctx, version)
//	applied, err := store.Flush(ctx)
//
// A failed flush rolls back and clears the staging area, so one task's
// mutations never leak into the next task's flush.
package storage
