// Package store provides persistence for snippets and the shared network
// snippet list.
//
// # Backends
//
//   - SQLiteStore: database/sql with the pure Go "sqlite" driver
//     (modernc.org/sqlite) or the cgo "sqlite3" driver (mattn/go-sqlite3)
//   - MemoryStore: in-memory, thread-safe, used by tests and dry runs
//   - CachedStore: wraps any Store and caches active snippet lists across
//     requests until a write or an explicit invalidation
//
// # Ordering
//
// FetchActive returns network rows before site rows. Within a table rows are
// ordered by priority, then id, both ascending. A network row counts as
// active when its own flag is set or when its id appears in the shared
// network list.
//
// # Maintenance
//
// SQLiteStore implements Maintainer. MaintenanceScheduler runs Maintain on a
// cron schedule to checkpoint the WAL and refresh query planner statistics.
package store
