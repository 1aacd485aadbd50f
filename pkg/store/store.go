package store

import (
	"context"
	"fmt"

	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/snippet"
)

// SharedNetworkOption is the option name holding the list of network snippet
// ids that are active on every site.
const SharedNetworkOption = "active_shared_network_snippets"

// Store is the read/write surface the dispatchers need.
type Store interface {
	// FetchActive returns the active snippets whose scope is in scopes.
	FetchActive(ctx context.Context, scopes []snippet.Scope) ([]snippet.Snippet, error)

	// Deactivate clears the active flag of one row. Deactivating a missing
	// row is not an error.
	Deactivate(ctx context.Context, id int64, table string) error

	// SharedNetworkIDs returns the shared network snippet list.
	SharedNetworkIDs(ctx context.Context) ([]int64, error)

	// SetSharedNetworkIDs replaces the shared network snippet list.
	SetSharedNetworkIDs(ctx context.Context, ids []int64) error

	// Tables returns the table names. Network is empty when multisite is
	// disabled.
	Tables() snippet.Tables

	// InvalidateActive drops cached active lists that include table.
	InvalidateActive(table string)

	// InvalidateSnippets drops cached snippet data of table.
	InvalidateSnippets(table string)

	Close() error
}

// Admin adds the write helpers used by seeding and tests.
type Admin interface {
	Store

	// Insert stores s and returns its id. A zero s.ID allocates a new id;
	// an empty s.Table means the site table.
	Insert(ctx context.Context, s snippet.Snippet, active bool) (int64, error)

	// Get returns one row and its active flag, or ErrNotFound.
	Get(ctx context.Context, id int64, table string) (*snippet.Snippet, bool, error)
}

// Maintainer is implemented by backends with periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// Options configures a store backend.
type Options struct {
	// Tables names the site and network tables.
	Tables snippet.Tables

	// Multisite enables the network table. When false Tables.Network is
	// ignored.
	Multisite bool
}

func (o Options) tables() snippet.Tables {
	t := o.Tables
	if t.Site == "" {
		t.Site = snippet.DefaultSiteTable
	}
	if !o.Multisite {
		t.Network = ""
	} else if t.Network == "" {
		t.Network = snippet.DefaultNetworkTable
	}
	return t
}

// orderedTables lists the tables in query order: network first.
func orderedTables(t snippet.Tables) []string {
	if t.Network != "" {
		return []string{t.Network, t.Site}
	}
	return []string{t.Site}
}

// resolveTable maps an empty table to the site table and rejects unknown names.
func resolveTable(t snippet.Tables, table string) (string, error) {
	if table == "" {
		return t.Site, nil
	}
	if !t.Has(table) {
		return "", fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	return table, nil
}

// Open builds the backend selected by cfg. The returned store is wrapped in
// a CachedStore when cfg.Cache is set; rec may be nil.
func Open(cfg *config.StoreConfig, rec CacheRecorder) (Admin, error) {
	opts := Options{
		Tables:    snippet.Tables{Site: cfg.Table, Network: cfg.NetworkTable},
		Multisite: cfg.Multisite,
	}

	var (
		backend Admin
		err     error
	)
	switch cfg.Driver {
	case "memory":
		backend = NewMemoryStore(opts)
	case "sqlite", "sqlite3", "":
		backend, err = NewSQLiteStore(SQLiteConfig{
			Driver:      cfg.Driver,
			Path:        cfg.Path,
			BusyTimeout: cfg.BusyTimeout,
			Options:     opts,
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}

	if cfg.Cache {
		return NewCachedStore(backend, rec), nil
	}
	return backend, nil
}
