package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // "sqlite3" driver (cgo)
	_ "modernc.org/sqlite"          // "sqlite" driver (pure Go)

	"mercator-hq/snippets/pkg/snippet"
)

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	// Driver is the database/sql driver name: "sqlite" or "sqlite3".
	// Default: "sqlite"
	Driver string

	// Path is the database file path. ":memory:" opens a private in-memory
	// database.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// Options names the tables and enables multisite.
	Options Options

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// tableStmts holds the prepared statements of one snippet table.
type tableStmts struct {
	insert     *sql.Stmt
	get        *sql.Stmt
	deactivate *sql.Stmt
}

// SQLiteStore implements Admin on top of SQLite.
//
// The connection pool is limited to a single connection: SQLite allows one
// writer and the pragmas in the DSN apply per connection.
type SQLiteStore struct {
	db        *sql.DB
	driver    string
	tables    snippet.Tables
	logger    *slog.Logger
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	stmts         map[string]*tableStmts
	getOptionStmt *sql.Stmt
	setOptionStmt *sql.Stmt
}

// NewSQLiteStore opens the database, creates the schema and prepares
// statements.
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store.sqlite")

	tables := cfg.Options.tables()
	for _, t := range orderedTables(tables) {
		if !validIdentifier(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}

	dsn, err := buildDSN(cfg.Driver, cfg.Path, cfg.BusyTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, newQueryError("sqlite", "open", "", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLiteStore{
		db:     db,
		driver: cfg.Driver,
		tables: tables,
		logger: logger,
		stmts:  make(map[string]*tableStmts),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.Info("SQLite store initialized",
		"driver", cfg.Driver,
		"path", cfg.Path,
		"site_table", tables.Site,
		"network_table", tables.Network,
	)

	return s, nil
}

// buildDSN adds WAL and busy timeout pragmas in the syntax of each driver.
func buildDSN(driver, path string, busy time.Duration) (string, error) {
	ms := busy.Milliseconds()
	switch driver {
	case "sqlite":
		return fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path, ms), nil
	case "sqlite3":
		return fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_synchronous=NORMAL", path, ms), nil
	default:
		return "", fmt.Errorf("unsupported sqlite driver %q", driver)
	}
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func (s *SQLiteStore) initSchema() error {
	var b strings.Builder
	for _, t := range orderedTables(s.tables) {
		fmt.Fprintf(&b, `
	CREATE TABLE IF NOT EXISTS "%[1]s" (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT '',
		code TEXT NOT NULL DEFAULT '',
		scope TEXT NOT NULL DEFAULT 'global',
		condition_id INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 10,
		active INTEGER NOT NULL DEFAULT 0,
		modified INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS "idx_%[1]s_active_scope" ON "%[1]s"(active, scope);
	`, t)
	}
	b.WriteString(`
	CREATE TABLE IF NOT EXISTS snippet_options (
		name TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`)

	_, err := s.db.Exec(b.String())
	return err
}

func (s *SQLiteStore) prepareStatements() error {
	var err error
	for _, t := range orderedTables(s.tables) {
		ts := &tableStmts{}

		ts.insert, err = s.db.Prepare(fmt.Sprintf(`
			INSERT INTO "%s" (id, name, code, scope, condition_id, priority, active, modified)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, t))
		if err != nil {
			return fmt.Errorf("failed to prepare insert statement for %s: %w", t, err)
		}

		ts.get, err = s.db.Prepare(fmt.Sprintf(`
			SELECT id, name, code, scope, condition_id, priority, active
			FROM "%s"
			WHERE id = ?
		`, t))
		if err != nil {
			return fmt.Errorf("failed to prepare get statement for %s: %w", t, err)
		}

		ts.deactivate, err = s.db.Prepare(fmt.Sprintf(`
			UPDATE "%s" SET active = 0, modified = ? WHERE id = ?
		`, t))
		if err != nil {
			return fmt.Errorf("failed to prepare deactivate statement for %s: %w", t, err)
		}

		s.stmts[t] = ts
	}

	s.getOptionStmt, err = s.db.Prepare(`SELECT value FROM snippet_options WHERE name = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare option read statement: %w", err)
	}

	s.setOptionStmt, err = s.db.Prepare(`
		INSERT INTO snippet_options (name, value) VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare option write statement: %w", err)
	}

	return nil
}

// Tables returns the configured table names.
func (s *SQLiteStore) Tables() snippet.Tables {
	return s.tables
}

// FetchActive returns active snippets of the given scopes, network rows first.
func (s *SQLiteStore) FetchActive(ctx context.Context, scopes []snippet.Scope) ([]snippet.Snippet, error) {
	if len(scopes) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var shared []int64
	if s.tables.Network != "" {
		var err error
		shared, err = s.sharedIDs(ctx)
		if err != nil {
			return nil, err
		}
	}

	var result []snippet.Snippet
	for _, table := range orderedTables(s.tables) {
		var include []int64
		if s.tables.IsNetwork(table) {
			include = shared
		}

		rows, err := s.fetchTable(ctx, table, scopes, include)
		if err != nil {
			return nil, newQueryError("sqlite", "fetch_active", table, err)
		}
		result = append(result, rows...)
	}

	return result, nil
}

func (s *SQLiteStore) fetchTable(ctx context.Context, table string, scopes []snippet.Scope, include []int64) ([]snippet.Snippet, error) {
	args := make([]any, 0, len(include)+len(scopes))

	activeClause := "active = 1"
	if len(include) > 0 {
		activeClause = "(active = 1 OR id IN (" + placeholders(len(include)) + "))"
		for _, id := range include {
			args = append(args, id)
		}
	}
	for _, sc := range scopes {
		args = append(args, string(sc))
	}

	query := fmt.Sprintf(`
		SELECT id, name, code, scope, condition_id, priority
		FROM "%s"
		WHERE %s AND scope IN (%s)
		ORDER BY priority ASC, id ASC
	`, table, activeClause, placeholders(len(scopes)))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []snippet.Snippet
	for rows.Next() {
		var (
			sn    snippet.Snippet
			scope string
		)
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.Code, &scope, &sn.ConditionID, &sn.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		sn.Scope = snippet.Scope(scope)
		sn.Table = table
		out = append(out, sn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return out, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Deactivate clears the active flag of one row.
func (s *SQLiteStore) Deactivate(ctx context.Context, id int64, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	ts, ok := s.stmts[table]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}

	if _, err := ts.deactivate.ExecContext(ctx, time.Now().Unix(), id); err != nil {
		return newQueryError("sqlite", "deactivate", table, err)
	}
	return nil
}

// SharedNetworkIDs returns the shared network snippet list. A stored value
// that is not a JSON list of ids reads as empty.
func (s *SQLiteStore) SharedNetworkIDs(ctx context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.sharedIDs(ctx)
}

func (s *SQLiteStore) sharedIDs(ctx context.Context) ([]int64, error) {
	var raw string
	err := s.getOptionStmt.QueryRowContext(ctx, SharedNetworkOption).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, newQueryError("sqlite", "get_option", "", err)
	}
	return decodeIDList(raw), nil
}

// SetSharedNetworkIDs persists the shared network snippet list.
func (s *SQLiteStore) SetSharedNetworkIDs(ctx context.Context, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal shared network ids: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.setOptionStmt.ExecContext(ctx, SharedNetworkOption, string(data)); err != nil {
		return newQueryError("sqlite", "set_option", "", err)
	}
	return nil
}

func decodeIDList(raw string) []int64 {
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil
	}
	return ids
}

// Insert stores a snippet row and returns its id.
func (s *SQLiteStore) Insert(ctx context.Context, sn snippet.Snippet, active bool) (int64, error) {
	table, err := resolveTable(s.tables, sn.Table)
	if err != nil {
		return 0, err
	}
	if _, err := snippet.ParseScope(string(sn.Scope)); err != nil {
		return 0, err
	}

	var id any
	if sn.ID != 0 {
		id = sn.ID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.stmts[table].insert.ExecContext(ctx,
		id, sn.Name, sn.Code, string(sn.Scope), sn.ConditionID, sn.Priority, active, time.Now().Unix(),
	)
	if err != nil {
		return 0, newQueryError("sqlite", "insert", table, err)
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, newQueryError("sqlite", "insert", table, err)
	}
	return newID, nil
}

// Get returns one row and its active flag.
func (s *SQLiteStore) Get(ctx context.Context, id int64, table string) (*snippet.Snippet, bool, error) {
	table, err := resolveTable(s.tables, table)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}

	var (
		sn     snippet.Snippet
		scope  string
		active bool
	)
	err = s.stmts[table].get.QueryRowContext(ctx, id).Scan(
		&sn.ID, &sn.Name, &sn.Code, &scope, &sn.ConditionID, &sn.Priority, &active,
	)
	if err == sql.ErrNoRows {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, newQueryError("sqlite", "get", table, err)
	}

	sn.Scope, err = snippet.ParseScope(scope)
	if err != nil {
		return nil, false, newQueryError("sqlite", "get", table, err)
	}
	sn.Table = table
	return &sn, active, nil
}

// InvalidateActive is a no-op; SQLiteStore does not cache.
func (s *SQLiteStore) InvalidateActive(string) {}

// InvalidateSnippets is a no-op; SQLiteStore does not cache.
func (s *SQLiteStore) InvalidateSnippets(string) {}

// Maintain checkpoints the WAL and lets SQLite refresh planner statistics.
func (s *SQLiteStore) Maintain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		return newQueryError("sqlite", "checkpoint", "", err)
	}
	if _, err := s.db.ExecContext(ctx, "PRAGMA optimize"); err != nil {
		return newQueryError("sqlite", "optimize", "", err)
	}

	s.logger.Debug("store maintenance completed")
	return nil
}

// Close closes prepared statements and the database.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true

		for _, ts := range s.stmts {
			ts.insert.Close()
			ts.get.Close()
			ts.deactivate.Close()
		}
		if s.getOptionStmt != nil {
			s.getOptionStmt.Close()
		}
		if s.setOptionStmt != nil {
			s.setOptionStmt.Close()
		}

		// Final checkpoint so the database file is self-contained.
		s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		err = s.db.Close()
	})
	return err
}
