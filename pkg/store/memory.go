package store

import (
	"context"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"mercator-hq/snippets/pkg/snippet"
)

type memoryRow struct {
	snippet snippet.Snippet
	active  bool
}

// MemoryStore implements Admin using in-memory maps.
// All data is lost when the process exits.
//
// MemoryStore is thread-safe and counts FetchActive calls so tests can
// assert how often the dispatchers hit storage.
type MemoryStore struct {
	tables snippet.Tables

	mu     sync.RWMutex
	rows   map[string]map[int64]*memoryRow
	nextID map[string]int64
	shared []int64
	closed bool

	fetchCalls atomic.Int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts Options) *MemoryStore {
	tables := opts.tables()
	m := &MemoryStore{
		tables: tables,
		rows:   make(map[string]map[int64]*memoryRow),
		nextID: make(map[string]int64),
	}
	for _, t := range orderedTables(tables) {
		m.rows[t] = make(map[int64]*memoryRow)
	}
	return m
}

// Tables returns the configured table names.
func (m *MemoryStore) Tables() snippet.Tables {
	return m.tables
}

// FetchCalls returns how many times FetchActive was called.
func (m *MemoryStore) FetchCalls() int {
	return int(m.fetchCalls.Load())
}

// FetchActive returns active snippets of the given scopes, network rows first.
func (m *MemoryStore) FetchActive(_ context.Context, scopes []snippet.Scope) ([]snippet.Snippet, error) {
	m.fetchCalls.Add(1)
	if len(scopes) == 0 {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}

	var result []snippet.Snippet
	for _, table := range orderedTables(m.tables) {
		network := m.tables.IsNetwork(table)

		var matched []snippet.Snippet
		for id, row := range m.rows[table] {
			active := row.active || (network && slices.Contains(m.shared, id))
			if !active || !slices.Contains(scopes, row.snippet.Scope) {
				continue
			}
			matched = append(matched, row.snippet)
		}

		sort.Slice(matched, func(i, j int) bool {
			if matched[i].Priority != matched[j].Priority {
				return matched[i].Priority < matched[j].Priority
			}
			return matched[i].ID < matched[j].ID
		})
		result = append(result, matched...)
	}

	return result, nil
}

// Deactivate clears the active flag of one row.
func (m *MemoryStore) Deactivate(_ context.Context, id int64, table string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}

	rows, ok := m.rows[table]
	if !ok {
		return newQueryError("memory", "deactivate", table, ErrUnknownTable)
	}
	if row, ok := rows[id]; ok {
		row.active = false
	}
	return nil
}

// SharedNetworkIDs returns a copy of the shared network snippet list.
func (m *MemoryStore) SharedNetworkIDs(context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	return slices.Clone(m.shared), nil
}

// SetSharedNetworkIDs replaces the shared network snippet list.
func (m *MemoryStore) SetSharedNetworkIDs(_ context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	m.shared = slices.Clone(ids)
	return nil
}

// Insert stores a snippet row and returns its id.
func (m *MemoryStore) Insert(_ context.Context, sn snippet.Snippet, active bool) (int64, error) {
	table, err := resolveTable(m.tables, sn.Table)
	if err != nil {
		return 0, err
	}
	if _, err := snippet.ParseScope(string(sn.Scope)); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrStoreClosed
	}

	if sn.ID == 0 {
		sn.ID = m.nextID[table] + 1
	}
	if _, exists := m.rows[table][sn.ID]; exists {
		return 0, newQueryError("memory", "insert", table, errDuplicateID)
	}
	if sn.ID > m.nextID[table] {
		m.nextID[table] = sn.ID
	}

	sn.Table = table
	m.rows[table][sn.ID] = &memoryRow{snippet: sn, active: active}
	return sn.ID, nil
}

// Get returns one row and its active flag.
func (m *MemoryStore) Get(_ context.Context, id int64, table string) (*snippet.Snippet, bool, error) {
	table, err := resolveTable(m.tables, table)
	if err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, ErrStoreClosed
	}

	row, ok := m.rows[table][id]
	if !ok {
		return nil, false, ErrNotFound
	}
	sn := row.snippet
	return &sn, row.active, nil
}

// InvalidateActive is a no-op; MemoryStore does not cache.
func (m *MemoryStore) InvalidateActive(string) {}

// InvalidateSnippets is a no-op; MemoryStore does not cache.
func (m *MemoryStore) InvalidateSnippets(string) {}

// Close marks the store closed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
