package store

import (
	"context"
	"slices"
	"sync"

	"mercator-hq/snippets/pkg/snippet"
)

// ActiveCacheName labels the active snippet cache in metrics.
const ActiveCacheName = "active_snippets"

// CacheRecorder receives cache statistics. *metrics.Collector implements it.
type CacheRecorder interface {
	RecordCacheHit(cacheName string)
	RecordCacheMiss(cacheName string)
	RecordCacheEviction(cacheName string, count int)
	UpdateCacheSize(cacheName string, size int)
}

// activeEntry is one cached FetchActive result.
type activeEntry struct {
	snippets []snippet.Snippet
	tables   []string
}

// CachedStore caches FetchActive results across requests, keyed by scope
// set. Writes through the store invalidate the affected entries; external
// writers call InvalidateActive or InvalidateSnippets.
//
// Each table carries a generation bumped by every invalidation. A loaded
// result is cached only if none of its tables changed generation while it
// was being read, so a deactivation racing a cache fill is never undone.
type CachedStore struct {
	inner    Store
	recorder CacheRecorder

	mu          sync.RWMutex
	entries     map[string]*activeEntry
	generations map[string]uint64
}

// NewCachedStore wraps inner. rec may be nil.
func NewCachedStore(inner Store, rec CacheRecorder) *CachedStore {
	return &CachedStore{
		inner:    inner,
		recorder: rec,
		entries:     make(map[string]*activeEntry),
		generations: make(map[string]uint64),
	}
}

// Tables returns the wrapped store's table names.
func (c *CachedStore) Tables() snippet.Tables {
	return c.inner.Tables()
}

// FetchActive serves the result from cache or loads and caches it.
// Callers receive their own copy of the slice.
func (c *CachedStore) FetchActive(ctx context.Context, scopes []snippet.Scope) ([]snippet.Snippet, error) {
	key := snippet.ScopeKey(scopes)
	tables := orderedTables(c.inner.Tables())

	c.mu.RLock()
	entry, ok := c.entries[key]
	before := c.generationsOf(tables)
	c.mu.RUnlock()
	if ok {
		c.hit()
		return slices.Clone(entry.snippets), nil
	}
	c.miss()

	result, err := c.inner.FetchActive(ctx, scopes)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if !slices.Equal(before, c.generationsOf(tables)) {
		c.mu.Unlock()
		return result, nil
	}
	c.entries[key] = &activeEntry{
		snippets: slices.Clone(result),
		tables:   tables,
	}
	size := len(c.entries)
	c.mu.Unlock()
	c.updateSize(size)

	return result, nil
}

// generationsOf returns the generation of each table. c.mu must be held.
func (c *CachedStore) generationsOf(tables []string) []uint64 {
	gens := make([]uint64, len(tables))
	for i, t := range tables {
		gens[i] = c.generations[t]
	}
	return gens
}

// Deactivate writes through and invalidates the table.
func (c *CachedStore) Deactivate(ctx context.Context, id int64, table string) error {
	if err := c.inner.Deactivate(ctx, id, table); err != nil {
		return err
	}
	c.InvalidateSnippets(table)
	return nil
}

// SharedNetworkIDs is not cached.
func (c *CachedStore) SharedNetworkIDs(ctx context.Context) ([]int64, error) {
	return c.inner.SharedNetworkIDs(ctx)
}

// SetSharedNetworkIDs writes through and invalidates the network table.
func (c *CachedStore) SetSharedNetworkIDs(ctx context.Context, ids []int64) error {
	if err := c.inner.SetSharedNetworkIDs(ctx, ids); err != nil {
		return err
	}
	c.InvalidateActive(c.inner.Tables().Network)
	return nil
}

// InvalidateActive drops every cached active list that spans table.
func (c *CachedStore) InvalidateActive(table string) {
	c.invalidate(table)
	c.inner.InvalidateActive(table)
}

// InvalidateSnippets drops every cached entry holding rows of table.
func (c *CachedStore) InvalidateSnippets(table string) {
	c.invalidate(table)
	c.inner.InvalidateSnippets(table)
}

func (c *CachedStore) invalidate(table string) {
	if table == "" {
		return
	}

	c.mu.Lock()
	c.generations[table]++
	dropped := 0
	for key, entry := range c.entries {
		if slices.Contains(entry.tables, table) {
			delete(c.entries, key)
			dropped++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	if c.recorder != nil && dropped > 0 {
		c.recorder.RecordCacheEviction(ActiveCacheName, dropped)
	}
	c.updateSize(size)
}

// Len returns the number of cached scope sets.
func (c *CachedStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Insert writes through when the wrapped store is an Admin.
func (c *CachedStore) Insert(ctx context.Context, sn snippet.Snippet, active bool) (int64, error) {
	admin, ok := c.inner.(Admin)
	if !ok {
		return 0, errNotAdmin
	}
	id, err := admin.Insert(ctx, sn, active)
	if err != nil {
		return 0, err
	}
	table := sn.Table
	if table == "" {
		table = c.inner.Tables().Site
	}
	c.InvalidateSnippets(table)
	return id, nil
}

// Get reads through when the wrapped store is an Admin.
func (c *CachedStore) Get(ctx context.Context, id int64, table string) (*snippet.Snippet, bool, error) {
	admin, ok := c.inner.(Admin)
	if !ok {
		return nil, false, errNotAdmin
	}
	return admin.Get(ctx, id, table)
}

// Maintain forwards to the wrapped store when it has maintenance work.
func (c *CachedStore) Maintain(ctx context.Context) error {
	if m, ok := c.inner.(Maintainer); ok {
		return m.Maintain(ctx)
	}
	return nil
}

// Close drops the cache and closes the wrapped store.
func (c *CachedStore) Close() error {
	c.mu.Lock()
	c.entries = make(map[string]*activeEntry)
	c.mu.Unlock()
	return c.inner.Close()
}

func (c *CachedStore) hit() {
	if c.recorder != nil {
		c.recorder.RecordCacheHit(ActiveCacheName)
	}
}

func (c *CachedStore) miss() {
	if c.recorder != nil {
		c.recorder.RecordCacheMiss(ActiveCacheName)
	}
}

func (c *CachedStore) updateSize(size int) {
	if c.recorder != nil {
		c.recorder.UpdateCacheSize(ActiveCacheName, size)
	}
}
