// Package hooks provides the filter chains that let embedders veto snippet
// execution.
//
// Two chains exist, each defaulting to "allowed":
//
//   - ExecuteSnippets: global kill switch consulted before any evaluation
//   - AllowExecute: per-snippet veto consulted just before execution
//
// Filters run in registration order and each receives the value returned by
// the previous one. A nil *Filters applies the defaults.
package hooks

import (
	"context"
	"sync"

	"mercator-hq/snippets/pkg/config"
)

// ExecuteSnippetsFilter adjusts the global execution switch.
type ExecuteSnippetsFilter func(ctx context.Context, allowed bool) bool

// AllowExecuteFilter adjusts whether one snippet may execute.
type AllowExecuteFilter func(ctx context.Context, allowed bool, id int64, table string) bool

// Filters holds the registered filter chains. It is safe for concurrent use.
type Filters struct {
	mu             sync.RWMutex
	executeFilters []ExecuteSnippetsFilter
	allowFilters   []AllowExecuteFilter
}

// New returns an empty registry.
func New() *Filters {
	return &Filters{}
}

// OnExecuteSnippets appends a kill-switch filter.
func (f *Filters) OnExecuteSnippets(fn ExecuteSnippetsFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executeFilters = append(f.executeFilters, fn)
}

// OnAllowExecute appends a per-snippet filter.
func (f *Filters) OnAllowExecute(fn AllowExecuteFilter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowFilters = append(f.allowFilters, fn)
}

// ExecuteSnippets runs the kill-switch chain starting from allowed.
func (f *Filters) ExecuteSnippets(ctx context.Context, allowed bool) bool {
	if f == nil {
		return allowed
	}

	f.mu.RLock()
	chain := f.executeFilters
	f.mu.RUnlock()

	for _, fn := range chain {
		allowed = fn(ctx, allowed)
	}
	return allowed
}

// AllowExecute runs the per-snippet chain starting from allowed.
func (f *Filters) AllowExecute(ctx context.Context, allowed bool, id int64, table string) bool {
	if f == nil {
		return allowed
	}

	f.mu.RLock()
	chain := f.allowFilters
	f.mu.RUnlock()

	for _, fn := range chain {
		allowed = fn(ctx, allowed, id, table)
	}
	return allowed
}

// FromConfig builds the filters configured in the execution section:
// a disabled execution registers a kill switch and every blocked snippet
// is vetoed by id and table.
func FromConfig(cfg *config.ExecutionConfig) *Filters {
	f := New()

	if !cfg.Enabled {
		f.OnExecuteSnippets(func(context.Context, bool) bool {
			return false
		})
	}

	if len(cfg.Blocked) > 0 {
		type key struct {
			id    int64
			table string
		}
		blocked := make(map[key]bool, len(cfg.Blocked))
		for _, b := range cfg.Blocked {
			blocked[key{b.ID, b.Table}] = true
		}

		f.OnAllowExecute(func(_ context.Context, allowed bool, id int64, table string) bool {
			if blocked[key{id, table}] {
				return false
			}
			return allowed
		})
	}

	return f
}

// FromSource applies FromConfig to the execution section returned by src at
// call time, so a reloaded configuration takes effect on the next request.
// A nil section leaves the decision unchanged.
func FromSource(src func() *config.ExecutionConfig) *Filters {
	f := New()

	f.OnExecuteSnippets(func(ctx context.Context, allowed bool) bool {
		cfg := src()
		if cfg == nil {
			return allowed
		}
		return FromConfig(cfg).ExecuteSnippets(ctx, allowed)
	})

	f.OnAllowExecute(func(ctx context.Context, allowed bool, id int64, table string) bool {
		cfg := src()
		if cfg == nil {
			return allowed
		}
		return FromConfig(cfg).AllowExecute(ctx, allowed, id, table)
	})

	return f
}
