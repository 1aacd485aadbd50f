// Package testutil provides test doubles shared by the engine's tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
)

// Execution is one recorded Execute call.
type Execution struct {
	Code string
	ID   int64
}

// RecordingExecutor records every Execute call. Err, when set for an id, is
// returned for that id.
type RecordingExecutor struct {
	mu    sync.Mutex
	calls []Execution
	Err   map[int64]error
}

// Execute records the call.
func (e *RecordingExecutor) Execute(_ context.Context, code string, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, Execution{Code: code, ID: id})
	return e.Err[id]
}

// Calls returns a copy of the recorded calls.
func (e *RecordingExecutor) Calls() []Execution {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Execution(nil), e.calls...)
}

// IDs returns the executed ids in call order.
func (e *RecordingExecutor) IDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]int64, len(e.calls))
	for i, c := range e.calls {
		ids[i] = c.ID
	}
	return ids
}

// CountingEvaluator answers conditions from a code→result table and counts
// evaluations per code. Codes listed in Errors fail.
type CountingEvaluator struct {
	mu      sync.Mutex
	Results map[string]bool
	Errors  map[string]bool
	counts  map[string]int
}

// Evaluate looks code up in Results.
func (e *CountingEvaluator) Evaluate(_ context.Context, code string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.counts == nil {
		e.counts = make(map[string]int)
	}
	e.counts[code]++
	if e.Errors[code] {
		return false, errors.New("condition failed: " + code)
	}
	return e.Results[code], nil
}

// Count returns how many times code was evaluated.
func (e *CountingEvaluator) Count(code string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[code]
}

// Total returns the total number of evaluations.
func (e *CountingEvaluator) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.counts {
		n += c
	}
	return n
}

// FlakyStore wraps a store and injects errors.
type FlakyStore struct {
	store.Store

	mu sync.Mutex

	// FetchErrs are returned by successive FetchActive calls, one per call,
	// before falling through to the wrapped store.
	FetchErrs []error

	// DeactivateErr is returned by Deactivate when set.
	DeactivateErr error

	// SetSharedErr is returned by SetSharedNetworkIDs when set.
	SetSharedErr error

	fetches int
}

// FetchActive fails with the next queued error, if any.
func (f *FlakyStore) FetchActive(ctx context.Context, scopes []snippet.Scope) ([]snippet.Snippet, error) {
	f.mu.Lock()
	f.fetches++
	if len(f.FetchErrs) > 0 {
		err := f.FetchErrs[0]
		f.FetchErrs = f.FetchErrs[1:]
		f.mu.Unlock()
		return nil, err
	}
	f.mu.Unlock()
	return f.Store.FetchActive(ctx, scopes)
}

// Fetches returns the number of FetchActive calls, failed ones included.
func (f *FlakyStore) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// Deactivate fails with DeactivateErr when set.
func (f *FlakyStore) Deactivate(ctx context.Context, id int64, table string) error {
	if f.DeactivateErr != nil {
		return f.DeactivateErr
	}
	return f.Store.Deactivate(ctx, id, table)
}

// SetSharedNetworkIDs fails with SetSharedErr when set.
func (f *FlakyStore) SetSharedNetworkIDs(ctx context.Context, ids []int64) error {
	if f.SetSharedErr != nil {
		return f.SetSharedErr
	}
	return f.Store.SetSharedNetworkIDs(ctx, ids)
}
