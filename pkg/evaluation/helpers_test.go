package evaluation

import (
	"context"
	"testing"

	"mercator-hq/snippets/pkg/snippet"
	"mercator-hq/snippets/pkg/store"
	"mercator-hq/snippets/pkg/telemetry/logging"
)

func newTestStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	return store.NewMemoryStore(store.Options{Tables: snippet.DefaultTables(), Multisite: true})
}

func insert(t *testing.T, st *store.MemoryStore, s snippet.Snippet, active bool) int64 {
	t.Helper()
	id, err := st.Insert(context.Background(), s, active)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

func testOptions() Options {
	return Options{Logger: logging.Discard()}
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
