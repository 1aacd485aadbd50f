package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"mercator-hq/snippets/pkg/config"
	"mercator-hq/snippets/pkg/snippet"
)

func multisiteOptions() Options {
	return Options{Tables: snippet.DefaultTables(), Multisite: true}
}

func newTestSQLiteStore(t *testing.T, opts Options) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "snippets.db"),
		Options: opts,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// backends runs fn against every Admin implementation.
func backends(t *testing.T, opts Options, fn func(t *testing.T, st Admin)) {
	t.Run("sqlite", func(t *testing.T) {
		fn(t, newTestSQLiteStore(t, opts))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore(opts))
	})
	t.Run("cached", func(t *testing.T) {
		fn(t, NewCachedStore(NewMemoryStore(opts), nil))
	})
}

func mustInsert(t *testing.T, st Admin, s snippet.Snippet, active bool) int64 {
	t.Helper()
	id, err := st.Insert(context.Background(), s, active)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

func ids(snippets []snippet.Snippet) []int64 {
	out := make([]int64, len(snippets))
	for i, s := range snippets {
		out[i] = s.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_FetchActiveOrdering(t *testing.T) {
	backends(t, multisiteOptions(), func(t *testing.T, st Admin) {
		ctx := context.Background()

		mustInsert(t, st, snippet.Snippet{ID: 1, Scope: snippet.ScopeGlobal, Priority: 10}, true)
		mustInsert(t, st, snippet.Snippet{ID: 2, Scope: snippet.ScopeGlobal, Priority: 5}, true)
		mustInsert(t, st, snippet.Snippet{ID: 3, Scope: snippet.ScopeGlobal, Priority: 5}, true)
		mustInsert(t, st, snippet.Snippet{ID: 4, Scope: snippet.ScopeGlobal, Priority: 1}, false)
		mustInsert(t, st, snippet.Snippet{ID: 5, Scope: snippet.ScopeHeadContent, Priority: 1}, true)
		mustInsert(t, st, snippet.Snippet{ID: 9, Scope: snippet.ScopeGlobal, Table: snippet.DefaultNetworkTable, Priority: 20}, true)

		got, err := st.FetchActive(ctx, []snippet.Scope{snippet.ScopeGlobal})
		if err != nil {
			t.Fatalf("FetchActive failed: %v", err)
		}

		want := []int64{9, 2, 3, 1}
		if !equalIDs(ids(got), want) {
			t.Errorf("expected order %v, got %v", want, ids(got))
		}
		if got[0].Table != snippet.DefaultNetworkTable || got[1].Table != snippet.DefaultSiteTable {
			t.Errorf("table not populated: %+v", got[:2])
		}
	})
}

func TestStore_FetchActiveNoScopes(t *testing.T) {
	backends(t, multisiteOptions(), func(t *testing.T, st Admin) {
		mustInsert(t, st, snippet.Snippet{Scope: snippet.ScopeGlobal}, true)

		got, err := st.FetchActive(context.Background(), nil)
		if err != nil {
			t.Fatalf("FetchActive failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no rows, got %d", len(got))
		}
	})
}

func TestStore_SharedNetworkActivation(t *testing.T) {
	backends(t, multisiteOptions(), func(t *testing.T, st Admin) {
		ctx := context.Background()

		mustInsert(t, st, snippet.Snippet{ID: 7, Scope: snippet.ScopeSingleUse, Table: snippet.DefaultNetworkTable}, false)
		mustInsert(t, st, snippet.Snippet{ID: 7, Scope: snippet.ScopeSingleUse}, false)

		if err := st.SetSharedNetworkIDs(ctx, []int64{7}); err != nil {
			t.Fatalf("SetSharedNetworkIDs failed: %v", err)
		}

		got, err := st.FetchActive(ctx, []snippet.Scope{snippet.ScopeSingleUse})
		if err != nil {
			t.Fatalf("FetchActive failed: %v", err)
		}
		if len(got) != 1 || got[0].Table != snippet.DefaultNetworkTable {
			t.Fatalf("expected only the shared network row, got %+v", got)
		}

		shared, err := st.SharedNetworkIDs(ctx)
		if err != nil {
			t.Fatalf("SharedNetworkIDs failed: %v", err)
		}
		if !equalIDs(shared, []int64{7}) {
			t.Errorf("expected [7], got %v", shared)
		}

		if err := st.SetSharedNetworkIDs(ctx, nil); err != nil {
			t.Fatalf("SetSharedNetworkIDs failed: %v", err)
		}
		got, _ = st.FetchActive(ctx, []snippet.Scope{snippet.ScopeSingleUse})
		if len(got) != 0 {
			t.Errorf("expected no rows after clearing list, got %+v", got)
		}
	})
}

func TestStore_Deactivate(t *testing.T) {
	backends(t, multisiteOptions(), func(t *testing.T, st Admin) {
		ctx := context.Background()
		id := mustInsert(t, st, snippet.Snippet{Scope: snippet.ScopeGlobal, Code: "x"}, true)

		if err := st.Deactivate(ctx, id, snippet.DefaultSiteTable); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}

		s, active, err := st.Get(ctx, id, snippet.DefaultSiteTable)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if active {
			t.Error("expected row to be inactive")
		}
		if s.Code != "x" || s.Table != snippet.DefaultSiteTable {
			t.Errorf("unexpected row %+v", s)
		}

		if err := st.Deactivate(ctx, 999, snippet.DefaultSiteTable); err != nil {
			t.Errorf("deactivating a missing row should not fail: %v", err)
		}
		if err := st.Deactivate(ctx, id, "other"); err == nil {
			t.Error("expected error for unknown table")
		}
	})
}

func TestStore_GetNotFound(t *testing.T) {
	backends(t, multisiteOptions(), func(t *testing.T, st Admin) {
		_, _, err := st.Get(context.Background(), 42, "")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStore_InsertValidation(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, st Admin) {
		ctx := context.Background()

		if _, err := st.Insert(ctx, snippet.Snippet{Scope: "bogus"}, true); err == nil {
			t.Error("expected error for unknown scope")
		}
		_, err := st.Insert(ctx, snippet.Snippet{Scope: snippet.ScopeGlobal, Table: snippet.DefaultNetworkTable}, true)
		if !errors.Is(err, ErrUnknownTable) {
			t.Errorf("expected ErrUnknownTable without multisite, got %v", err)
		}
	})
}

func TestStore_SingleSiteIgnoresNetwork(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, st Admin) {
		if st.Tables().Network != "" {
			t.Errorf("expected no network table, got %q", st.Tables().Network)
		}
		if st.Tables().Site != snippet.DefaultSiteTable {
			t.Errorf("expected default site table, got %q", st.Tables().Site)
		}
	})
}

func TestStore_Closed(t *testing.T) {
	backends(t, Options{}, func(t *testing.T, st Admin) {
		if err := st.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		_, err := st.FetchActive(context.Background(), []snippet.Scope{snippet.ScopeGlobal})
		if !errors.Is(err, ErrStoreClosed) {
			t.Errorf("expected ErrStoreClosed, got %v", err)
		}
	})
}

func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(SQLiteConfig{Path: path, Options: multisiteOptions()})
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	id := mustInsert(t, s, snippet.Snippet{Scope: snippet.ScopeFrontEnd, Code: "echo('hi')"}, true)
	if err := s.SetSharedNetworkIDs(ctx, []int64{3, 1}); err != nil {
		t.Fatalf("SetSharedNetworkIDs failed: %v", err)
	}
	if err := s.Maintain(ctx); err != nil {
		t.Fatalf("Maintain failed: %v", err)
	}
	s.Close()

	reopened, err := NewSQLiteStore(SQLiteConfig{Path: path, Options: multisiteOptions()})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, _, err := reopened.Get(ctx, id, "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Scope != snippet.ScopeFrontEnd {
		t.Errorf("expected front-end scope, got %s", got.Scope)
	}
	shared, _ := reopened.SharedNetworkIDs(ctx)
	if !equalIDs(shared, []int64{3, 1}) {
		t.Errorf("expected shared list order preserved, got %v", shared)
	}
}

func TestSQLiteStore_NonListOptionReadsEmpty(t *testing.T) {
	s := newTestSQLiteStore(t, multisiteOptions())
	ctx := context.Background()

	if _, err := s.db.Exec(`INSERT INTO snippet_options (name, value) VALUES (?, ?)`, SharedNetworkOption, `"oops"`); err != nil {
		t.Fatalf("seed option failed: %v", err)
	}

	shared, err := s.SharedNetworkIDs(ctx)
	if err != nil {
		t.Fatalf("SharedNetworkIDs failed: %v", err)
	}
	if len(shared) != 0 {
		t.Errorf("expected empty list, got %v", shared)
	}
}

func TestNewSQLiteStore_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  SQLiteConfig
	}{
		{"empty path", SQLiteConfig{}},
		{"bad driver", SQLiteConfig{Path: ":memory:", Driver: "postgres"}},
		{"bad table", SQLiteConfig{Path: ":memory:", Options: Options{Tables: snippet.Tables{Site: "bad name"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSQLiteStore(tt.cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	cfg := config.NewDefaultConfig().Store
	cfg.Driver = "memory"

	st, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()
	if _, ok := st.(*CachedStore); !ok {
		t.Errorf("expected cached store, got %T", st)
	}

	cfg.Cache = false
	cfg.Driver = "sqlite"
	cfg.Path = filepath.Join(t.TempDir(), "open.db")
	st2, err := Open(&cfg, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st2.Close()
	if _, ok := st2.(*SQLiteStore); !ok {
		t.Errorf("expected sqlite store, got %T", st2)
	}

	cfg.Driver = "mysql"
	if _, err := Open(&cfg, nil); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
