package snippet

import (
	"fmt"
	"sort"
	"strings"
)

// Scope classifies a snippet and determines which lifecycle phase runs it.
type Scope string

const (
	ScopeHeadContent   Scope = "head-content"
	ScopeFooterContent Scope = "footer-content"
	ScopeCondition     Scope = "condition"
	ScopeGlobal        Scope = "global"
	ScopeSingleUse     Scope = "single-use"
	ScopeAdmin         Scope = "admin"
	ScopeFrontEnd      Scope = "front-end"
)

// AllScopes lists every known scope in declaration order.
var AllScopes = []Scope{
	ScopeHeadContent,
	ScopeFooterContent,
	ScopeCondition,
	ScopeGlobal,
	ScopeSingleUse,
	ScopeAdmin,
	ScopeFrontEnd,
}

// ParseScope converts a string into a Scope, rejecting unknown values.
func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.TrimSpace(s))
	for _, known := range AllScopes {
		if scope == known {
			return scope, nil
		}
	}
	return "", fmt.Errorf("unknown snippet scope %q", s)
}

// IsContent reports whether snippets of this scope are printed rather than executed.
func (s Scope) IsContent() bool {
	return s == ScopeHeadContent || s == ScopeFooterContent
}

// IsFunction reports whether snippets of this scope are executed.
func (s Scope) IsFunction() bool {
	switch s {
	case ScopeGlobal, ScopeSingleUse, ScopeAdmin, ScopeFrontEnd:
		return true
	}
	return false
}

// String returns the scope name.
func (s Scope) String() string {
	return string(s)
}

// Snippet is the projection of a stored snippet row used by the engine.
type Snippet struct {
	// ID is unique within the owning table.
	ID int64 `json:"id" yaml:"id"`

	// Name is a human-readable label. Informational only.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Code is the opaque payload: printed for content scopes, executed for
	// function scopes, evaluated for conditions.
	Code string `json:"code" yaml:"code"`

	// Scope decides which dispatcher handles the snippet.
	Scope Scope `json:"scope" yaml:"scope"`

	// ConditionID references a condition snippet. Zero means unconditional.
	ConditionID int64 `json:"condition_id" yaml:"condition_id"`

	// Table is the name of the owning storage table.
	Table string `json:"table" yaml:"table"`

	// Priority orders snippets of the same table; lower runs first.
	Priority int `json:"priority" yaml:"priority"`
}

// HasCondition reports whether the snippet is gated by a condition.
func (s Snippet) HasCondition() bool {
	return s.ConditionID != 0
}

// Tables names the two storage tables a snippet can live in.
type Tables struct {
	// Site is the per-site table.
	Site string

	// Network is the network-wide (multisite) table.
	Network string
}

// Default table names.
const (
	DefaultSiteTable    = "snippets"
	DefaultNetworkTable = "ms_snippets"
)

// DefaultTables returns the default table names.
func DefaultTables() Tables {
	return Tables{Site: DefaultSiteTable, Network: DefaultNetworkTable}
}

// IsNetwork reports whether table names the network table.
func (t Tables) IsNetwork(table string) bool {
	return t.Network != "" && table == t.Network
}

// Has reports whether table is one of the two known tables.
func (t Tables) Has(table string) bool {
	return table == t.Site || t.IsNetwork(table)
}

// EditTarget identifies the snippet currently open in the editor for this
// request. A nil *EditTarget means nothing is being edited.
type EditTarget struct {
	ID    int64
	Table string
}

// Matches reports whether s is the snippet being edited.
func (e *EditTarget) Matches(s Snippet) bool {
	if e == nil {
		return false
	}
	return e.ID == s.ID && e.Table == s.Table
}

// String formats the target for logs.
func (e *EditTarget) String() string {
	if e == nil {
		return "<none>"
	}
	return fmt.Sprintf("%s#%d", e.Table, e.ID)
}

// ScopeKey returns a stable key for a set of scopes, independent of order
// and duplicates.
func ScopeKey(scopes []Scope) string {
	seen := make(map[Scope]bool, len(scopes))
	parts := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if seen[s] {
			continue
		}
		seen[s] = true
		parts = append(parts, string(s))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
