package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/snippets/pkg/snippet"
)

// Seed is the content of a seed file.
//
// Example:
//
//	snippets:
//	  - id: 1
//	    name: only on admin
//	    scope: condition
//	    code: "return request.is_admin"
//	    active: true
//	  - name: banner
//	    scope: head-content
//	    code: "<meta name=\"x\">"
//	    condition_id: 1
//	    active: true
//	shared_network: [3]
type Seed struct {
	Snippets      []SeedSnippet `yaml:"snippets"`
	SharedNetwork []int64       `yaml:"shared_network"`
}

// SeedSnippet is one snippet row in a seed file.
type SeedSnippet struct {
	snippet.Snippet `yaml:",inline"`

	// Active sets the row's active flag.
	Active bool `yaml:"active"`
}

// LoadSeedFile reads and validates a YAML seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates seed data.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	for i, s := range seed.Snippets {
		if _, err := snippet.ParseScope(string(s.Scope)); err != nil {
			return nil, fmt.Errorf("snippets[%d]: %w", i, err)
		}
		if s.ID < 0 || s.ConditionID < 0 {
			return nil, fmt.Errorf("snippets[%d]: ids must not be negative", i)
		}
	}

	return &seed, nil
}

// Apply inserts every seeded snippet and, when present, replaces the shared
// network list. It returns the number of inserted rows.
func (s *Seed) Apply(ctx context.Context, st Admin) (int, error) {
	inserted := 0
	for i, row := range s.Snippets {
		if _, err := st.Insert(ctx, row.Snippet, row.Active); err != nil {
			return inserted, fmt.Errorf("failed to insert snippets[%d]: %w", i, err)
		}
		inserted++
	}

	if len(s.SharedNetwork) > 0 {
		if st.Tables().Network == "" {
			return inserted, fmt.Errorf("shared_network requires multisite")
		}
		if err := st.SetSharedNetworkIDs(ctx, s.SharedNetwork); err != nil {
			return inserted, fmt.Errorf("failed to store shared network list: %w", err)
		}
	}

	return inserted, nil
}
