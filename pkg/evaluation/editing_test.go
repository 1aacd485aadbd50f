package evaluation

import (
	"testing"

	"mercator-hq/snippets/pkg/snippet"
)

func TestParseEditTarget(t *testing.T) {
	tables := snippet.DefaultTables()

	tests := []struct {
		name string
		req  RequestInfo
		want *snippet.EditTarget
	}{
		{
			name: "site snippet",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12"},
			want: &snippet.EditTarget{ID: 12, Table: "snippets"},
		},
		{
			name: "network flag",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network=1"},
			want: &snippet.EditTarget{ID: 12, Table: "ms_snippets"},
		},
		{
			name: "network flag true word",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network=yes"},
			want: &snippet.EditTarget{ID: 12, Table: "ms_snippets"},
		},
		{
			name: "network false",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network=FALSE"},
			want: &snippet.EditTarget{ID: 12, Table: "snippets"},
		},
		{
			name: "network zero",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network=0"},
			want: &snippet.EditTarget{ID: 12, Table: "snippets"},
		},
		{
			name: "network empty",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network="},
			want: &snippet.EditTarget{ID: 12, Table: "snippets"},
		},
		{
			name: "route embedded in longer path",
			req:  RequestInfo{IsJSON: true, URI: "/blog/wp-json/code-snippets/v1/snippets/3"},
			want: &snippet.EditTarget{ID: 3, Table: "snippets"},
		},
		{
			name: "not json",
			req:  RequestInfo{URI: "/wp-json/code-snippets/v1/snippets/12"},
		},
		{
			name: "other route",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/wp/v2/posts/12"},
		},
		{
			name: "collection route",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets"},
		},
		{
			name: "trailing slash",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12/"},
		},
		{
			name: "non-numeric id",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/abc"},
		},
		{
			name: "malformed uri",
			req:  RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/%zz"},
		},
		{
			name: "empty uri",
			req:  RequestInfo{IsJSON: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEditTarget(tt.req, DefaultRoutePrefix, tables)
			if tt.want == nil {
				if got != nil {
					t.Errorf("expected nil, got %v", got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseEditTarget_NoNetworkTable(t *testing.T) {
	req := RequestInfo{IsJSON: true, URI: "/wp-json/code-snippets/v1/snippets/12?network=true"}
	if got := ParseEditTarget(req, DefaultRoutePrefix, snippet.Tables{Site: "snippets"}); got != nil {
		t.Errorf("expected nil without a network table, got %v", got)
	}
}
