package evaluation

import (
	"net/http/httptest"
	"testing"
)

func TestRequestInfoFromHTTP(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		headers   map[string]string
		wantAdmin bool
		wantJSON  bool
	}{
		{"front page", "/", nil, false, false},
		{"admin", "/wp-admin/options.php", nil, true, false},
		{"admin root", "/wp-admin", nil, true, false},
		{"admin lookalike", "/wp-administrator", nil, false, false},
		{"rest root", "/wp-json/code-snippets/v1/snippets/3", nil, false, true},
		{"accept json", "/page", map[string]string{"Accept": "text/html, application/json;q=0.9"}, false, true},
		{"content type json", "/page", map[string]string{"Content-Type": "application/json; charset=utf-8"}, false, true},
		{"vendor json", "/page", map[string]string{"Accept": "application/vnd.api+json"}, false, true},
		{"html only", "/page", map[string]string{"Accept": "text/html"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.target, nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			info := RequestInfoFromHTTP(r, "/wp-admin", "/wp-json")
			if info.IsAdmin != tt.wantAdmin {
				t.Errorf("IsAdmin = %v, want %v", info.IsAdmin, tt.wantAdmin)
			}
			if info.IsJSON != tt.wantJSON {
				t.Errorf("IsJSON = %v, want %v", info.IsJSON, tt.wantJSON)
			}
			if info.Method != "GET" || info.URI != tt.target {
				t.Errorf("unexpected method/uri %q %q", info.Method, info.URI)
			}
		})
	}
}
