package evaluation

import (
	"mime"
	"net/http"
	"strings"
)

// RequestInfo is the request data the dispatchers need from the host.
type RequestInfo struct {
	// Method is the HTTP method.
	Method string

	// URI is the raw request URI, path and query.
	URI string

	// IsAdmin selects admin-scoped instead of front-end-scoped snippets.
	IsAdmin bool

	// IsJSON marks API requests; only those can carry an edit target.
	IsJSON bool
}

// RequestInfoFromHTTP derives RequestInfo from r. A request is
// administrative when its path starts with adminPrefix. It is a JSON request
// when Accept or Content-Type names a JSON media type, or when its path
// starts with restRoot.
func RequestInfoFromHTTP(r *http.Request, adminPrefix, restRoot string) RequestInfo {
	path := r.URL.Path

	return RequestInfo{
		Method:  r.Method,
		URI:     r.URL.RequestURI(),
		IsAdmin: hasPathPrefix(path, adminPrefix),
		IsJSON: isJSONMediaType(r.Header.Get("Accept")) ||
			isJSONMediaType(r.Header.Get("Content-Type")) ||
			hasPathPrefix(path, restRoot),
	}
}

// hasPathPrefix matches whole path segments: "/wp-admin" matches
// "/wp-admin" and "/wp-admin/x" but not "/wp-administrator".
func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// isJSONMediaType accepts a single media type or an Accept list.
func isJSONMediaType(header string) bool {
	for _, part := range strings.Split(header, ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
			return true
		}
	}
	return false
}
