package evaluation

import (
	"net/url"
	"strconv"
	"strings"

	"mercator-hq/snippets/pkg/snippet"
)

// DefaultRoutePrefix is the REST route of the snippet editor.
const DefaultRoutePrefix = "/wp-json/code-snippets/v1/snippets"

// ParseEditTarget returns the snippet being edited by this request, or nil.
//
// Only JSON requests whose path contains routePrefix qualify. The id is the
// last path segment and must be a positive integer. The table is the network
// table when the "network" query parameter is truthy, otherwise the site
// table.
func ParseEditTarget(req RequestInfo, routePrefix string, tables snippet.Tables) *snippet.EditTarget {
	if !req.IsJSON || req.URI == "" || routePrefix == "" {
		return nil
	}

	u, err := url.Parse(req.URI)
	if err != nil {
		return nil
	}
	if !strings.Contains(u.Path, routePrefix) {
		return nil
	}

	segments := strings.Split(u.Path, "/")
	id, err := strconv.ParseInt(segments[len(segments)-1], 10, 64)
	if err != nil || id <= 0 {
		return nil
	}

	table := tables.Site
	query := u.Query()
	if query.Has("network") && sanitizeBoolean(query.Get("network")) {
		if tables.Network == "" {
			// No network table: nothing can match.
			return nil
		}
		table = tables.Network
	}

	return &snippet.EditTarget{ID: id, Table: table}
}

// sanitizeBoolean treats "", "0" and "false" (any case) as false and
// everything else as true.
func sanitizeBoolean(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false":
		return false
	}
	return true
}
