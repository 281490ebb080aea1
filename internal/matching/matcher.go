package matching

import (
	"net/http"
	"strings"

	"github.com/getmockd/faultmock/pkg/route"
)

// MatchResult is the route chosen for a request and its path parameters.
type MatchResult struct {
	Route  *route.Definition
	Params map[string]string
}

// MatchMethod checks if the request method matches the expected method.
func MatchMethod(expected, actual string) bool {
	return strings.EqualFold(expected, actual)
}

// Match returns the first route whose method and pattern match. A HEAD
// request with no HEAD route falls back to GET routes.
func Match(method, path string, routes []*route.Definition) (MatchResult, bool) {
	if res, ok := scan(method, path, routes); ok {
		return res, true
	}
	if strings.EqualFold(method, http.MethodHead) {
		return scan(http.MethodGet, path, routes)
	}
	return MatchResult{}, false
}

func scan(method, path string, routes []*route.Definition) (MatchResult, bool) {
	for _, r := range routes {
		if r == nil || !MatchMethod(r.Method, method) {
			continue
		}
		if params, ok := MatchPath(r.Path, path); ok {
			return MatchResult{Route: r, Params: params}, true
		}
	}
	return MatchResult{}, false
}
