package matching

import "strings"

// MatchPath checks if the request path matches the pattern and returns the
// captured named segments.
// Supports:
//   - Exact segments: "/api/users" matches "/api/users"
//   - Named params: "/api/users/:id" or "/api/users/{id}" matches "/api/users/123"
//
// Segment counts must be equal. Leading and trailing slashes are ignored.
func MatchPath(pattern, path string) (map[string]string, bool) {
	patternParts := splitPath(pattern)
	pathParts := splitPath(path)

	if len(patternParts) != len(pathParts) {
		return nil, false
	}

	params := make(map[string]string)
	for i, patternPart := range patternParts {
		if name, ok := paramName(patternPart); ok {
			if pathParts[i] == "" {
				return nil, false
			}
			params[name] = pathParts[i]
			continue
		}
		// Literal parts must match exactly
		if patternPart != pathParts[i] {
			return nil, false
		}
	}
	return params, true
}

// paramName reports whether a pattern segment is a named parameter.
func paramName(segment string) (string, bool) {
	if name, ok := strings.CutPrefix(segment, ":"); ok && name != "" {
		return name, true
	}
	if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") && len(segment) > 2 {
		return segment[1 : len(segment)-1], true
	}
	return "", false
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
