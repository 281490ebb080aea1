// Package matching selects the route definition for a request.
//
// Routes are scanned in store order. A route matches when its method equals
// the request method (case-insensitively) and its path pattern matches the
// request path segment by segment:
//
//   - Literal segments must be equal: "/users" matches "/users"
//   - Named segments bind one non-empty segment: "/users/:id" matches "/users/42"
//   - The braced spelling is accepted too: "/users/{id}"
//
// There is no scoring. The first route that matches wins, and conditions are
// evaluated only on that route.
package matching
