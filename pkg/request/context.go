// Package request builds the immutable per-request snapshot read by the
// condition evaluator, the template resolver and the body assembler.
package request

import (
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/getmockd/faultmock/pkg/value"
)

// Source names addressable from dotted paths.
const (
	SourceParams  = "params"
	SourceQuery   = "query"
	SourceBody    = "body"
	SourceHeaders = "headers"
)

// Context is the request snapshot. It is built once per request and never
// mutated afterwards; all accessors return values that share no mutable
// state with the caller.
type Context struct {
	params  value.Value
	query   value.Value
	body    value.Value
	headers value.Value
	root    value.Value
}

// New assembles a Context from already-decoded parts.
//
// Query parameters with a single value become strings, repeated parameters
// become lists of strings. Header names are lower-cased; repeated headers are
// joined with ", ".
func New(params map[string]string, query url.Values, headers http.Header, body value.Value) *Context {
	p := make(map[string]value.Value, len(params))
	for k, v := range params {
		p[k] = value.String(v)
	}

	h := make(map[string]value.Value, len(headers))
	for k, vs := range headers {
		h[strings.ToLower(k)] = value.String(strings.Join(vs, ", "))
	}

	c := &Context{
		params:  value.Object(p),
		query:   valuesObject(query),
		body:    body,
		headers: value.Object(h),
	}
	c.root = value.Object(map[string]value.Value{
		SourceParams:  c.params,
		SourceQuery:   c.query,
		SourceBody:    c.body,
		SourceHeaders: c.headers,
	})
	return c
}

// FromHTTP builds a Context from an HTTP request, the captured path
// parameters and the already-read request body.
func FromHTTP(r *http.Request, params map[string]string, rawBody []byte) *Context {
	return New(params, r.URL.Query(), r.Header, ParseBody(r.Header.Get("Content-Type"), rawBody))
}

// ParseBody decodes a request body. JSON bodies (by content type or shape)
// become structured values, form bodies become objects of strings, anything
// else is kept as a string. An empty body is an empty object.
func ParseBody(contentType string, raw []byte) value.Value {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return value.Object(nil)
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch {
	case mediaType == "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return value.String(string(raw))
		}
		return valuesObject(form)
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") || looksLikeJSON(raw):
		v, err := value.Parse(raw)
		if err != nil {
			return value.String(string(raw))
		}
		return v
	default:
		return value.String(string(raw))
	}
}

// valuesObject converts url.Values: single values become strings, repeated
// keys become lists of strings.
func valuesObject(vals url.Values) value.Value {
	out := make(map[string]value.Value, len(vals))
	for k, vs := range vals {
		switch len(vs) {
		case 0:
			out[k] = value.String("")
		case 1:
			out[k] = value.String(vs[0])
		default:
			items := make([]value.Value, len(vs))
			for i, s := range vs {
				items[i] = value.String(s)
			}
			out[k] = value.List(items...)
		}
	}
	return value.Object(out)
}

func looksLikeJSON(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return (strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) ||
		(strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"))
}

// Params returns the captured path parameters.
func (c *Context) Params() value.Value { return c.params }

// Query returns the query parameters.
func (c *Context) Query() value.Value { return c.query }

// Body returns the decoded request body.
func (c *Context) Body() value.Value { return c.body }

// Headers returns the request headers keyed by lower-case name.
func (c *Context) Headers() value.Value { return c.headers }

// Root returns the whole snapshot as an object with params, query, body and
// headers fields.
func (c *Context) Root() value.Value { return c.root }

// Resolve looks up a dotted path such as "query.status" or
// "body.user.name". The first segment selects the source. Header lookups
// are case-insensitive.
func (c *Context) Resolve(path string) (value.Value, bool) {
	if c == nil {
		return value.Value{}, false
	}
	segments := value.SplitPath(path)
	if len(segments) == 0 {
		return value.Value{}, false
	}
	switch segments[0] {
	case SourceParams, SourceQuery, SourceBody:
	case SourceHeaders:
		if len(segments) > 1 {
			segments = append([]string{SourceHeaders, strings.ToLower(segments[1])}, segments[2:]...)
		}
	default:
		return value.Value{}, false
	}
	return value.Lookup(c.root, segments)
}
