package template

import (
	"regexp"
	"strings"
	"time"

	"github.com/getmockd/faultmock/pkg/request"
	"github.com/getmockd/faultmock/pkg/value"
)

// Engine resolves placeholders. An Engine is stateless and safe for
// concurrent use.
type Engine struct {
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the time source used by the time generators.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates a template engine.
func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// templateRegex matches {{expression}} patterns with optional whitespace.
var templateRegex = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// soleRegex matches a string made of exactly one placeholder.
var soleRegex = regexp.MustCompile(`^\{\{\s*([^{}]+?)\s*\}\}$`)

// Resolve returns v with every placeholder in its strings resolved. Lists
// and objects keep their shape; object keys are not templated.
func (e *Engine) Resolve(v value.Value, ctx *request.Context) value.Value {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		return e.resolveString(s, ctx)
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = e.Resolve(item, ctx)
		}
		return value.List(out...)
	case value.KindObject:
		fields, _ := v.AsObject()
		out := make(map[string]value.Value, len(fields))
		for k, item := range fields {
			out[k] = e.Resolve(item, ctx)
		}
		return value.Object(out)
	default:
		return v
	}
}

// Process resolves a template string and always returns text.
func (e *Engine) Process(template string, ctx *request.Context) string {
	return e.interpolate(template, ctx)
}

func (e *Engine) resolveString(s string, ctx *request.Context) value.Value {
	if !strings.Contains(s, "{{") {
		return value.String(s)
	}
	if m := soleRegex.FindStringSubmatch(s); m != nil {
		if v, ok := e.lookup(m[1], ctx); ok {
			return v
		}
		return value.String(s)
	}
	return value.String(e.interpolate(s, ctx))
}

func (e *Engine) interpolate(s string, ctx *request.Context) string {
	return templateRegex.ReplaceAllStringFunc(s, func(match string) string {
		inner := templateRegex.FindStringSubmatch(match)
		if v, ok := e.lookup(inner[1], ctx); ok {
			return v.Text()
		}
		return match
	})
}

// lookup resolves one expression: generators first, then request paths of
// two or more segments.
func (e *Engine) lookup(expr string, ctx *request.Context) (value.Value, bool) {
	expr = strings.TrimSpace(expr)
	if gen, ok := generators[expr]; ok {
		return gen(e), true
	}
	if !strings.Contains(expr, ".") {
		return value.Value{}, false
	}
	return ctx.Resolve(expr)
}
