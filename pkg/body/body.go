// Package body assembles response payloads from a route's body spec.
package body

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/faultmock/pkg/datasource"
	"github.com/getmockd/faultmock/pkg/request"
	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/template"
	"github.com/getmockd/faultmock/pkg/value"
)

// ErrDataBlobMissing is returned when a body names a blob the lookup cannot find.
var ErrDataBlobMissing = errors.New("data blob missing")

// EnvelopeKey wraps payloads that come from data or dataFile.
const EnvelopeKey = "data"

// Assembler builds payloads. It is safe for concurrent use.
type Assembler struct {
	templates *template.Engine
}

// NewAssembler returns an Assembler resolving placeholders with engine.
func NewAssembler(engine *template.Engine) *Assembler {
	if engine == nil {
		engine = template.New()
	}
	return &Assembler{templates: engine}
}

// Assemble produces the payload for spec:
//
//  1. data seeds the result
//  2. dataFile replaces it with the named blob, narrowed by dataPath and filter
//  3. limit truncates an array result
//  4. dynamicFields overlay an object, or every object in an array
//  5. placeholders are resolved
//  6. data and dataFile payloads are wrapped as {"data": ...}
//
// A spec with neither data nor dataFile starts from its literal body.
func (a *Assembler) Assemble(ctx context.Context, spec route.Body, req *request.Context, lookup datasource.Lookup) (value.Value, error) {
	result := spec.Literal
	if spec.HasData {
		result = spec.Data
	}

	if spec.DataFile != "" {
		blob, err := a.load(ctx, spec, lookup)
		if err != nil {
			return value.Value{}, err
		}
		if len(spec.Filter) > 0 {
			blob = filter(blob, a.resolveFields(spec.Filter, req))
		}
		result = blob
	}

	if !spec.Limit.IsNull() && result.Kind() == value.KindList {
		if n, ok := a.limit(spec.Limit, req); ok {
			items, _ := result.AsList()
			if n < len(items) {
				result = value.List(items[:n]...)
			}
		}
	}

	if len(spec.DynamicFields) > 0 {
		result = overlay(result, spec.DynamicFields)
	}

	result = a.templates.Resolve(result, req)

	if spec.Enveloped() {
		return value.Object(map[string]value.Value{EnvelopeKey: result}), nil
	}
	return result, nil
}

func (a *Assembler) load(ctx context.Context, spec route.Body, lookup datasource.Lookup) (value.Value, error) {
	if lookup == nil {
		return value.Value{}, fmt.Errorf("%w: %s", ErrDataBlobMissing, spec.DataFile)
	}
	blob, err := lookup.Lookup(ctx, spec.DataFile)
	if errors.Is(err, datasource.ErrNotFound) {
		return value.Value{}, fmt.Errorf("%w: %s", ErrDataBlobMissing, spec.DataFile)
	}
	if err != nil {
		return value.Value{}, fmt.Errorf("loading %s: %w", spec.DataFile, err)
	}
	if spec.DataPath != nil {
		blob = selectPath(blob, spec)
	}
	return blob, nil
}

// selectPath applies the JSONPath. A definite path (only child names and
// indexes) yields its single match or null. Any other path yields a list,
// even for one match or none, so filter and limit see the same shape.
func selectPath(blob value.Value, spec route.Body) value.Value {
	found := spec.DataPath.Get(blob.Any())
	if definite(spec.DataPath) {
		if len(found) == 0 {
			return value.Null()
		}
		v, err := value.FromAny(found[0])
		if err != nil {
			return value.Null()
		}
		return v
	}
	items := make([]value.Value, 0, len(found))
	for _, f := range found {
		if v, err := value.FromAny(f); err == nil {
			items = append(items, v)
		}
	}
	return value.List(items...)
}

// definite reports whether x names at most one node: wildcards, descent,
// filters, unions and slices can all match several.
func definite(x jp.Expr) bool {
	for _, frag := range x {
		switch frag.(type) {
		case jp.Root, jp.At, jp.Child, jp.Nth, jp.Bracket:
		default:
			return false
		}
	}
	return true
}

func (a *Assembler) resolveFields(fields map[string]value.Value, req *request.Context) map[string]value.Value {
	out := make(map[string]value.Value, len(fields))
	for k, v := range fields {
		out[k] = a.templates.Resolve(v, req)
	}
	return out
}

// filter keeps the object elements of an array whose fields strictly equal
// every wanted value. Non-array values pass through.
func filter(v value.Value, want map[string]value.Value) value.Value {
	items, ok := v.AsList()
	if !ok {
		return v
	}
	kept := make([]value.Value, 0, len(items))
	for _, item := range items {
		if item.Kind() == value.KindObject && matchesAll(item, want) {
			kept = append(kept, item)
		}
	}
	return value.List(kept...)
}

func matchesAll(item value.Value, want map[string]value.Value) bool {
	for key, expected := range want {
		got, ok := value.LookupPath(item, key)
		if !ok || !expected.Equal(got) {
			return false
		}
	}
	return true
}

// limit resolves and parses a limit. Only positive integers apply.
func (a *Assembler) limit(raw value.Value, req *request.Context) (int, bool) {
	v := a.templates.Resolve(raw, req)
	var n float64
	switch v.Kind() {
	case value.KindNumber:
		n, _ = v.AsNumber()
	case value.KindString:
		s, _ := v.AsString()
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	i := int(math.Floor(n))
	if i <= 0 {
		return 0, false
	}
	return i, true
}

// overlay merges fields into an object, or into every object element of an
// array. Other values are returned unchanged.
func overlay(v value.Value, fields map[string]value.Value) value.Value {
	switch v.Kind() {
	case value.KindObject:
		return v.With(fields)
	case value.KindList:
		items, _ := v.AsList()
		out := make([]value.Value, len(items))
		for i, item := range items {
			out[i] = item.With(fields)
		}
		return value.List(out...)
	default:
		return v
	}
}
