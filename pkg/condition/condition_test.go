package condition

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/request"
	"github.com/getmockd/faultmock/pkg/value"
)

func testContext() *request.Context {
	h := http.Header{}
	h.Set("X-Role", "admin")
	h.Set("X-Empty", "")
	body := value.MustFromAny(map[string]any{
		"user": map[string]any{
			"name":  "ada lovelace",
			"age":   36,
			"tags":  []any{"math", "poetry"},
			"admin": true,
			"nick":  nil,
		},
		"count": "12",
	})
	return request.New(
		map[string]string{"id": "123"},
		url.Values{"status": {"active"}, "page": {"2"}},
		h,
		body,
	)
}

func mustParse(t *testing.T, in any) Node {
	t.Helper()
	n, err := Parse(value.MustFromAny(in))
	require.NoError(t, err)
	return n
}

func TestEvaluateFieldMap(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		when map[string]any
		want bool
	}{
		{"empty map is true", map[string]any{}, true},
		{"literal param", map[string]any{"params.id": "123"}, true},
		{"literal param mismatch", map[string]any{"params.id": "999"}, false},
		{"strict equality number vs string", map[string]any{"query.page": 2}, false},
		{"implicit and", map[string]any{"params.id": "123", "query.status": "active"}, true},
		{"implicit and one false", map[string]any{"params.id": "123", "query.status": "x"}, false},
		{"nested body path", map[string]any{"body.user.name": "ada lovelace"}, true},
		{"list index", map[string]any{"body.user.tags.1": "poetry"}, true},
		{"header case-insensitive", map[string]any{"headers.X-Role": "admin"}, true},
		{"missing field literal", map[string]any{"body.user.missing": "x"}, false},
		{"unknown source", map[string]any{"cookies.a": "x"}, false},
		{"deep literal list", map[string]any{"body.user.tags": []any{"math", "poetry"}}, true},
		{"plain object literal", map[string]any{"body.user.tags": map[string]any{"a": 1}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(mustParse(t, tt.when), ctx))
		})
	}
}

func TestEvaluateOperators(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		name string
		path string
		ops  map[string]any
		want bool
	}{
		{"exists true", "params.id", map[string]any{"exists": true}, true},
		{"exists false on missing", "params.nope", map[string]any{"exists": false}, true},
		{"exists false on null", "body.user.nick", map[string]any{"exists": false}, true},
		{"exists false on empty string", "headers.x-empty", map[string]any{"exists": false}, true},
		{"exists true on missing", "params.nope", map[string]any{"exists": true}, false},

		{"not different", "query.status", map[string]any{"not": "inactive"}, true},
		{"not equal", "query.status", map[string]any{"not": "active"}, false},
		{"not on missing", "query.nope", map[string]any{"not": "active"}, true},

		{"contains", "body.user.name", map[string]any{"contains": "love"}, true},
		{"contains miss", "body.user.name", map[string]any{"contains": "turing"}, false},
		{"startsWith", "body.user.name", map[string]any{"startsWith": "ada"}, true},
		{"endsWith", "body.user.name", map[string]any{"endsWith": "lace"}, true},
		{"contains on number", "body.user.age", map[string]any{"contains": "3"}, false},
		{"contains on missing", "body.nope", map[string]any{"contains": ""}, false},

		{"greaterThan", "body.user.age", map[string]any{"greaterThan": 30}, true},
		{"lessThan", "body.user.age", map[string]any{"lessThan": 30}, false},
		{"range", "body.user.age", map[string]any{"greaterThan": 30, "lessThan": 40}, true},
		{"range partial fail", "body.user.age", map[string]any{"greaterThan": 30, "lessThan": 35}, false},
		{"greaterThan on numeric string", "body.count", map[string]any{"greaterThan": 1}, false},

		{"in", "headers.x-role", map[string]any{"in": []any{"admin", "owner"}}, true},
		{"in miss", "headers.x-role", map[string]any{"in": []any{"guest"}}, false},
		{"in strict", "query.page", map[string]any{"in": []any{2}}, false},
		{"in on missing", "query.nope", map[string]any{"in": []any{nil}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := mustParse(t, map[string]any{tt.path: tt.ops})
			assert.Equal(t, tt.want, Evaluate(n, ctx))
		})
	}
}

func TestOperatorsFailClosedOnBadOperands(t *testing.T) {
	// Trees built in code skip Parse validation; bad operands must still be false.
	ctx := testContext()
	age, _ := ctx.Resolve("body.user.age")

	for _, o := range []Operand{
		{Op: OpExists, Arg: value.String("yes")},
		{Op: OpGreaterThan, Arg: value.String("1")},
		{Op: OpIn, Arg: value.Int(36)},
		{Op: Op("bogus"), Arg: value.Null()},
	} {
		assert.False(t, Operators{o}.Match(age, true), string(o.Op))
	}
}

func TestLogicalLaws(t *testing.T) {
	ctx := testContext()
	leaves := map[string]map[string]any{
		"true":  {"params.id": "123"},
		"false": {"params.id": "nope"},
	}

	for an, a := range leaves {
		for bn, b := range leaves {
			A, B := mustParse(t, a), mustParse(t, b)
			ea, eb := Evaluate(A, ctx), Evaluate(B, ctx)

			and := mustParse(t, map[string]any{"$and": []any{a, b}})
			or := mustParse(t, map[string]any{"$or": []any{a, b}})
			not := mustParse(t, map[string]any{"$not": a})

			assert.Equal(t, ea && eb, Evaluate(and, ctx), "%s and %s", an, bn)
			assert.Equal(t, ea || eb, Evaluate(or, ctx), "%s or %s", an, bn)
			assert.Equal(t, !ea, Evaluate(not, ctx), "not %s", an)
		}
	}
}

func TestEmptyLogicalLists(t *testing.T) {
	ctx := testContext()
	assert.True(t, Evaluate(mustParse(t, map[string]any{"$and": []any{}}), ctx))
	assert.False(t, Evaluate(mustParse(t, map[string]any{"$or": []any{}}), ctx))
	assert.True(t, Evaluate(nil, ctx))
}

func TestNestedTree(t *testing.T) {
	ctx := testContext()
	n := mustParse(t, map[string]any{
		"$or": []any{
			map[string]any{"query.status": "inactive"},
			map[string]any{"$and": []any{
				map[string]any{"headers.x-role": map[string]any{"in": []any{"admin", "owner"}}},
				map[string]any{"$not": map[string]any{"body.user.admin": false}},
			}},
		},
	})
	assert.True(t, Evaluate(n, ctx))
}

func TestExpr(t *testing.T) {
	ctx := testContext()

	tests := []struct {
		src  string
		want bool
	}{
		{`params.id == "123"`, true},
		{`body.user.age > 30 && query.status == "active"`, true},
		{`"poetry" in body.user.tags`, true},
		{`headers["x-role"] == "guest"`, false},
		{`params.id`, false},
		{`nosuch.field == 1`, false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n := mustParse(t, map[string]any{"$expr": tt.src})
			assert.Equal(t, tt.want, Evaluate(n, ctx))
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   any
	}{
		{"not an object", "params.id"},
		{"and not a list", map[string]any{"$and": map[string]any{}}},
		{"or item not object", map[string]any{"$or": []any{1}}},
		{"not with list", map[string]any{"$not": []any{}}},
		{"unknown logical key", map[string]any{"$xor": []any{}}},
		{"logical mixed with fields", map[string]any{"$and": []any{}, "params.id": "1"}},
		{"unknown operator mixed in", map[string]any{"params.id": map[string]any{"exists": true, "bogus": 1}}},
		{"exists not bool", map[string]any{"params.id": map[string]any{"exists": "yes"}}},
		{"greaterThan not number", map[string]any{"params.id": map[string]any{"greaterThan": "1"}}},
		{"in not list", map[string]any{"params.id": map[string]any{"in": "a"}}},
		{"contains object", map[string]any{"params.id": map[string]any{"contains": map[string]any{}}}},
		{"empty expr", map[string]any{"$expr": "  "}},
		{"bad expr", map[string]any{"$expr": "params.id ==="}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(value.MustFromAny(tt.in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCondition))
		})
	}
}

func TestParseFieldOrderIsStable(t *testing.T) {
	n := mustParse(t, map[string]any{"query.b": 1, "params.a": 1, "body.c": 1})
	fm, ok := n.(FieldMapNode)
	require.True(t, ok)

	var paths []string
	for _, f := range fm.Fields {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"body.c", "params.a", "query.b"}, paths)
}

func TestMustParsePanics(t *testing.T) {
	assert.Panics(t, func() { MustParse(value.Int(1)) })
}
