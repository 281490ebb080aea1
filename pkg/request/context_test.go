package request

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/value"
)

func TestFromHTTP(t *testing.T) {
	body := `{"user":{"name":"ada","roles":["admin","dev"]}}`
	r := httptest.NewRequest(http.MethodPost, "/users/7?status=active&tag=a&tag=b", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("X-Trace-Id", "abc")

	ctx := FromHTTP(r, map[string]string{"id": "7"}, []byte(body))

	tests := []struct {
		path string
		want value.Value
	}{
		{"params.id", value.String("7")},
		{"query.status", value.String("active")},
		{"query.tag", value.List(value.String("a"), value.String("b"))},
		{"body.user.name", value.String("ada")},
		{"body.user.roles.1", value.String("dev")},
		{"headers.x-trace-id", value.String("abc")},
		{"headers.X-Trace-Id", value.String("abc")},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ctx.Resolve(tt.path)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %#v", got)
		})
	}
}

func TestResolveMissing(t *testing.T) {
	ctx := New(nil, nil, nil, value.Object(nil))

	for _, path := range []string{"", "params.id", "cookies.session", "body.x.y", "query"} {
		_, ok := ctx.Resolve(path)
		if path == "query" {
			assert.True(t, ok, "bare source resolves to the source object")
			continue
		}
		assert.False(t, ok, path)
	}

	var nilCtx *Context
	_, ok := nilCtx.Resolve("params.id")
	assert.False(t, ok)
}

func TestParseBody(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		raw         string
		want        string
	}{
		{"empty", "application/json", "  ", `{}`},
		{"json", "application/json; charset=utf-8", `{"a":1}`, `{"a":1}`},
		{"vendor json", "application/vnd.api+json", `[1,2]`, `[1,2]`},
		{"sniffed json", "text/plain", `{"a":true}`, `{"a":true}`},
		{"invalid json kept raw", "application/json", `{nope`, `"{nope"`},
		{"form", "application/x-www-form-urlencoded", "a=1&b=2&b=3", `{"a":"1","b":["2","3"]}`},
		{"text", "text/plain", "hello", `"hello"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseBody(tt.contentType, []byte(tt.raw))
			b, err := got.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))
		})
	}
}

func TestRepeatedHeadersJoined(t *testing.T) {
	h := http.Header{}
	h.Add("Accept", "text/html")
	h.Add("Accept", "application/json")
	ctx := New(nil, url.Values{}, h, value.Null())

	got, ok := ctx.Resolve("headers.accept")
	require.True(t, ok)
	assert.True(t, value.String("text/html, application/json").Equal(got))
}
