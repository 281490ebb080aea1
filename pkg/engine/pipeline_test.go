package engine

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/body"
	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/value"
)

func handle(t *testing.T, p *Pipeline, routesYAML string, req Request) Outcome {
	t.Helper()
	snap := snapshotFrom(t, routesYAML, map[string]string{"users.json": usersBlob})
	return p.Handle(context.Background(), snap, req)
}

func bodyJSON(t *testing.T, v value.Value) string {
	t.Helper()
	raw, err := v.MarshalJSON()
	require.NoError(t, err)
	return string(raw)
}

func TestPipelineConditionScenario(t *testing.T) {
	p := NewPipeline()

	out := handle(t, p, usersRoutes, Request{Method: "GET", Path: "/users/123"})
	d, ok := out.(Deliver)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, 200, d.Status)
	assert.Equal(t, 0, d.Rule)
	assert.JSONEq(t, `{"data":{"id":"123"}}`, bodyJSON(t, d.Body))

	out = handle(t, p, usersRoutes, Request{Method: "get", Path: "/users/999"})
	d, ok = out.(Deliver)
	require.True(t, ok, "got %T", out)
	assert.Equal(t, 404, d.Status)
	assert.Equal(t, -1, d.Rule)
	assert.JSONEq(t, `{"error":"User 999 not found"}`, bodyJSON(t, d.Body))
}

func TestPipelineFilterScenario(t *testing.T) {
	out := handle(t, NewPipeline(), usersRoutes, Request{
		Method: "GET",
		Path:   "/users",
		Query:  url.Values{"status": {"active"}},
	})
	d, ok := out.(Deliver)
	require.True(t, ok, "got %T", out)
	assert.JSONEq(t, `{"data":[{"id":1,"status":"active"},{"id":3,"status":"active"}]}`, bodyJSON(t, d.Body))
	assert.Equal(t, map[string]string{"X-Total-Filter": "active"}, d.Headers)

	out = handle(t, NewPipeline(), usersRoutes, Request{
		Method: "GET",
		Path:   "/users",
		Query:  url.Values{"status": {"active"}, "limit": {"1"}},
	})
	d = out.(Deliver)
	assert.JSONEq(t, `{"data":[{"id":1,"status":"active"}]}`, bodyJSON(t, d.Body))
}

func TestPipelineRequestBodyAndHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Tenant", "acme")

	out := handle(t, NewPipeline(), usersRoutes, Request{
		Method:  "POST",
		Path:    "/users",
		Headers: headers,
		Body:    []byte(`{"name":"Ada","role":"admin"}`),
	})
	d := out.(Deliver)
	assert.Equal(t, 201, d.Status)
	assert.JSONEq(t, `{"created":"Ada","tenant":"acme"}`, bodyJSON(t, d.Body))

	out = handle(t, NewPipeline(), usersRoutes, Request{
		Method: "POST",
		Path:   "/users",
		Body:   []byte(`{"name":"Bob","role":"admin"}`),
	})
	assert.Equal(t, 403, out.(Deliver).Status)
}

func TestPipelineNotFound(t *testing.T) {
	out := handle(t, NewPipeline(), usersRoutes, Request{Method: "PUT", Path: "/users/1"})
	assert.Equal(t, NotFound{Method: "PUT", Path: "/users/1"}, out)

	out = handle(t, NewPipeline(), usersRoutes, Request{Method: "GET", Path: "/users/1/orders"})
	assert.IsType(t, NotFound{}, out)
}

func TestPipelineMissingBlob(t *testing.T) {
	out := handle(t, NewPipeline(), usersRoutes, Request{Method: "GET", Path: "/missing"})
	f, ok := out.(Failure)
	require.True(t, ok, "got %T", out)
	assert.ErrorIs(t, f.Err, body.ErrDataBlobMissing)
	assert.Equal(t, "/missing", f.Route.Path)
}

func TestPipelineNoBody(t *testing.T) {
	out := handle(t, NewPipeline(), usersRoutes, Request{Method: "DELETE", Path: "/users/7"})
	d := out.(Deliver)
	assert.Equal(t, 204, d.Status)
	assert.False(t, d.HasBody)
}

const faultRoutes = `
routes:
  - method: GET
    path: /slow
    defaultResponse:
      latency: {enabled: true, delay: 250}
      body: {ok: true}
  - method: GET
    path: /timeout
    defaultResponse:
      timeout: true
      latency: {enabled: true, delay: 10}
      body: {dataFile: nowhere.json}
  - method: GET
    path: /timeout/custom
    defaultResponse:
      timeout: 1200
  - method: GET
    path: /reset
    defaultResponse:
      timeout: true
      connectionFailure: {type: reset, delay: 30}
  - method: GET
    path: /silent
    defaultResponse:
      connectionFailure: {type: silent}
`

func TestPipelineFaultPrecedence(t *testing.T) {
	p := NewPipeline()
	req := func(path string) Request {
		return Request{Method: "GET", Path: path, Query: url.Values{"a": {"1"}}}
	}

	d := handle(t, p, faultRoutes, req("/slow")).(Deliver)
	assert.Equal(t, 250*time.Millisecond, d.Delay)

	// timeout pre-empts latency, and the body is never assembled
	to, ok := handle(t, p, faultRoutes, req("/timeout")).(Timeout)
	require.True(t, ok)
	assert.Equal(t, route.DefaultTimeout, to.After)
	assert.Equal(t, "/timeout", to.Path)
	assert.Equal(t, url.Values{"a": {"1"}}, to.Query)

	to = handle(t, p, faultRoutes, req("/timeout/custom")).(Timeout)
	assert.Equal(t, 1200*time.Millisecond, to.After)

	cf, ok := handle(t, p, faultRoutes, req("/reset")).(ConnectionFault)
	require.True(t, ok)
	assert.Equal(t, route.FaultReset, cf.Type)
	assert.Equal(t, 30*time.Millisecond, cf.Delay)

	cf = handle(t, p, faultRoutes, req("/silent")).(ConnectionFault)
	assert.Equal(t, route.FaultSilent, cf.Type)
	assert.Zero(t, cf.Delay)
}
