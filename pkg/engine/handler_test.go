package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/metrics"
	"github.com/getmockd/faultmock/pkg/store"
)

func newTestHandler(t *testing.T, routesYAML string, opts ...HandlerOption) *Handler {
	t.Helper()
	snap := snapshotFrom(t, routesYAML, map[string]string{"users.json": usersBlob})
	return NewHandler(store.NewHolder(snap), opts...)
}

func serve(h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, body))
	return rec
}

func TestHandlerDeliver(t *testing.T) {
	h := newTestHandler(t, usersRoutes)

	rec := serve(h, "GET", "/users/123", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"123"}}`, rec.Body.String())

	rec = serve(h, "GET", "/users?status=inactive", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "inactive", rec.Header().Get("X-Total-Filter"))
	assert.JSONEq(t, `{"data":[{"id":2,"status":"inactive"}]}`, rec.Body.String())

	rec = serve(h, "DELETE", "/users/1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestHandlerHeadFallsBackToGet(t *testing.T) {
	h := newTestHandler(t, usersRoutes)
	rec := serve(h, "HEAD", "/users/123", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerNotFound(t *testing.T) {
	h := newTestHandler(t, usersRoutes)
	rec := serve(h, "PATCH", "/users/1?x=1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"No route matched","method":"PATCH","path":"/users/1"}`, rec.Body.String())
}

func TestHandlerMissingBlob(t *testing.T) {
	h := newTestHandler(t, usersRoutes)
	rec := serve(h, "GET", "/missing", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "data blob missing")
	assert.Contains(t, rec.Body.String(), "nowhere.json")
}

func TestHandlerBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, usersRoutes)
	big := strings.NewReader(strings.Repeat("x", MaxRequestBodySize+1))
	rec := serve(h, "POST", "/users", big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

const shortTimeoutRoutes = `
defaults:
  timeout: 40
routes:
  - method: GET
    path: /timeout
    defaultResponse:
      timeout: true
      body: {never: sent}
  - method: GET
    path: /reset
    defaultResponse:
      connectionFailure: {type: reset}
`

func TestHandlerTimeout(t *testing.T) {
	h := newTestHandler(t, shortTimeoutRoutes)

	start := time.Now()
	rec := serve(h, "GET", "/timeout?page=2&tag=a&tag=b", nil)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)

	assert.Equal(t, http.StatusRequestTimeout, rec.Code)
	assert.JSONEq(t, `{
		"error": "Request Timeout",
		"message": "Request timed out after 40ms",
		"path": "/timeout",
		"query": {"page": "2", "tag": ["a", "b"]}
	}`, rec.Body.String())
}

func TestHandlerTimeoutCancelledByClient(t *testing.T) {
	h := newTestHandler(t, usersRoutes+`
  - method: GET
    path: /hang
    defaultResponse:
      timeout: 60000
`)
	req := httptest.NewRequest("GET", "/hang", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req.WithContext(ctx))
	assert.False(t, rec.Flushed)
	assert.Empty(t, rec.Body.String(), "nothing is written after the client went away")
}

func TestHandlerResetWithoutHijackAborts(t *testing.T) {
	h := newTestHandler(t, shortTimeoutRoutes)
	defer func() {
		v := recover()
		require.NotNil(t, v)
		err, ok := v.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, http.ErrAbortHandler))
	}()
	serve(h, "GET", "/reset", nil)
	t.Fatal("expected the handler to abort")
}

func TestHandlerRecoversPanics(t *testing.T) {
	m := metrics.New()
	h := NewHandler(store.NewHolder(nil), WithMetrics(m), WithPipeline(NewPipeline()))
	// A nil snapshot makes the pipeline panic.
	h.snapshots = &store.Holder{}

	rec := serve(h, "GET", "/anything", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", metrics.OutcomeFailure, "500")))
}

func TestHandlerHealthAndMetrics(t *testing.T) {
	m := metrics.New()
	h := newTestHandler(t, usersRoutes, WithMetrics(m))
	h.SetConnectionCounter(func() int64 { return 3 })

	serve(h, "GET", "/users/123", nil)
	serve(h, "GET", "/nope", nil)

	rec := serve(h, "GET", HealthPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
	assert.Contains(t, rec.Body.String(), `"routes":5`)
	assert.Contains(t, rec.Body.String(), `"connections":3`)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", metrics.OutcomeDeliver, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", metrics.OutcomeNotFound, "404")))

	rec = serve(h, "GET", MetricsPath, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "faultmock_requests_total")
	assert.Contains(t, rec.Body.String(), "faultmock_fault_waiting 0")
}

func TestHandlerMetricsPathWithoutMetricsIsRouted(t *testing.T) {
	h := newTestHandler(t, usersRoutes)
	rec := serve(h, "GET", MetricsPath, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
