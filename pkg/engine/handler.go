package engine

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/getmockd/faultmock/pkg/body"
	"github.com/getmockd/faultmock/pkg/fault"
	"github.com/getmockd/faultmock/pkg/httputil"
	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/metrics"
	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/store"
)

// MaxRequestBodySize is the maximum allowed request body size (10MB).
const MaxRequestBodySize = 10 << 20

// Reserved endpoints. They take priority over every route.
const (
	HealthPath  = "/__faultmock/health"
	MetricsPath = "/__faultmock/metrics"
)

// Handler serves requests from the current snapshot of a store.Holder.
type Handler struct {
	snapshots *store.Holder
	pipeline  *Pipeline
	metrics   *metrics.Metrics
	log       *slog.Logger
	started   time.Time

	// connections reports live connections for the health endpoint.
	connections func() int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithPipeline sets the pipeline. NewHandler creates a default one otherwise.
func WithPipeline(p *Pipeline) HandlerOption {
	return func(h *Handler) {
		if p != nil {
			h.pipeline = p
		}
	}
}

// WithMetrics enables request metrics and the metrics endpoint.
func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithHandlerLogger sets the operational logger.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHandler creates a Handler reading snapshots from holder.
func NewHandler(holder *store.Holder, opts ...HandlerOption) *Handler {
	h := &Handler{
		snapshots: holder,
		log:       logging.Nop(),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.pipeline == nil {
		h.pipeline = NewPipeline(
			WithPipelineLogger(h.log),
			WithInjector(fault.NewInjector(fault.WithLogger(h.log))),
		)
	}
	if h.metrics != nil {
		inj := h.pipeline.Injector()
		h.metrics.ObserveFaultState(inj.Waiting, inj.Held)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case HealthPath:
		h.handleHealth(w, r)
		return
	case MetricsPath:
		if h.metrics != nil {
			h.metrics.Handler().ServeHTTP(w, r)
			return
		}
	}

	start := time.Now()
	rec := newStatusRecorder(w)
	outcome := metrics.OutcomeFailure
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				h.observe(r.Method, metrics.OutcomeReset, 0, start)
				panic(v)
			}
			h.log.Error("panic while handling request", "method", r.Method, "path", r.URL.Path, "panic", fmt.Sprint(v))
			if !rec.written {
				httputil.WriteInternalError(rec, "internal_error", "internal server error")
			}
			outcome = metrics.OutcomeFailure
		}
		status := 0
		if rec.written {
			status = rec.statusCode
		}
		h.observe(r.Method, outcome, status, start)
	}()

	r.Body = http.MaxBytesReader(rec, r.Body, MaxRequestBodySize)
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.log.Warn("request body too large", "path", r.URL.Path, "limit", MaxRequestBodySize)
			httputil.WriteError(rec, http.StatusRequestEntityTooLarge, "body_too_large", "Request body exceeds maximum allowed size")
			return
		}
		h.log.Warn("failed to read request body", "path", r.URL.Path, "error", err)
	}

	out := h.pipeline.Handle(r.Context(), h.snapshots.Load(), Request{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.Query(),
		Headers: r.Header,
		Body:    raw,
	})
	outcome = h.execute(rec, r, out)
}

// execute carries out an outcome and returns its metrics label.
func (h *Handler) execute(w *statusRecorder, r *http.Request, out Outcome) string {
	ctx := r.Context()
	inj := h.pipeline.Injector()

	switch o := out.(type) {
	case NotFound:
		httputil.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error":  "No route matched",
			"method": o.Method,
			"path":   o.Path,
		})
		return metrics.OutcomeNotFound

	case Failure:
		msg := "failed to build response"
		if errors.Is(o.Err, body.ErrDataBlobMissing) {
			msg = o.Err.Error()
		}
		httputil.WriteInternalError(w, "response_failed", msg)
		return metrics.OutcomeFailure

	case Timeout:
		h.countFault(fault.KindTimeout)
		err := inj.Wait(ctx, o.After, func() {
			httputil.WriteJSON(w, http.StatusRequestTimeout, map[string]any{
				"error":   "Request Timeout",
				"message": fmt.Sprintf("Request timed out after %dms", o.After.Milliseconds()),
				"path":    o.Path,
				"query":   queryObject(o.Query),
			})
		})
		if err != nil {
			abandon(w)
			return metrics.OutcomeCancelled
		}
		return metrics.OutcomeTimeout

	case ConnectionFault:
		if o.Type == route.FaultSilent {
			h.countFault(fault.KindSilent)
			if err := inj.Wait(ctx, o.Delay, nil); err != nil {
				abandon(w)
				return metrics.OutcomeCancelled
			}
			h.log.Debug("holding connection", "method", r.Method, "path", r.URL.Path)
			_ = inj.Hold(ctx)
			abandon(w)
			return metrics.OutcomeSilent
		}
		h.countFault(fault.KindReset)
		if err := inj.Wait(ctx, o.Delay, nil); err != nil {
			abandon(w)
			return metrics.OutcomeCancelled
		}
		h.log.Debug("resetting connection", "method", r.Method, "path", r.URL.Path)
		fault.Reset(w)
		return metrics.OutcomeReset

	case Deliver:
		err := inj.Wait(ctx, o.Delay, func() {
			for k, v := range o.Headers {
				w.Header().Set(k, v)
			}
			if !o.HasBody {
				w.WriteHeader(o.Status)
				return
			}
			payload, err := o.Body.MarshalJSON()
			if err != nil {
				h.log.Error("failed to encode response body", "path", r.URL.Path, "error", err)
				httputil.WriteInternalError(w, "encode_failed", "failed to encode response body")
				return
			}
			httputil.WriteRaw(w, o.Status, payload)
		})
		if err != nil {
			abandon(w)
			return metrics.OutcomeCancelled
		}
		return metrics.OutcomeDeliver
	}

	h.log.Error("unknown pipeline outcome", "type", fmt.Sprintf("%T", out))
	httputil.WriteInternalError(w, "internal_error", "internal server error")
	return metrics.OutcomeFailure
}

// abandon closes the connection without a response once a request's context
// ended before its fault or delivery fired. When the writer cannot be
// hijacked the stream is left to net/http.
func abandon(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err == nil {
		_ = conn.Close()
	}
}

// queryObject renders query parameters the way conditions see them:
// single values as strings, repeated values as lists.
func queryObject(query url.Values) map[string]any {
	q := make(map[string]any, len(query))
	for k, vs := range query {
		if len(vs) == 1 {
			q[k] = vs[0]
			continue
		}
		q[k] = vs
	}
	return q
}

func (h *Handler) countFault(kind fault.Kind) {
	if h.metrics != nil {
		h.metrics.FaultsTotal.WithLabelValues(kind.String()).Inc()
	}
}

func (h *Handler) observe(method, outcome string, status int, start time.Time) {
	if h.metrics != nil {
		h.metrics.ObserveRequest(method, outcome, status, time.Since(start))
	}
}

// SetConnectionCounter sets the live connection source shown by the health
// endpoint.
func (h *Handler) SetConnectionCounter(fn func() int64) {
	h.connections = fn
}
