package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/getmockd/faultmock/internal/matching"
	"github.com/getmockd/faultmock/pkg/body"
	"github.com/getmockd/faultmock/pkg/condition"
	"github.com/getmockd/faultmock/pkg/fault"
	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/request"
	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/store"
	"github.com/getmockd/faultmock/pkg/template"
	"github.com/getmockd/faultmock/pkg/util"
)

// Request is the pipeline's view of an incoming request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Headers http.Header
	Body    []byte
}

// Pipeline decides the outcome of a request. It holds no per-request state
// and is safe for concurrent use.
type Pipeline struct {
	templates *template.Engine
	assembler *body.Assembler
	injector  *fault.Injector
	log       *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithTemplates sets the template engine used for bodies and headers.
func WithTemplates(e *template.Engine) PipelineOption {
	return func(p *Pipeline) {
		if e != nil {
			p.templates = e
		}
	}
}

// WithInjector sets the fault injector used to plan faults.
func WithInjector(i *fault.Injector) PipelineOption {
	return func(p *Pipeline) {
		if i != nil {
			p.injector = i
		}
	}
}

// WithPipelineLogger sets the operational logger.
func WithPipelineLogger(log *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPipeline creates a Pipeline.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		templates: template.New(),
		injector:  fault.NewInjector(),
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.assembler = body.NewAssembler(p.templates)
	return p
}

// Injector returns the injector used to plan and run faults.
func (p *Pipeline) Injector() *fault.Injector { return p.injector }

// Handle runs req through the pipeline against snap.
func (p *Pipeline) Handle(ctx context.Context, snap *store.Snapshot, req Request) Outcome {
	m, ok := matching.Match(req.Method, req.Path, snap.Routes())
	if !ok {
		return NotFound{Method: req.Method, Path: req.Path}
	}
	def := m.Route

	reqCtx := request.New(m.Params, req.Query, req.Headers, request.ParseBody(req.Headers.Get("Content-Type"), req.Body))
	resp, rule := def.Select(func(n condition.Node) bool {
		return condition.Evaluate(n, reqCtx)
	})

	action := p.injector.Plan(resp, snap.Defaults())
	switch action.Kind {
	case fault.KindReset:
		return ConnectionFault{Route: def, Type: route.FaultReset, Delay: action.Delay}
	case fault.KindSilent:
		return ConnectionFault{Route: def, Type: route.FaultSilent, Delay: action.Delay}
	case fault.KindTimeout:
		return Timeout{Route: def, After: action.Delay, Path: req.Path, Query: req.Query}
	}

	payload, err := p.assembler.Assemble(ctx, resp.Body, reqCtx, snap.Data())
	if err != nil {
		p.log.Warn("failed to assemble response body", "method", def.Method, "route", def.Path, "error", err,
			"requestBody", util.TruncateBody(string(req.Body), 0))
		return Failure{Route: def, Err: err}
	}

	var headers map[string]string
	if len(resp.Headers) > 0 {
		headers = make(map[string]string, len(resp.Headers))
		for k, v := range resp.Headers {
			headers[k] = p.templates.Process(v, reqCtx)
		}
	}

	p.log.Debug("route matched", "method", def.Method, "route", def.Path, "rule", rule, "status", resp.StatusCode)
	return Deliver{
		Route:   def,
		Rule:    rule,
		Status:  resp.StatusCode,
		Headers: headers,
		Body:    payload,
		HasBody: !payload.IsNull() || resp.Body.Enveloped(),
		Delay:   action.Delay,
	}
}
