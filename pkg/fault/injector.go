package fault

import (
	"context"
	"log/slog"
	mathrand "math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/route"
)

// Kind is the terminal path a request takes.
type Kind int

const (
	// KindDeliver sends the assembled body, possibly after a delay.
	KindDeliver Kind = iota
	// KindTimeout answers 408 after a delay.
	KindTimeout
	// KindReset aborts the transport after a delay.
	KindReset
	// KindSilent never answers.
	KindSilent
)

func (k Kind) String() string {
	switch k {
	case KindDeliver:
		return "deliver"
	case KindTimeout:
		return "timeout"
	case KindReset:
		return "reset"
	case KindSilent:
		return "silent"
	default:
		return "unknown"
	}
}

// Action is the planned fault for one request.
type Action struct {
	Kind  Kind
	Delay time.Duration
}

// Injector plans and executes faults. It is safe for concurrent use.
type Injector struct {
	logger *slog.Logger
	int64N func(int64) int64

	waiting atomic.Int64
	held    atomic.Int64
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Injector) { i.logger = logger }
}

// WithRandom sets the source for random latency. fn returns a value in [0, n).
func WithRandom(fn func(n int64) int64) Option {
	return func(i *Injector) { i.int64N = fn }
}

// NewInjector creates an Injector.
func NewInjector(opts ...Option) *Injector {
	i := &Injector{
		logger: logging.Nop(),
		int64N: mathrand.Int64N,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Plan picks the action for resp:
// connection failure > timeout > latency > immediate delivery.
func (i *Injector) Plan(resp *route.Response, defaults route.Defaults) Action {
	if f := resp.ConnectionFailure; f != nil {
		if f.Type == route.FaultSilent {
			return Action{Kind: KindSilent, Delay: f.Delay}
		}
		return Action{Kind: KindReset, Delay: f.Delay}
	}
	if resp.Timeout.Enabled {
		after := resp.Timeout.After
		if after <= 0 {
			after = defaults.Timeout
		}
		if after <= 0 {
			after = route.DefaultTimeout
		}
		return Action{Kind: KindTimeout, Delay: after}
	}
	return Action{Kind: KindDeliver, Delay: i.latency(resp.Latency, defaults)}
}

// latency returns the delay for an enabled latency spec: the fixed delay,
// else a uniform whole number of milliseconds in [min, max]. Missing bounds
// come from the defaults.
func (i *Injector) latency(l *route.Latency, defaults route.Defaults) time.Duration {
	if l == nil || !l.Enabled {
		return 0
	}
	if l.Delay != nil {
		return *l.Delay
	}
	lo, hi := defaults.LatencyMin, defaults.LatencyMax
	if l.Min != nil {
		lo = *l.Min
	}
	if l.Max != nil {
		hi = *l.Max
	}
	if hi < lo {
		hi = lo
	}
	loMS, hiMS := lo.Milliseconds(), hi.Milliseconds()
	return time.Duration(loMS+i.int64N(hiMS-loMS+1)) * time.Millisecond
}

// Wait is Schedule with bookkeeping for Waiting.
func (i *Injector) Wait(ctx context.Context, delay time.Duration, action func()) error {
	i.waiting.Add(1)
	defer i.waiting.Add(-1)
	err := Schedule(ctx, delay, action)
	if err != nil {
		i.logger.Debug("fault wait cancelled", "delay", delay, "error", err)
	}
	return err
}

// Hold blocks until ctx is done. Held counts the requests blocked here.
func (i *Injector) Hold(ctx context.Context) error {
	i.held.Add(1)
	defer i.held.Add(-1)
	<-ctx.Done()
	return ctx.Err()
}

// Waiting returns the number of requests in a scheduled wait.
func (i *Injector) Waiting() int64 { return i.waiting.Load() }

// Held returns the number of requests held by a silent fault.
func (i *Injector) Held() int64 { return i.held.Load() }
