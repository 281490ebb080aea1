package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/metrics"
	"github.com/getmockd/faultmock/pkg/store"
)

// DefaultReadHeaderTimeout bounds how long a client may take to send headers.
const DefaultReadHeaderTimeout = 10 * time.Second

// Server is the faultmock HTTP server.
type Server struct {
	addr              string
	readHeaderTimeout time.Duration
	maxConns          int

	snapshots *store.Holder
	handler   *Handler
	metrics   *metrics.Metrics
	log       *slog.Logger

	httpServer *http.Server
	listener   net.Listener

	// baseCtx parents every request context. Cancelling it on Stop releases
	// requests held by silent faults or long waits.
	baseCtx    context.Context
	cancelBase context.CancelFunc

	conns atomic.Int64

	mu        sync.Mutex
	running   bool
	startTime time.Time
	serveDone chan struct{}
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address. Defaults to ":8080".
func WithAddr(addr string) ServerOption {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithServerMetrics enables Prometheus metrics.
func WithServerMetrics(m *metrics.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithReadHeaderTimeout sets http.Server.ReadHeaderTimeout.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(s *Server) {
		s.readHeaderTimeout = d
	}
}

// WithMaxConnections caps the number of simultaneously accepted connections.
// Zero means unlimited.
func WithMaxConnections(n int) ServerOption {
	return func(s *Server) {
		s.maxConns = n
	}
}

// NewServer creates a Server serving snapshots from holder.
func NewServer(holder *store.Holder, opts ...ServerOption) *Server {
	s := &Server{
		addr:              ":8080",
		readHeaderTimeout: DefaultReadHeaderTimeout,
		snapshots:         holder,
		log:               logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handler = NewHandler(holder, WithHandlerLogger(s.log), WithMetrics(s.metrics))
	s.handler.SetConnectionCounter(s.conns.Load)
	s.updateRouteGauge()
	return s
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}
	if s.maxConns > 0 {
		ln = netutil.LimitListener(ln, s.maxConns)
	}

	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.baseCtx },
		ConnState:         s.trackConn,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelDebug),
	}
	s.serveDone = make(chan struct{})

	s.log.Info("starting HTTP server", "addr", ln.Addr().String(), "maxConnections", s.maxConns)
	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}(s.httpServer, s.serveDone)

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop releases held requests and shuts the server down, waiting for
// in-flight responses until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancelBase()
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		err = errors.Join(fmt.Errorf("HTTP shutdown: %w", err), s.httpServer.Close())
	}
	<-s.serveDone

	s.running = false
	return err
}

// Reload rebuilds the snapshot with build and swaps it in. On error the
// current snapshot stays active.
func (s *Server) Reload(build func() (*store.Snapshot, error)) error {
	if err := s.snapshots.Reload(build); err != nil {
		s.log.Warn("reload failed, keeping current routes", "error", err)
		return err
	}
	s.updateRouteGauge()
	s.log.Info("routes reloaded", "routes", len(s.snapshots.Load().Routes()))
	return nil
}

// Addr returns the bound address once started, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Handler returns the request handler.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int64 {
	return s.conns.Load()
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Uptime returns the server uptime in seconds.
func (s *Server) Uptime() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return int(time.Since(s.startTime).Seconds())
}

// trackConn counts connections. A hijacked connection never reports
// StateClosed, so hijacking ends it as far as the count is concerned.
func (s *Server) trackConn(_ net.Conn, state http.ConnState) {
	var delta int64
	switch state {
	case http.StateNew:
		delta = 1
	case http.StateHijacked, http.StateClosed:
		delta = -1
	default:
		return
	}
	s.conns.Add(delta)
	if s.metrics != nil {
		s.metrics.ActiveConnections.Add(float64(delta))
	}
}

func (s *Server) updateRouteGauge() {
	if s.metrics != nil {
		s.metrics.RoutesLoaded.Set(float64(len(s.snapshots.Load().Routes())))
	}
}
