package fault

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Schedule runs action after delay unless ctx ends first, in which case it
// returns ctx.Err() and action never runs. The timer is stopped either way.
func Schedule(ctx context.Context, delay time.Duration, action func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if action != nil {
		action()
	}
	return nil
}

// Reset aborts the connection behind w without writing a response. The
// connection is closed with SO_LINGER 0 so the peer sees a reset. When w
// cannot be hijacked (HTTP/2) Reset panics with http.ErrAbortHandler, which
// the server turns into a stream reset.
func Reset(w http.ResponseWriter) {
	conn, _, err := http.NewResponseController(w).Hijack()
	if err != nil {
		panic(http.ErrAbortHandler)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = conn.Close()
}
