// Package fault simulates network faults for a matched route.
//
// For each request the Injector turns the chosen response into exactly one
// Action, with a fixed precedence:
//
//   - Connection failure: after an optional delay, reset the transport or
//     hold the request open until the peer or the server gives up
//   - Timeout: wait, then answer 408 without assembling a body
//   - Latency: wait a fixed or random delay, then deliver normally
//   - Immediate delivery
//
// # Waiting
//
// Every wait goes through Schedule, which races a timer against the request
// context. Whichever finishes first wins and the timer is always stopped, so
// a client that disconnects never receives a late write:
//
//	err := fault.Schedule(r.Context(), 250*time.Millisecond, func() {
//	    writeTimeout(w, r)
//	})
//
// # Connection Faults
//
// Reset hijacks the connection, sets SO_LINGER to zero and closes it, so the
// peer sees a TCP reset with no response bytes. Hold blocks until the request
// context ends.
package fault
