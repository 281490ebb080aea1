// Package engine turns incoming HTTP requests into responses and faults.
//
// A request flows through a fixed pipeline:
//
//	match route -> evaluate conditions -> plan fault -> assemble body
//
// Pipeline.Handle runs that pipeline against a store snapshot and returns an
// Outcome. Handler executes the outcome on the wire: it writes the response,
// waits out latency, answers 408 for timeouts, resets the connection or
// holds it open. Server wraps Handler in an http.Server with connection
// accounting, an optional connection limit and graceful shutdown.
//
// Two reserved endpoints live under /__faultmock/:
//
//	/__faultmock/health   liveness and route count
//	/__faultmock/metrics  Prometheus metrics
package engine
