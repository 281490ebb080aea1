// Package metrics exposes Prometheus metrics for the response engine.
//
// Metrics live in their own registry so several servers (and tests) can run
// in one process:
//
//   - faultmock_requests_total: requests by method, outcome and status
//   - faultmock_request_duration_seconds: handling time by outcome, faults included
//   - faultmock_faults_total: injected faults by kind (latency, timeout, reset, silent)
//   - faultmock_active_connections: open client connections
//   - faultmock_routes_loaded: route definitions in the current snapshot
//   - faultmock_fault_waiting / faultmock_fault_held: requests in a fault wait or hold
//
// # Label Conventions
//
//   - method: uppercase HTTP method
//   - outcome: deliver, not_found, failure, timeout, reset, silent, cancelled
//   - status: numeric HTTP status, or "none" when no response was written
package metrics
