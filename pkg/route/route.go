package route

import (
	"time"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/faultmock/pkg/condition"
	"github.com/getmockd/faultmock/pkg/value"
)

// Definition is a compiled route.
type Definition struct {
	Method     string
	Path       string
	Conditions []Rule
	Default    Response
}

// Rule pairs a condition tree with the response it selects.
type Rule struct {
	When     condition.Node
	Response Response
}

// Select returns the response of the first rule whose condition holds for
// eval, or the default response. The second result is the index of the
// chosen rule, -1 for the default.
func (d *Definition) Select(eval func(condition.Node) bool) (*Response, int) {
	for i := range d.Conditions {
		if eval(d.Conditions[i].When) {
			return &d.Conditions[i].Response, i
		}
	}
	return &d.Default, -1
}

// Response is a compiled response spec.
type Response struct {
	StatusCode        int
	Headers           map[string]string
	Body              Body
	Latency           *Latency
	Timeout           Timeout
	ConnectionFailure *Fault
}

// Body is a compiled body spec.
//
// When neither Data nor DataFile is set, Literal is the response body.
type Body struct {
	Literal       value.Value
	Data          value.Value
	HasData       bool
	DataFile      string
	DataPath      jp.Expr
	Filter        map[string]value.Value
	Limit         value.Value
	DynamicFields map[string]value.Value
}

// Enveloped reports whether the assembled body is wrapped as {"data": ...}.
func (b Body) Enveloped() bool {
	return b.HasData || b.DataFile != ""
}

// Latency delays a normal response. Delay, when set, wins over Min/Max.
type Latency struct {
	Enabled bool
	Delay   *time.Duration
	Min     *time.Duration
	Max     *time.Duration
}

// Timeout pre-empts a response with a 408. After zero means the default wait.
type Timeout struct {
	Enabled bool
	After   time.Duration
}

// FaultType is the kind of connection failure.
type FaultType string

// Connection failure types.
const (
	FaultReset  FaultType = "reset"
	FaultSilent FaultType = "silent"
)

// Fault is a connection failure, applied after Delay.
type Fault struct {
	Type  FaultType
	Delay time.Duration
}
