package engine

import (
	"net/url"
	"time"

	"github.com/getmockd/faultmock/pkg/route"
	"github.com/getmockd/faultmock/pkg/value"
)

// Outcome is the terminal result of the pipeline for one request. It is one
// of NotFound, Failure, Deliver, Timeout or ConnectionFault.
type Outcome interface {
	outcome()
}

// NotFound means no route matched the method and path.
type NotFound struct {
	Method string
	Path   string
}

// Failure means the route matched but the response could not be built.
type Failure struct {
	Route *route.Definition
	Err   error
}

// Deliver sends Body with Status after Delay.
type Deliver struct {
	Route   *route.Definition
	Rule    int // index of the matching condition, -1 for the default response
	Status  int
	Headers map[string]string

	// Body is written as JSON unless HasBody is false.
	Body    value.Value
	HasBody bool

	Delay time.Duration
}

// Timeout answers 408 after After.
type Timeout struct {
	Route *route.Definition
	After time.Duration
	Path  string
	Query url.Values
}

// ConnectionFault resets or silently holds the connection after Delay.
type ConnectionFault struct {
	Route *route.Definition
	Type  route.FaultType
	Delay time.Duration
}

func (NotFound) outcome()        {}
func (Failure) outcome()         {}
func (Deliver) outcome()         {}
func (Timeout) outcome()         {}
func (ConnectionFault) outcome() {}
