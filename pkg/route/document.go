// Package route holds route definitions: the on-disk document shape and the
// compiled form the request pipeline reads.
package route

import (
	"encoding/json"
	"fmt"

	"github.com/getmockd/faultmock/pkg/value"
)

// Document is a route as written in a JSON or YAML route file.
type Document struct {
	// Method is the HTTP method, compared case-insensitively.
	Method string `json:"method" yaml:"method"`

	// Path is the pattern, e.g. "/users/:id".
	Path string `json:"path" yaml:"path"`

	// Conditions are evaluated in order; the first true `when` wins.
	Conditions []RuleDocument `json:"conditions,omitempty" yaml:"conditions,omitempty"`

	// DefaultResponse applies when no condition matches.
	DefaultResponse *ResponseDocument `json:"defaultResponse" yaml:"defaultResponse"`
}

// RuleDocument is one conditional response.
type RuleDocument struct {
	When     value.Value      `json:"when" yaml:"when"`
	Response ResponseDocument `json:"response" yaml:"response"`
}

// ResponseDocument describes a response and the faults applied to it.
type ResponseDocument struct {
	StatusCode int               `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       value.Value       `json:"body,omitempty" yaml:"body,omitempty"`

	Latency *LatencyDocument `json:"latency,omitempty" yaml:"latency,omitempty"`

	// Timeout is false, true (use the default wait) or a wait in milliseconds.
	Timeout value.Value `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	ConnectionFailure *FaultDocument `json:"connectionFailure,omitempty" yaml:"connectionFailure,omitempty"`
}

// LatencyDocument is either a fixed delay or a [min, max] range, in milliseconds.
type LatencyDocument struct {
	Enabled bool     `json:"enabled" yaml:"enabled"`
	Delay   *float64 `json:"delay,omitempty" yaml:"delay,omitempty"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
}

// FaultDocument describes a connection failure.
type FaultDocument struct {
	Type  string   `json:"type" yaml:"type"`
	Delay *float64 `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// DecodeDocument converts a generic decoded value into a Document.
func DecodeDocument(v value.Value) (*Document, error) {
	raw, err := v.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding route: %w", err)
	}
	return &doc, nil
}
