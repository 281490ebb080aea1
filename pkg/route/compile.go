package route

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ohler55/ojg/jp"

	"github.com/getmockd/faultmock/pkg/condition"
	"github.com/getmockd/faultmock/pkg/util"
	"github.com/getmockd/faultmock/pkg/value"
)

// ValidationError represents a route that cannot be compiled.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Body directive keys.
const (
	KeyData          = "data"
	KeyDataFile      = "dataFile"
	KeyDataPath      = "dataPath"
	KeyFilter        = "filter"
	KeyLimit         = "limit"
	KeyDynamicFields = "dynamicFields"
)

// Compile validates a document and builds its Definition. Condition trees
// are parsed here so that malformed trees never reach request handling.
func Compile(doc *Document) (*Definition, error) {
	if doc == nil {
		return nil, invalid("route", "route is empty")
	}
	method := strings.ToUpper(strings.TrimSpace(doc.Method))
	if method == "" {
		return nil, invalid("method", "method is required")
	}
	if strings.ContainsAny(method, " \t/") {
		return nil, invalid("method", "invalid method %q", doc.Method)
	}
	if !strings.HasPrefix(doc.Path, "/") {
		return nil, invalid("path", "path must start with /, got %q", doc.Path)
	}
	if doc.DefaultResponse == nil {
		return nil, invalid("defaultResponse", "defaultResponse is required")
	}

	def := &Definition{Method: method, Path: doc.Path}
	for i, rule := range doc.Conditions {
		field := fmt.Sprintf("conditions[%d]", i)
		when, err := condition.Parse(rule.When)
		if err != nil {
			return nil, invalid(field+".when", "%v", err)
		}
		resp, err := compileResponse(&rule.Response, field+".response")
		if err != nil {
			return nil, err
		}
		def.Conditions = append(def.Conditions, Rule{When: when, Response: *resp})
	}

	resp, err := compileResponse(doc.DefaultResponse, "defaultResponse")
	if err != nil {
		return nil, err
	}
	def.Default = *resp
	return def, nil
}

func compileResponse(doc *ResponseDocument, field string) (*Response, error) {
	resp := &Response{StatusCode: doc.StatusCode, Headers: doc.Headers}
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	if resp.StatusCode < 100 || resp.StatusCode > 599 {
		return nil, invalid(field+".statusCode", "status code %d out of range", doc.StatusCode)
	}

	body, err := compileBody(doc.Body, field+".body")
	if err != nil {
		return nil, err
	}
	resp.Body = body

	if l := doc.Latency; l != nil {
		lat := &Latency{Enabled: l.Enabled}
		if lat.Delay, err = millis(l.Delay, field+".latency.delay"); err != nil {
			return nil, err
		}
		if lat.Min, err = millis(l.Min, field+".latency.min"); err != nil {
			return nil, err
		}
		if lat.Max, err = millis(l.Max, field+".latency.max"); err != nil {
			return nil, err
		}
		if lat.Min != nil && lat.Max != nil && *lat.Min > *lat.Max {
			return nil, invalid(field+".latency", "min must not exceed max")
		}
		resp.Latency = lat
	}

	if resp.Timeout, err = compileTimeout(doc.Timeout, field+".timeout"); err != nil {
		return nil, err
	}

	if f := doc.ConnectionFailure; f != nil {
		t := FaultType(f.Type)
		if t != FaultReset && t != FaultSilent {
			return nil, invalid(field+".connectionFailure.type", "unknown failure type %q", f.Type)
		}
		delay, err := millis(f.Delay, field+".connectionFailure.delay")
		if err != nil {
			return nil, err
		}
		fault := &Fault{Type: t}
		if delay != nil {
			fault.Delay = *delay
		}
		resp.ConnectionFailure = fault
	}
	return resp, nil
}

func compileTimeout(v value.Value, field string) (Timeout, error) {
	switch v.Kind() {
	case value.KindNull:
		return Timeout{}, nil
	case value.KindBool:
		b, _ := v.AsBool()
		return Timeout{Enabled: b}, nil
	case value.KindNumber:
		n, _ := v.AsNumber()
		if n < 0 || math.IsInf(n, 0) {
			return Timeout{}, invalid(field, "timeout must be a non-negative number of milliseconds")
		}
		if n == 0 {
			return Timeout{}, nil
		}
		return Timeout{Enabled: true, After: time.Duration(n * float64(time.Millisecond))}, nil
	default:
		return Timeout{}, invalid(field, "timeout must be a boolean or a number, got %s", v.Kind())
	}
}

// compileBody reads directives only from an object carrying data or
// dataFile. Any other body is a literal, served with all of its keys.
func compileBody(v value.Value, field string) (Body, error) {
	if !hasDataSource(v) {
		return Body{Literal: v}, nil
	}

	var b Body
	if data, ok := v.Field(KeyData); ok {
		b.Data, b.HasData = data, true
	}
	if f, ok := v.Field(KeyDataFile); ok {
		name, isString := f.AsString()
		if !isString || name == "" {
			return Body{}, invalid(field+".dataFile", "dataFile must be a non-empty string")
		}
		key, ok := util.DataKey(name)
		if !ok {
			return Body{}, invalid(field+".dataFile", "dataFile %q must be a relative path inside the data directory", name)
		}
		b.DataFile = key
	}
	if p, ok := v.Field(KeyDataPath); ok {
		src, isString := p.AsString()
		if !isString {
			return Body{}, invalid(field+".dataPath", "dataPath must be a string")
		}
		x, err := jp.ParseString(src)
		if err != nil {
			return Body{}, invalid(field+".dataPath", "invalid JSONPath %q: %v", src, err)
		}
		b.DataPath = x
	}
	if f, ok := v.Field(KeyFilter); ok {
		fields, isObject := f.AsObject()
		if !isObject {
			return Body{}, invalid(field+".filter", "filter must be an object")
		}
		b.Filter = fields
	}
	if l, ok := v.Field(KeyLimit); ok {
		switch l.Kind() {
		case value.KindNumber, value.KindString:
			b.Limit = l
		default:
			return Body{}, invalid(field+".limit", "limit must be a number or a string")
		}
	}
	if d, ok := v.Field(KeyDynamicFields); ok {
		fields, isObject := d.AsObject()
		if !isObject {
			return Body{}, invalid(field+".dynamicFields", "dynamicFields must be an object")
		}
		b.DynamicFields = fields
	}
	return b, nil
}

func hasDataSource(v value.Value) bool {
	if v.Kind() != value.KindObject {
		return false
	}
	_, data := v.Field(KeyData)
	_, file := v.Field(KeyDataFile)
	return data || file
}

func millis(ms *float64, field string) (*time.Duration, error) {
	if ms == nil {
		return nil, nil
	}
	if *ms < 0 || math.IsNaN(*ms) || math.IsInf(*ms, 0) {
		return nil, invalid(field, "must be a non-negative number of milliseconds")
	}
	d := time.Duration(*ms * float64(time.Millisecond))
	return &d, nil
}
