package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/getmockd/faultmock/pkg/value"
)

//go:embed route.schema.json
var routeSchemaJSON string

const routeSchemaURL = "route.schema.json"

var (
	routeSchemaOnce sync.Once
	routeSchema     *jsonschema.Schema
	routeSchemaErr  error
)

func compiledRouteSchema() (*jsonschema.Schema, error) {
	routeSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(routeSchemaURL, strings.NewReader(routeSchemaJSON)); err != nil {
			routeSchemaErr = fmt.Errorf("adding route schema: %w", err)
			return
		}
		routeSchema, routeSchemaErr = compiler.Compile(routeSchemaURL)
	})
	return routeSchema, routeSchemaErr
}

// CheckSchema validates a decoded route file against the route schema. The
// returned error wraps ErrSchema and lists one line per violation.
func CheckSchema(doc value.Value) error {
	schema, err := compiledRouteSchema()
	if err != nil {
		return err
	}
	err = schema.Validate(doc.Any())
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("%w: %w", ErrSchema, err)
	}
	var lines []string
	collectSchemaErrors(verr, &lines)
	return fmt.Errorf("%w:\n  %s", ErrSchema, strings.Join(lines, "\n  "))
}

// collectSchemaErrors flattens the cause tree into its leaves.
func collectSchemaErrors(err *jsonschema.ValidationError, lines *[]string) {
	if len(err.Causes) == 0 {
		*lines = append(*lines, fmt.Sprintf("%s: %s", instancePath(err.InstanceLocation), err.Message))
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(cause, lines)
	}
}

// instancePath converts a JSON Pointer to dot notation.
func instancePath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return "(root)"
	}
	return strings.ReplaceAll(ptr, "/", ".")
}
