// Package datasource provides the named data blobs referenced by a body's
// dataFile key.
//
// A blob is any JSON or YAML document. Sources are looked up by key:
//
//   - Map holds blobs in memory (the directory loader produces one)
//   - Redis reads JSON blobs stored under a key prefix
//   - Chain asks several sources in order
package datasource

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/getmockd/faultmock/pkg/value"
)

// ErrNotFound is returned when no blob exists under a key.
var ErrNotFound = errors.New("data blob not found")

// Lookup fetches a blob by key. Implementations return an error wrapping
// ErrNotFound for unknown keys and must be safe for concurrent use.
type Lookup interface {
	Lookup(ctx context.Context, key string) (value.Value, error)
}

// Map is an immutable in-memory source.
type Map map[string]value.Value

// Lookup implements Lookup.
func (m Map) Lookup(_ context.Context, key string) (value.Value, error) {
	v, ok := m[key]
	if !ok {
		return value.Value{}, ErrNotFound
	}
	return v, nil
}

// Keys returns the sorted blob keys.
func (m Map) Keys() []string {
	return slices.Sorted(maps.Keys(m))
}

// Chain consults sources in order and returns the first blob found. Errors
// other than ErrNotFound stop the search.
type Chain []Lookup

// Lookup implements Lookup.
func (c Chain) Lookup(ctx context.Context, key string) (value.Value, error) {
	for _, src := range c {
		if src == nil {
			continue
		}
		v, err := src.Lookup(ctx, key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return value.Value{}, err
		}
	}
	return value.Value{}, ErrNotFound
}
