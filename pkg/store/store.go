// Package store holds the configuration the request pipeline reads: route
// definitions in load order, the global defaults and the named data blobs.
//
// A Snapshot is immutable once built. Reloading builds a new Snapshot and
// swaps it into the Holder; requests already running keep the snapshot they
// started with.
package store

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/getmockd/faultmock/pkg/datasource"
	"github.com/getmockd/faultmock/pkg/route"
)

// Common errors
var (
	ErrNoSnapshot = errors.New("no snapshot loaded")
)

// Snapshot is one consistent view of the configuration.
type Snapshot struct {
	routes   []*route.Definition
	defaults route.Defaults
	data     datasource.Lookup
	loadedAt time.Time
}

// NewSnapshot builds a snapshot. The routes slice is copied; definitions are
// shared and must not be modified afterwards.
func NewSnapshot(routes []*route.Definition, defaults route.Defaults, data datasource.Lookup) *Snapshot {
	if data == nil {
		data = datasource.Map{}
	}
	return &Snapshot{
		routes:   append([]*route.Definition(nil), routes...),
		defaults: defaults,
		data:     data,
		loadedAt: time.Now(),
	}
}

// Empty returns a snapshot with no routes and the built-in defaults.
func Empty() *Snapshot {
	return NewSnapshot(nil, route.BuiltinDefaults(), nil)
}

// Routes returns the route definitions in load order.
func (s *Snapshot) Routes() []*route.Definition { return s.routes }

// Defaults returns the global defaults.
func (s *Snapshot) Defaults() route.Defaults { return s.defaults }

// Data returns the data blob source.
func (s *Snapshot) Data() datasource.Lookup { return s.data }

// LoadedAt returns when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Holder publishes the current snapshot.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder returns a Holder serving initial, or an empty snapshot.
func NewHolder(initial *Snapshot) *Holder {
	h := &Holder{}
	if initial == nil {
		initial = Empty()
	}
	h.current.Store(initial)
	return h
}

// Load returns the current snapshot.
func (h *Holder) Load() *Snapshot {
	return h.current.Load()
}

// Swap installs next and returns the previous snapshot.
func (h *Holder) Swap(next *Snapshot) (*Snapshot, error) {
	if next == nil {
		return nil, ErrNoSnapshot
	}
	return h.current.Swap(next), nil
}

// Reload builds a snapshot with build and installs it. On error the current
// snapshot stays in place.
func (h *Holder) Reload(build func() (*Snapshot, error)) error {
	next, err := build()
	if err != nil {
		return err
	}
	_, err = h.Swap(next)
	return err
}
