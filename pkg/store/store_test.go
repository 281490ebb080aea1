package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/faultmock/pkg/route"
)

func TestSnapshotCopiesRoutes(t *testing.T) {
	routes := []*route.Definition{{Method: "GET", Path: "/a"}}
	snap := NewSnapshot(routes, route.BuiltinDefaults(), nil)

	routes[0] = &route.Definition{Method: "GET", Path: "/changed"}
	assert.Equal(t, "/a", snap.Routes()[0].Path)
	assert.NotNil(t, snap.Data())
	assert.False(t, snap.LoadedAt().IsZero())
}

func TestHolder(t *testing.T) {
	h := NewHolder(nil)
	require.NotNil(t, h.Load())
	assert.Empty(t, h.Load().Routes())
	assert.Equal(t, route.BuiltinDefaults(), h.Load().Defaults())

	first := h.Load()
	next := NewSnapshot([]*route.Definition{{Method: "GET", Path: "/x"}}, route.Defaults{}, nil)
	prev, err := h.Swap(next)
	require.NoError(t, err)
	assert.Same(t, first, prev)
	assert.Same(t, next, h.Load())

	_, err = h.Swap(nil)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	assert.Same(t, next, h.Load())
}

func TestReloadKeepsCurrentOnError(t *testing.T) {
	h := NewHolder(nil)
	before := h.Load()

	boom := errors.New("bad route file")
	err := h.Reload(func() (*Snapshot, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Same(t, before, h.Load())

	require.NoError(t, h.Reload(func() (*Snapshot, error) { return Empty(), nil }))
	assert.NotSame(t, before, h.Load())
}

func TestHolderConcurrentAccess(t *testing.T) {
	h := NewHolder(nil)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = h.Swap(NewSnapshot(nil, route.Defaults{}, nil))
			}
		}()
		go func(i int) {
			defer wg.Done()
			for range 100 {
				assert.NotNil(t, h.Load(), "reader %d", i)
			}
		}(i)
	}
	wg.Wait()
}
