package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/getmockd/faultmock/pkg/datasource"
	"github.com/getmockd/faultmock/pkg/logging"
	"github.com/getmockd/faultmock/pkg/store"
)

// Builder turns Settings into store snapshots. It owns the Redis client, if
// any, so repeated builds on reload share one connection pool.
type Builder struct {
	settings *Settings
	redis    *redis.Client
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger used to report load results.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// NewBuilder creates a Builder for s.
func NewBuilder(s *Settings, opts ...BuilderOption) *Builder {
	b := &Builder{settings: s, logger: logging.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	if s.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:         s.Redis.Addr,
			Password:     s.Redis.Password,
			DB:           s.Redis.DB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	}
	return b
}

// Build loads routes and data sources into a new snapshot. Data blobs are
// looked up in the data directory first, then Redis.
func (b *Builder) Build(ctx context.Context) (*store.Snapshot, error) {
	set, err := LoadRoutes(b.settings.Routes...)
	if err != nil {
		return nil, err
	}
	for _, s := range set.Shadowed {
		b.logger.Warn("route shadowed by an earlier definition", "route", s)
	}

	var chain datasource.Chain
	if b.settings.DataDir != "" {
		blobs, err := datasource.LoadDir(b.settings.DataDir, b.settings.DataPattern)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("data directory loaded", "dir", b.settings.DataDir, "blobs", len(blobs))
		chain = append(chain, blobs)
	}
	if b.redis != nil {
		src := datasource.NewRedis(b.redis, b.settings.Redis.Prefix)
		if err := src.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis data source: %w", err)
		}
		chain = append(chain, src)
	}

	b.logger.Info("routes loaded", "routes", len(set.Routes), "files", len(set.Files))
	return store.NewSnapshot(set.Routes, set.Defaults, chain), nil
}

// Close releases the Redis client.
func (b *Builder) Close() error {
	if b.redis != nil {
		return b.redis.Close()
	}
	return nil
}
