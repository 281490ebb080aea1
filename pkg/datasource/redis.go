package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/getmockd/faultmock/pkg/value"
)

// Redis reads JSON blobs stored as plain string keys. The blob "users.json"
// lives under Prefix + "users.json".
type Redis struct {
	client redis.Cmdable
	prefix string
}

// NewRedis returns a Redis source.
func NewRedis(client redis.Cmdable, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Lookup implements Lookup.
func (r *Redis) Lookup(ctx context.Context, key string) (value.Value, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return value.Value{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return value.Value{}, fmt.Errorf("redis get %s: %w", key, err)
	}
	v, err := value.Parse(raw)
	if err != nil {
		return value.Value{}, fmt.Errorf("parsing redis blob %s: %w", key, err)
	}
	return v, nil
}

// Ping tests the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
