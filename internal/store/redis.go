package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "tasker:"

// RedisBackend stores each collection under <prefix><collection> with no expiry.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedisBackend(client *redis.Client, prefix string) *RedisBackend {
	if client == nil {
		panic("store.NewRedisBackend: client is nil")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisBackend{client: client, prefix: prefix}
}

// OpenRedis parses a redis:// URL, or falls back to treating it as host:port.
func OpenRedis(url string, prefix string) (*RedisBackend, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: redis url is required", ErrInvalid)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		opts = &redis.Options{Addr: url}
	}
	return NewRedisBackend(redis.NewClient(opts), prefix), nil
}

func (r *RedisBackend) key(c Collection) string {
	return r.prefix + string(c)
}

func (r *RedisBackend) Read(ctx context.Context, c Collection) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key(c)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", c, err)
	}
	return b, nil
}

func (r *RedisBackend) Write(ctx context.Context, c Collection, data []byte) error {
	if err := r.client.Set(ctx, r.key(c), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c, err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
