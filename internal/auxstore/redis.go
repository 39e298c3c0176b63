package auxstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists aux keys in Redis, matching the teacher's
// internal/storage/redis.go connection conventions (single shared client,
// context.Background for operations outside a request lifecycle).
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	prefix string
}

// NewRedisStore dials addr and verifies connectivity with a Ping.
func NewRedisStore(addr, password string, db int, keyPrefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("auxstore: redis connection failed: %w", err)
	}
	return &RedisStore{client: client, ctx: ctx, prefix: keyPrefix}, nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) fullKey(key string) string {
	return r.prefix + key
}

// Get implements Store.
func (r *RedisStore) Get(key string) ([]byte, error) {
	v, err := r.client.Get(r.ctx, r.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("auxstore: redis get %q: %w", key, err)
	}
	return v, nil
}

// Has implements Store.
func (r *RedisStore) Has(key string) (bool, error) {
	n, err := r.client.Exists(r.ctx, r.fullKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("auxstore: redis exists %q: %w", key, err)
	}
	return n > 0, nil
}

// Put implements Store.
func (r *RedisStore) Put(key string, value []byte) error {
	if err := r.client.Set(r.ctx, r.fullKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("auxstore: redis set %q: %w", key, err)
	}
	return nil
}
