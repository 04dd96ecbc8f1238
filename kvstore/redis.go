package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/registrylabs/rdapnorm"
)

// Redis is a Store backed by a Redis server. Entries are stored as JSON with
// Redis-side expiry, so the backend enforces TTL independently of the
// validator's own freshness layer.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. prefix namespaces keys so one server can
// back several caches.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "rdapnorm:cache:"
	}
	return &Redis{client: client, prefix: prefix}
}

// NewRedisFromURL connects from a redis:// URL and verifies the connection.
func NewRedisFromURL(ctx context.Context, rawURL, prefix string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(client, prefix), nil
}

// Get returns the entry for key, or (nil, nil) when absent.
func (r *Redis) Get(ctx context.Context, key string) (*rdapnorm.CacheEntry, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var entry rdapnorm.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", err)
	}
	return &entry, nil
}

// Set stores entry under key with server-side expiry.
func (r *Redis) Set(ctx context.Context, key string, entry *rdapnorm.CacheEntry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
