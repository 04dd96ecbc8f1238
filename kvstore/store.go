// Package kvstore defines the key-value interface backing the secure cache
// and provides in-memory and Redis implementations. The cache core treats a
// store as single-key-atomic: a Get racing a Set for the same key observes
// the old or the new entry, never a torn one. No cross-key transactions.
package kvstore

import (
	"context"
	"time"

	"github.com/registrylabs/rdapnorm"
)

// Store is the backing key-value dependency. Get returns (nil, nil) for a
// missing key — absence is not an error.
type Store interface {
	Get(ctx context.Context, key string) (*rdapnorm.CacheEntry, error)
	Set(ctx context.Context, key string, entry *rdapnorm.CacheEntry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
