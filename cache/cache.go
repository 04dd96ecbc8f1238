// Package cache is the secure read-through cache facade: every read passes
// the validator before data may be served, and every write is sealed with a
// fresh signature. A failed validation is indistinguishable from a miss to
// the caller's control flow — the data is never surfaced — but the typed
// error says why, and the poisoned entry is evicted immediately.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/registrylabs/rdapnorm"
	"github.com/registrylabs/rdapnorm/cachesec"
	"github.com/registrylabs/rdapnorm/internal/metrics"
	"github.com/registrylabs/rdapnorm/kvstore"
)

// Cache validates on read and signs on write.
type Cache struct {
	store     kvstore.Store
	validator *cachesec.Validator
	log       zerolog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithMetrics attaches Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a Cache over a backing store and validator.
func New(store kvstore.Store, validator *cachesec.Validator, opts ...Option) *Cache {
	c := &Cache{
		store:     store,
		validator: validator,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached payload for key, scoped to tenantID. A miss is
// (nil, nil). A validation failure evicts the entry and returns
// (nil, *cachesec.ValidationError): the caller falls through to a live fetch
// either way, and the underlying data is never returned on any failure.
func (c *Cache) Get(ctx context.Context, key, tenantID string) (json.RawMessage, error) {
	k := normalizeKey(key)
	entry, err := c.store.Get(ctx, k)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		c.metrics.RecordCacheRequest("miss")
		return nil, nil
	}

	state, verr := c.validator.Validate(entry, tenantID)
	if state != cachesec.StateValid {
		c.metrics.RecordCacheRequest("rejected")
		if ve, ok := verr.(*cachesec.ValidationError); ok {
			c.metrics.RecordCacheValidation("rejected", string(ve.Reason))
		}
		// Evict immediately: a rejected entry must never be served, and
		// keeping it around just re-runs the same failure.
		if derr := c.store.Delete(ctx, k); derr != nil {
			c.log.Warn().Err(derr).Str("key", k).Msg("evicting rejected cache entry failed")
		}
		return nil, verr
	}

	c.metrics.RecordCacheRequest("hit")
	c.metrics.RecordCacheValidation("valid", "")
	return entry.Data, nil
}

// Set seals data under a fresh signature and stores it. The signature,
// timestamp, and recorded size always come from the validator's Seal —
// there is no path by which a caller supplies its own.
func (c *Cache) Set(ctx context.Context, key string, data json.RawMessage, vc rdapnorm.ValidationContext, sm rdapnorm.SecurityMetadata, ttl time.Duration) error {
	entry, err := c.validator.Seal(data, vc, sm, ttl)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, normalizeKey(key), entry, ttl)
}

// Delete invalidates key explicitly.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, normalizeKey(key))
}

// normalizeKey lowercases cache keys: a case-sensitive keyspace lets
// EXAMPLE.COM and example.com coexist as distinct entries, which is a cache
// poisoning aid.
func normalizeKey(key string) string {
	return strings.ToLower(key)
}
