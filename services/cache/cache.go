// Package cache provides a typed, time-bounded result cache over a pluggable
// byte store.
//
// Values are encoded to JSON before they reach the store, so every entry is an
// immutable byte slice and concurrent readers never observe a partial write.
// Expiry is lazy: an entry whose deadline has passed is reported as absent.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// DefaultTTL is applied when Set is called with a non-positive ttl.
const DefaultTTL = time.Hour

// Store is the byte-level storage behind a Cache.
// Get returns found=false for absent or expired keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LookupRecorder receives one observation per Get.
type LookupRecorder interface {
	ObserveCacheLookup(cache string, hit bool)
}

// Stats is a snapshot of lookup counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
}

// Cache is a typed view over a Store. It is safe for concurrent use.
type Cache[V any] struct {
	name       string
	store      Store
	defaultTTL time.Duration
	logger     *zap.Logger
	recorder   LookupRecorder

	hits   atomic.Int64
	misses atomic.Int64
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	defaultTTL time.Duration
	recorder   LookupRecorder
}

// WithDefaultTTL overrides DefaultTTL.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.defaultTTL = ttl
		}
	}
}

// WithRecorder reports every lookup to r.
func WithRecorder(r LookupRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// New creates a typed cache named name on top of store.
func New[V any](name string, store Store, logger *zap.Logger, opts ...Option) *Cache[V] {
	o := options{defaultTTL: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Cache[V]{
		name:       name,
		store:      store,
		defaultTTL: o.defaultTTL,
		logger:     logger.With(zap.String("cache", name)),
		recorder:   o.recorder,
	}
}

// Get returns the value stored under key and true, or the zero value and
// false when the key was never set, has expired, or the store failed.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed, treating as miss", zap.String("key", key), zap.Error(err))
		c.observe(false)
		return zero, false
	}
	if !found {
		c.observe(false)
		return zero, false
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		c.logger.Warn("cache entry could not be decoded, treating as miss", zap.String("key", key), zap.Error(err))
		c.observe(false)
		return zero, false
	}

	c.observe(true)
	return value, true
}

// Set stores value under key, replacing any previous entry. A ttl <= 0 uses
// the cache's default TTL.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache value could not be encoded", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.store.Set(ctx, key, data, ttl); err != nil {
		c.logger.Warn("cache set failed, entry dropped", zap.String("key", key), zap.Error(err))
	}
}

// Stats returns the hit and miss counts since creation.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Name returns the cache name used in logs and metrics.
func (c *Cache[V]) Name() string {
	return c.name
}

func (c *Cache[V]) observe(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.recorder != nil {
		c.recorder.ObserveCacheLookup(c.name, hit)
	}
}
