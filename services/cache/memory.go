package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// entry is what MemoryStore keeps per key.
type entry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
//
// Expiry is decided by the store's clock at read time: an entry is absent once
// now >= expiresAt. The go-cache janitor, when enabled, only reclaims memory
// for entries that are already invisible.
type MemoryStore struct {
	items *gocache.Cache
	now   func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now for expiry decisions.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an empty store. A positive cleanupInterval starts the
// go-cache janitor; zero disables background cleanup.
func NewMemoryStore(cleanupInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		items: gocache.New(gocache.NoExpiration, cleanupInterval),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get implements Store. Expired entries are reported absent but not removed.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, found := s.items.Get(key)
	if !found {
		return nil, false, nil
	}

	e, ok := v.(entry)
	if !ok || !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.items.Set(key, entry{data: value, expiresAt: s.now().Add(ttl)}, janitorTTL(ttl))
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (s *MemoryStore) Len() int {
	return s.items.ItemCount()
}

// janitorTTL gives go-cache a reclaim deadline one TTL later than the visible
// expiry, so an injected clock running ahead of wall time still decides
// visibility.
func janitorTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return 2 * ttl
}
