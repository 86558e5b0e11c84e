package kv

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheEntries is used when a non-positive size is configured.
const DefaultCacheEntries = 256

// MetricsSnapshot is a point-in-time copy of cache counters.
type MetricsSnapshot struct {
	Hits           uint64
	Misses         uint64
	OriginReads    uint64
	OriginWrites   uint64
	OriginDeletes  uint64
	OriginReadErr  uint64
	OriginWriteErr uint64
}

type metrics struct {
	hits           atomic.Uint64
	misses         atomic.Uint64
	originReads    atomic.Uint64
	originWrites   atomic.Uint64
	originDeletes  atomic.Uint64
	originReadErr  atomic.Uint64
	originWriteErr atomic.Uint64
}

// CachedStore is a read-through, write-through LRU cache in front of
// another Store. Absent keys are not cached.
type CachedStore struct {
	origin  Store
	cache   *lru.Cache[string, []byte]
	metrics metrics
}

// NewCachedStore wraps origin with an LRU of the given number of entries.
func NewCachedStore(origin Store, entries int) (*CachedStore, error) {
	if origin == nil {
		return nil, fmt.Errorf("origin store is nil")
	}
	if entries <= 0 {
		entries = DefaultCacheEntries
	}
	cache, err := lru.New[string, []byte](entries)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}
	return &CachedStore{origin: origin, cache: cache}, nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, error) {
	if raw, ok := s.cache.Get(key); ok {
		s.metrics.hits.Add(1)
		return append([]byte(nil), raw...), nil
	}
	s.metrics.misses.Add(1)
	s.metrics.originReads.Add(1)

	raw, err := s.origin.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.metrics.originReadErr.Add(1)
		}
		return nil, err
	}
	s.cache.Add(key, append([]byte(nil), raw...))
	return raw, nil
}

func (s *CachedStore) Put(ctx context.Context, key string, value []byte) error {
	s.metrics.originWrites.Add(1)
	if err := s.origin.Put(ctx, key, value); err != nil {
		s.metrics.originWriteErr.Add(1)
		s.cache.Remove(key)
		return err
	}
	s.cache.Add(key, append([]byte(nil), value...))
	return nil
}

func (s *CachedStore) Delete(ctx context.Context, key string) error {
	s.metrics.originDeletes.Add(1)
	s.cache.Remove(key)
	if err := s.origin.Delete(ctx, key); err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.metrics.originWriteErr.Add(1)
		}
		return err
	}
	return nil
}

// Metrics returns the current counters.
func (s *CachedStore) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		Hits:           s.metrics.hits.Load(),
		Misses:         s.metrics.misses.Load(),
		OriginReads:    s.metrics.originReads.Load(),
		OriginWrites:   s.metrics.originWrites.Load(),
		OriginDeletes:  s.metrics.originDeletes.Load(),
		OriginReadErr:  s.metrics.originReadErr.Load(),
		OriginWriteErr: s.metrics.originWriteErr.Load(),
	}
}
