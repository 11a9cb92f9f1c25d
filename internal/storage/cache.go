package storage

import (
	"context"
	"time"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/pkg/cmap"
)

// CachedStore is a process-local read-through cache in front of a
// RecordStore. It is never authoritative: entries older than the TTL are
// ignored, a miss always falls through, and any failed write drops the
// entry for that id.
type CachedStore struct {
	next    RecordStore
	ttl     time.Duration
	entries *cmap.Map[cacheEntry]
	now     Clock
	observe func(hit bool)
}

type cacheEntry struct {
	payload      []byte
	lastActivity int64 // 0 when populated by a read
	cachedAt     time.Time
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

// WithCacheClock overrides the clock used for TTL checks.
func WithCacheClock(now Clock) CacheOption {
	return func(c *CachedStore) {
		c.now = now
	}
}

// WithCacheObserver registers a callback invoked on every Read with the
// hit/miss outcome.
func WithCacheObserver(fn func(hit bool)) CacheOption {
	return func(c *CachedStore) {
		c.observe = fn
	}
}

// Cached wraps next with a read-through cache. A non-positive ttl returns
// next unchanged.
func Cached(next RecordStore, ttl time.Duration, opts ...CacheOption) RecordStore {
	if ttl <= 0 {
		return next
	}

	c := &CachedStore{
		next:    next,
		ttl:     ttl,
		entries: cmap.New[cacheEntry](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read serves a fresh cache entry or falls through to the backing store.
func (c *CachedStore) Read(ctx context.Context, id string) ([]byte, error) {
	if e, ok := c.entries.Get(id); ok && c.now().Sub(e.cachedAt) < c.ttl {
		c.record(true)
		return clone(e.payload), nil
	}
	c.record(false)

	payload, err := c.next.Read(ctx, id)
	if err != nil {
		c.entries.Delete(id)
		return nil, err
	}
	if payload == nil {
		c.entries.Delete(id)
		return nil, nil
	}

	c.entries.Set(id, cacheEntry{payload: clone(payload), cachedAt: c.now()})
	return payload, nil
}

// Write persists through and refreshes the entry on success.
func (c *CachedStore) Write(ctx context.Context, id string, plaintext []byte) error {
	if err := c.next.Write(ctx, id, plaintext); err != nil {
		c.entries.Delete(id)
		return err
	}

	now := c.now()
	c.entries.Set(id, cacheEntry{payload: clone(plaintext), lastActivity: now.Unix(), cachedAt: now})
	return nil
}

// Destroy invalidates the entry before removing the record.
func (c *CachedStore) Destroy(ctx context.Context, id string) error {
	c.entries.Delete(id)
	return c.next.Destroy(ctx, id)
}

// ExpireOlderThan sweeps the backing store, then drops every entry that may
// belong to a swept record.
func (c *CachedStore) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := c.next.ExpireOlderThan(ctx, cutoff)
	limit := domain.CutoffSeconds(cutoff)
	c.entries.DeleteIf(func(_ string, e cacheEntry) bool {
		return e.lastActivity < limit
	})
	return n, err
}

// Close clears the cache and closes the backing store.
func (c *CachedStore) Close() error {
	c.entries.Clear()
	return c.next.Close()
}

// Len returns the number of cached entries.
func (c *CachedStore) Len() int {
	return c.entries.Count()
}

func (c *CachedStore) record(hit bool) {
	if c.observe != nil {
		c.observe(hit)
	}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}
