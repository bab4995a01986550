package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"productview/catalog/internal/domain"
)

// DefaultMaxEntries bounds a MemoryPageCache created with maxEntries <= 0.
const DefaultMaxEntries = 1000

type memoryEntry struct {
	page      domain.PageResult
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryPageCache is an in-process PageCache with a fixed TTL and a fixed
// number of entries. Expired entries are swept on every write; when the cache
// is still full the oldest entry is evicted.
type MemoryPageCache struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewMemoryPageCache creates an in-memory cache. A zero ttl never expires.
func NewMemoryPageCache(ttl time.Duration, maxEntries int) *MemoryPageCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryPageCache{
		entries:    make(map[string]memoryEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *MemoryPageCache) GetPage(_ context.Context, key string) (*domain.PageResult, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.expired(entry, c.now()) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}

	page := entry.page
	page.Items = slices.Clone(page.Items)
	return &page, nil
}

func (c *MemoryPageCache) SetPage(_ context.Context, key string, page domain.PageResult) error {
	page.Items = slices.Clone(page.Items)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.sweep(now)
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}
	c.entries[key] = memoryEntry{page: page, storedAt: now, expiresAt: now.Add(c.ttl)}
	return nil
}

func (c *MemoryPageCache) expired(entry memoryEntry, now time.Time) bool {
	return c.ttl > 0 && !now.Before(entry.expiresAt)
}

// sweep drops expired entries. Callers hold c.mu.
func (c *MemoryPageCache) sweep(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
		}
	}
}

// evictOldest drops the entry stored first. Callers hold c.mu.
func (c *MemoryPageCache) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.storedAt.Before(oldest) {
			oldestKey, oldest, found = key, entry.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryPageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
