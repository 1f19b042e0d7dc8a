package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache keeps at most a fixed number of entries in process memory.
// When full, expired entries are dropped first, then the oldest one.
type MemoryCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]memEntry
	now     func() time.Time
}

type memEntry struct {
	data      []byte
	storedAt  time.Time
	expiresAt time.Time
}

// NewMemoryCache returns an in-process cache holding up to size entries.
// size below 1 means 1.
func NewMemoryCache(size int) *MemoryCache {
	return &MemoryCache{max: max(size, 1), entries: make(map[string]memEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if c.expired(e) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.data, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	e := memEntry{data: data, storedAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	if _, ok := c.entries[key]; !ok && len(c.entries) >= c.max {
		c.evict()
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}

func (c *MemoryCache) expired(e memEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// evict makes room for one entry. Callers hold mu.
func (c *MemoryCache) evict() {
	var (
		oldest   string
		oldestAt time.Time
		removed  bool
	)
	for k, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, k)
			removed = true
			continue
		}
		if oldest == "" || e.storedAt.Before(oldestAt) {
			oldest, oldestAt = k, e.storedAt
		}
	}
	if !removed && oldest != "" {
		delete(c.entries, oldest)
	}
}

var _ Cache = (*MemoryCache)(nil)
