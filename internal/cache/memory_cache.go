package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// cacheItem represents an item in the memory cache
type cacheItem struct {
	value      []byte
	expiration time.Time
}

func (i *cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryCache implements Cache using in-process storage. Expired entries are
// dropped lazily on access.
type MemoryCache struct {
	mutex  sync.RWMutex
	items  map[string]*cacheItem
	closed bool
	now    func() time.Time
	hits   int64
	misses int64
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		items: make(map[string]*cacheItem),
		now:   time.Now,
	}
}

// Get retrieves a value from cache
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mutex.RLock()
	if c.closed {
		c.mutex.RUnlock()
		return nil, ErrCacheClosed
	}
	item, ok := c.items[key]
	c.mutex.RUnlock()

	if !ok || item.expired(c.now()) {
		if ok {
			c.mutex.Lock()
			delete(c.items, key)
			c.mutex.Unlock()
		}
		atomic.AddInt64(&c.misses, 1)
		return nil, ErrKeyNotFound
	}

	atomic.AddInt64(&c.hits, 1)
	out := make([]byte, len(item.value))
	copy(out, item.value)
	return out, nil
}

// Set stores a value in cache
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrCacheClosed
	}

	item := &cacheItem{value: append([]byte(nil), value...)}
	if ttl > 0 {
		item.expiration = c.now().Add(ttl)
	}
	c.items[key] = item
	return nil
}

// Delete removes a value from cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.closed {
		return ErrCacheClosed
	}
	delete(c.items, key)
	return nil
}

// Exists checks if a key exists
func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.closed {
		return false, ErrCacheClosed
	}
	item, ok := c.items[key]
	return ok && !item.expired(c.now()), nil
}

// Close releases all entries
func (c *MemoryCache) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.closed = true
	c.items = nil
	return nil
}

// Stats returns cache statistics
func (c *MemoryCache) Stats() Stats {
	c.mutex.RLock()
	keys := int64(len(c.items))
	c.mutex.RUnlock()

	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Keys:   keys,
	}
}
