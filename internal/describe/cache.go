package describe

import (
	"container/list"
	"sync"
)

const defaultCacheSize = 100

// Cache is a bounded LRU map from photo fingerprints to finished
// descriptions. Both Get hits and Set refresh recency; when an insert would
// exceed capacity the least recently used entry is evicted.
//
// The map and the recency list mutate together, so all operations hold a
// single mutex. Capacity is fixed at construction.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

type cacheEntry struct {
	key         string
	description string
}

// NewCache creates a Cache holding at most maxSize entries.
// If maxSize <= 0, the default (100) is used.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = defaultCacheSize
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*list.Element, maxSize),
		order:   list.New(),
	}
}

// Get returns the cached description for key and marks it most recently used.
// A miss has no side effects.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).description, true
}

// Set stores a description under key. An existing key is updated in place and
// refreshed; a new key evicts the least recently used entry first if the
// cache is full.
func (c *Cache) Set(key, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).description = description
		c.order.MoveToFront(el)
		return
	}

	if len(c.entries) >= c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, description: description})
}

// Size returns the current number of cached entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all cached entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element, c.maxSize)
	c.order.Init()
}
