package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is an LRU cache bounded by the total size of its values in
// bytes, as reported by the size function given at construction.
type MemoryCache[V any] struct {
	capacity int64
	size     int64
	sizeOf   func(V) int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type memoryEntry[V any] struct {
	key       string
	value     V
	size      int64
	timestamp time.Time
}

// NewMemoryCache creates a memory cache holding at most capacity bytes.
func NewMemoryCache[V any](capacity int64, sizeOf func(V) int64) *MemoryCache[V] {
	return &MemoryCache[V]{
		capacity: capacity,
		sizeOf:   sizeOf,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
		stats:    Stats{Level: LevelMemory, Capacity: capacity},
	}
}

// Get returns the value for key and marks it most recently used.
func (c *MemoryCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	c.stats.LastAccess = time.Now()
	return elem.Value.(*memoryEntry[V]).value, true
}

// Put stores value under key, evicting least recently used entries until it
// fits.
func (c *MemoryCache[V]) Put(key string, value V) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := c.sizeOf(value)
	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	entry := &memoryEntry[V]{
		key:       key,
		value:     value,
		size:      valueSize,
		timestamp: time.Now(),
	}
	c.items[key] = c.eviction.PushFront(entry)
	c.size += valueSize
	return nil
}

// Clear removes all entries.
func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

// Contains reports whether key is cached without touching recency.
func (c *MemoryCache[V]) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Resize changes the capacity, evicting as needed.
func (c *MemoryCache[V]) Resize(capacity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = capacity
	c.stats.Capacity = capacity
	for c.size > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}
}

// Stats returns cache statistics.
func (c *MemoryCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	stats.updateHitRate()
	return stats
}

// evictOldest must be called with the lock held.
func (c *MemoryCache[V]) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
		c.stats.LastEvict = time.Now()
	}
}

func (c *MemoryCache[V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*memoryEntry[V])
	delete(c.items, entry.key)
	c.size -= entry.size
}
