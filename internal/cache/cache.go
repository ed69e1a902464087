// Package cache provides a sharded LRU cache with atomic hit, miss and
// eviction counters.
//
// Keys are spread over up to MaxShards shards, each with its own lock and
// recency list, so every operation is O(1). Small caches use fewer shards
// to keep eviction close to a global LRU.
package cache

import (
	"hash/fnv"
	"math/bits"
	"sync"
	"sync/atomic"
)

const (
	// MaxShards bounds the shard count. Must be a power of 2.
	MaxShards = 16

	// minPerShard is the smallest per-shard capacity worth sharding for.
	minPerShard = 8
)

// Hasher computes the hash used to pick a shard.
type Hasher[K any] func(K) uint64

// StringHasher is the FNV-1a hash of s.
func StringHasher(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s)) // never fails
	return h.Sum64()
}

// Stats reports cache activity.
type Stats struct {
	// Len is the number of entries.
	Len int
	// Capacity is the total capacity, 0 when unlimited.
	Capacity int
	// Shards is the number of shards.
	Shards    int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	if total := s.Hits + s.Misses; total > 0 {
		return float64(s.Hits) / float64(total)
	}
	return 0
}

// Cache is a thread-safe LRU cache. It must not be copied after creation.
type Cache[K comparable, V any] struct {
	shards   []*shard[K, V]
	mask     uint64
	hasher   Hasher[K]
	capacity int
	perShard int // 0 means unlimited

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type shard[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*entry[K, V]
	order   *list[K]
}

type entry[K comparable, V any] struct {
	value V
	node  *node[K]
}

// New creates a cache holding at most capacity entries. capacity <= 0
// means unlimited. The bound is enforced per shard, so a full cache may
// hold slightly fewer entries than capacity.
func New[K comparable, V any](capacity int, hasher Hasher[K]) *Cache[K, V] {
	capacity = max(capacity, 0)
	n := MaxShards
	if capacity > 0 {
		n = shardCount(capacity)
	}
	c := &Cache[K, V]{
		shards:   make([]*shard[K, V], n),
		mask:     uint64(n - 1),
		hasher:   hasher,
		capacity: capacity,
	}
	if capacity > 0 {
		c.perShard = capacity / n
	}
	for i := range c.shards {
		c.shards[i] = &shard[K, V]{
			entries: make(map[K]*entry[K, V]),
			order:   newList[K](),
		}
	}
	return c
}

// shardCount is the largest power of 2 up to MaxShards that leaves every
// shard at least minPerShard entries.
func shardCount(capacity int) int {
	n := capacity / minPerShard
	if n <= 1 {
		return 1
	}
	return min(1<<(bits.Len(uint(n))-1), MaxShards)
}

func (c *Cache[K, V]) shardFor(key K) *shard[K, V] {
	return c.shards[c.hasher(key)&c.mask]
}

// Get returns the value for key and marks it recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		s.order.MoveToFront(e.node)
	}
	s.mu.Unlock()

	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

// Set stores value under key, evicting the least recently used entries
// of the shard when it is full.
func (c *Cache[K, V]) Set(key K, value V) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.value = value
		s.order.MoveToFront(e.node)
		return
	}
	for c.perShard > 0 && s.order.Len() >= c.perShard {
		oldest, ok := s.order.RemoveOldest()
		if !ok {
			break
		}
		delete(s.entries, oldest)
		c.evictions.Add(1)
	}
	s.entries[key] = &entry[K, V]{value: value, node: s.order.PushFront(key)}
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return false
	}
	s.order.Remove(e.node)
	delete(s.entries, key)
	return true
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}

// Stats returns a snapshot of the counters.
func (c *Cache[K, V]) Stats() Stats {
	return Stats{
		Len:       c.Len(),
		Capacity:  c.capacity,
		Shards:    len(c.shards),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
