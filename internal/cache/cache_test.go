package cache

import (
	"strconv"
	"sync"
	"testing"
)

func intHasher(k int) uint64 { return uint64(k) }

func TestNew(t *testing.T) {
	tests := []struct {
		capacity int
		shards   int
	}{
		{0, MaxShards},
		{-1, MaxShards},
		{3, 1},
		{15, 1},
		{16, 2},
		{64, 8},
		{1000, MaxShards},
	}
	for _, tt := range tests {
		st := New[string, int](tt.capacity, StringHasher).Stats()
		if st.Shards != tt.shards {
			t.Errorf("New(%d) shards = %d, want %d", tt.capacity, st.Shards, tt.shards)
		}
		if st.Len != 0 || st.Capacity != max(tt.capacity, 0) {
			t.Errorf("New(%d) stats = %+v", tt.capacity, st)
		}
	}
}

func TestCacheGetSet(t *testing.T) {
	c := New[string, int](10, StringHasher)

	c.Set("key1", 42)
	if val, ok := c.Get("key1"); !ok || val != 42 {
		t.Errorf("Get(key1) = %d, %v, want 42, true", val, ok)
	}
	if _, ok := c.Get("nonexistent"); ok {
		t.Error("expected nonexistent key to not exist")
	}

	c.Set("key1", 7)
	if val, _ := c.Get("key1"); val != 7 {
		t.Errorf("Get(key1) after update = %d, want 7", val)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d after update, want 1", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	c := New[string, int](10, StringHasher)
	c.Set("key1", 42)

	if !c.Delete("key1") {
		t.Error("expected Delete to return true for existing key")
	}
	if c.Delete("key1") {
		t.Error("expected Delete to return false for deleted key")
	}
	if _, ok := c.Get("key1"); ok {
		t.Error("key1 still present after Delete")
	}

	// The freed slot is reusable without evicting.
	for i := 0; i < 10; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if st := c.Stats(); st.Evictions != 0 || st.Len != 10 {
		t.Errorf("Stats() = %+v, want 10 entries and no evictions", st)
	}
}

func TestCacheEviction(t *testing.T) {
	c := New[int, int](4, intHasher)
	for i := 0; i < 4; i++ {
		c.Set(i, i)
	}
	c.Get(0) // keep the oldest entry warm
	c.Set(4, 4)
	c.Set(5, 5)

	for _, k := range []int{0, 3, 4, 5} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%d was evicted", k)
		}
	}
	for _, k := range []int{1, 2} {
		if _, ok := c.Get(k); ok {
			t.Errorf("%d survived eviction", k)
		}
	}
	if st := c.Stats(); st.Len != 4 || st.Evictions != 2 {
		t.Errorf("Stats() = %+v, want 4 entries after 2 evictions", st)
	}
}

func TestShardedEviction(t *testing.T) {
	c := New[int, int](64, intHasher)
	for i := 0; i < 1000; i++ {
		c.Set(i, i)
	}
	st := c.Stats()
	if st.Len != 64 {
		t.Errorf("Len = %d, want every shard full at 64", st.Len)
	}
	if st.Evictions != 1000-64 {
		t.Errorf("Evictions = %d, want %d", st.Evictions, 1000-64)
	}
	// The newest key of each shard survives.
	for i := 1000 - st.Shards; i < 1000; i++ {
		if _, ok := c.Get(i); !ok {
			t.Errorf("%d was evicted", i)
		}
	}
}

func TestCacheUnlimited(t *testing.T) {
	c := New[int, int](0, intHasher)
	for i := 0; i < 500; i++ {
		c.Set(i, i)
	}
	if st := c.Stats(); st.Len != 500 || st.Evictions != 0 {
		t.Errorf("Stats() = %+v, want 500 entries and no evictions", st)
	}
}

func TestCacheStats(t *testing.T) {
	c := New[string, int](10, StringHasher)
	if c.Stats().HitRate() != 0 {
		t.Error("HitRate() before any lookup should be 0")
	}

	c.Set("key1", 1)
	c.Set("key2", 2)
	c.Get("key1")        // hit
	c.Get("key1")        // hit
	c.Get("nonexistent") // miss

	st := c.Stats()
	if st.Len != 2 || st.Hits != 2 || st.Misses != 1 {
		t.Errorf("Stats() = %+v, want Len=2 Hits=2 Misses=1", st)
	}
	if got := st.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRate() = %v, want 2/3", got)
	}
}

func TestCacheConcurrent(t *testing.T) {
	c := New[int, int](100, intHasher)
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(n*100+j, j)
				c.Get(n*100 + j/2)
				if j%10 == 0 {
					c.Delete(n*100 + j)
				}
			}
		}(i)
	}
	wg.Wait()

	if n := c.Len(); n == 0 || n > 100 {
		t.Errorf("Len() = %d after concurrent use, want 1..100", n)
	}
}

func TestStringHasher(t *testing.T) {
	if StringHasher("hello") != StringHasher("hello") {
		t.Error("StringHasher not deterministic")
	}
	if StringHasher("hello") == StringHasher("world") {
		t.Error("StringHasher collision for different strings")
	}
}

func TestList(t *testing.T) {
	l := newList[string]()
	if l.Len() != 0 {
		t.Errorf("expected empty list, got %d", l.Len())
	}

	a := l.PushFront("a")
	b := l.PushFront("b")
	l.PushFront("c")
	if l.Len() != 3 {
		t.Errorf("expected 3 elements, got %d", l.Len())
	}

	// a is oldest until it is touched.
	l.MoveToFront(a)
	l.Remove(b)
	l.Remove(b) // already unlinked
	if l.Len() != 2 {
		t.Errorf("expected 2 elements after remove, got %d", l.Len())
	}

	if k, ok := l.RemoveOldest(); !ok || k != "c" {
		t.Errorf("RemoveOldest() = %q, %v, want c", k, ok)
	}
	if k, ok := l.RemoveOldest(); !ok || k != "a" {
		t.Errorf("RemoveOldest() = %q, %v, want a", k, ok)
	}
	if _, ok := l.RemoveOldest(); ok {
		t.Error("expected RemoveOldest to return false on empty list")
	}
}
