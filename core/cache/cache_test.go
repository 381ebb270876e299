package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 3})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		v, ok := cache.Get(key)
		assert.True(t, ok, "Get(%s)", key)
		assert.Equal(t, want, v, "Get(%s)", key)
	}
	_, ok := cache.Get("d")
	assert.False(t, ok)
	assert.Equal(t, 3, cache.Len())
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a")    // "b" is now least recently used
	cache.Put("c", 3) // evicts "b"

	_, ok := cache.Get("b")
	assert.False(t, ok, "b should be evicted")
	_, ok = cache.Get("a")
	assert.True(t, ok, "a should survive eviction")
	_, ok = cache.Get("c")
	assert.True(t, ok)
}

func TestLRUCache_Update(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("a", 10)

	v, _ := cache.Get("a")
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, cache.Len())
}

func TestLRUCache_RemoveAndClear(t *testing.T) {
	cache := NewLRUCache[string, int](Config{})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Remove("a")
	cache.Remove("missing")

	_, ok := cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
}

func TestLRUCache_TTL(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 3, TTL: 50 * time.Millisecond})

	cache.Put("a", 1)
	v, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	time.Sleep(100 * time.Millisecond)

	_, ok = cache.Get("a")
	assert.False(t, ok, "entry should expire")
	assert.Equal(t, 0, cache.Len(), "expired entry should be removed")
}

func TestLRUCache_Stats(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a")
	cache.Get("b")
	cache.Get("c")
	cache.Get("d")
	cache.Put("c", 3) // evicts "a"

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(1), stats.Evictions)
	assert.Equal(t, 2, stats.Size)
	assert.Equal(t, 2, stats.MaxSize)
}

func TestLRUCache_OnEvict(t *testing.T) {
	var evictedKey string
	var evictedValue int

	cache := NewLRUCache[string, int](Config{
		MaxSize: 2,
		OnEvict: func(key, value interface{}) {
			evictedKey = key.(string)
			evictedValue = value.(int)
		},
	})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	assert.Equal(t, "a", evictedKey)
	assert.Equal(t, 1, evictedValue)
}

func TestLRUCache_UnlimitedSize(t *testing.T) {
	cache := NewLRUCache[int, int](Config{MaxSize: -5})

	for i := 0; i < 500; i++ {
		cache.Put(i, i)
	}
	assert.Equal(t, 500, cache.Len())

	s := cache.Stats()
	assert.Zero(t, s.MaxSize)
	assert.Zero(t, s.Evictions)
}

func TestLRUCache_Concurrency(t *testing.T) {
	config := Config{MaxSize: 100}
	cache := NewLRUCache[int, int](config)

	var wg sync.WaitGroup
	numGoroutines := 10
	numOperations := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				key := id*numOperations + j
				cache.Put(key, key)
			}
		}(i)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOperations; j++ {
				cache.Get(id*numOperations + j)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), config.MaxSize)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, 100, config.MaxSize)
	assert.Zero(t, config.TTL)
	assert.Nil(t, config.OnEvict)
}
