package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func byteLen(b []byte) int64 { return int64(len(b)) }

func TestMemoryCache_BasicOperations(t *testing.T) {
	cache := NewMemoryCache[[]byte](1024, byteLen)

	key := "Rachel"
	value := []byte("preview-audio")

	if err := cache.Put(key, value); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	retrieved, ok := cache.Get(key)
	if !ok {
		t.Fatal("Get failed: key not found")
	}
	if string(retrieved) != string(value) {
		t.Errorf("Retrieved value mismatch: got %s, want %s", retrieved, value)
	}
	if !cache.Contains(key) {
		t.Error("Contains returned false for existing key")
	}
	if got := cache.Stats().Size; got != int64(len(value)) {
		t.Errorf("Size mismatch: got %d, want %d", got, len(value))
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	cache := NewMemoryCache[[]byte](100, byteLen)

	for i := 0; i < 5; i++ {
		if err := cache.Put(fmt.Sprintf("key-%d", i), make([]byte, 20)); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	// key-0 and key-1 become most recently used.
	cache.Get("key-0")
	cache.Get("key-1")

	if err := cache.Put("key-new", make([]byte, 30)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for _, k := range []string{"key-0", "key-1", "key-new"} {
		if !cache.Contains(k) {
			t.Errorf("%s should have survived eviction", k)
		}
	}
	for _, k := range []string{"key-2", "key-3"} {
		if cache.Contains(k) {
			t.Errorf("%s should have been evicted", k)
		}
	}
	if cache.Stats().Size > 100 {
		t.Errorf("Size %d exceeds capacity", cache.Stats().Size)
	}
	if cache.Stats().Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", cache.Stats().Evictions)
	}
}

func TestMemoryCache_ItemTooLarge(t *testing.T) {
	cache := NewMemoryCache[[]byte](10, byteLen)
	if err := cache.Put("big", make([]byte, 11)); !errors.Is(err, ErrItemTooLarge) {
		t.Errorf("Put() = %v, want ErrItemTooLarge", err)
	}
}

func TestMemoryCache_UpdateExisting(t *testing.T) {
	cache := NewMemoryCache[[]byte](100, byteLen)
	_ = cache.Put("k", make([]byte, 10))
	_ = cache.Put("k", make([]byte, 40))

	if cache.Stats().Size != 40 {
		t.Errorf("Size = %d, want 40", cache.Stats().Size)
	}
	if cache.Stats().ItemCount != 1 {
		t.Errorf("ItemCount = %d, want 1", cache.Stats().ItemCount)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache[[]byte](1024, byteLen)
	_ = cache.Put("k", []byte("v"))
	cache.Get("k")
	cache.Get("k")
	cache.Get("missing")

	stats := cache.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("Hits/Misses = %d/%d, want 2/1", stats.Hits, stats.Misses)
	}
	if stats.HitRate < 0.66 || stats.HitRate > 0.67 {
		t.Errorf("HitRate = %v", stats.HitRate)
	}
	if stats.Level != LevelMemory {
		t.Errorf("Level = %v", stats.Level)
	}
	if stats.String() != "memory: 1 items, 1 B / 1.0 KiB" {
		t.Errorf("String() = %q", stats.String())
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	cache := NewMemoryCache[[]byte](1024, byteLen)
	_ = cache.Put("a", []byte("1"))
	_ = cache.Put("b", []byte("2"))
	cache.Clear()

	if st := cache.Stats(); st.Size != 0 || st.ItemCount != 0 {
		t.Errorf("Clear() left entries behind: %+v", st)
	}
	if cache.Contains("a") {
		t.Error("Contains(a) after Clear()")
	}
}

func TestMemoryCache_Resize(t *testing.T) {
	cache := NewMemoryCache[[]byte](100, byteLen)
	for i := 0; i < 5; i++ {
		_ = cache.Put(fmt.Sprintf("k%d", i), make([]byte, 20))
	}
	cache.Resize(40)

	if cache.Stats().Size > 40 {
		t.Errorf("Size = %d after resize to 40", cache.Stats().Size)
	}
	if !cache.Contains("k4") || !cache.Contains("k3") {
		t.Error("most recent entries should survive resize")
	}
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache[[]byte](10*1024, byteLen)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("g%d-%d", g, i%10)
				_ = cache.Put(key, make([]byte, 64))
				cache.Get(key)
				_ = cache.Stats()
			}
		}(g)
	}
	wg.Wait()

	if cache.Stats().Size > 10*1024 {
		t.Errorf("Size %d exceeds capacity", cache.Stats().Size)
	}
}

func BenchmarkMemoryCache_Put(b *testing.B) {
	cache := NewMemoryCache[[]byte](1024*1024, byteLen)
	value := make([]byte, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = cache.Put(fmt.Sprintf("key-%d", i%1000), value)
	}
}
