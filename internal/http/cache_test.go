package http

import (
	"testing"
	"time"
)

func TestLRUCacheBasicOperations(t *testing.T) {
	c := newLRUCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %d, %v", v, ok)
	}

	// "a" was just used, so adding "c" must evict "b".
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("recently used entry should survive eviction")
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := newLRUCache[string](10, 10*time.Millisecond)

	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatal("fresh entry should be served")
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expired entry should not be served")
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := newLRUCache[string](10, time.Minute)

	c.Set("user", "snapshot")
	c.Delete("user")
	if _, ok := c.Get("user"); ok {
		t.Fatal("deleted entry should be gone")
	}

	// Deleting a missing key is a no-op.
	c.Delete("missing")
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := newLRUCache[int](10, 5*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(10 * time.Millisecond)
	c.Set("fresh", 3)

	if cleaned := c.CleanExpired(); cleaned != 2 {
		t.Fatalf("cleaned %d entries, want 2", cleaned)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("fresh entry should survive cleanup")
	}
}
