package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New[string]()
	c.Set("key1", "value1", 1*time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "value1" {
		t.Fatalf("expected value1, got %v, exists=%v", val, ok)
	}
}

func TestExpiration(t *testing.T) {
	c := New[string]()
	now := time.Now()
	c.now = func() time.Time { return now }
	c.Set("key1", "value1", 100*time.Millisecond)
	now = now.Add(150 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to return false")
	}
	if removed := c.Purge(); removed != 1 || c.Len() != 0 {
		t.Fatalf("expected purge to drop the expired key, removed=%d len=%d", removed, c.Len())
	}
}

func TestDelete(t *testing.T) {
	c := New[int]()
	c.Set("key1", 1, 1*time.Second)
	c.Delete("key1")
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected deleted key to return false")
	}
}

func TestInvalidate(t *testing.T) {
	c := New[bool]()
	c.Set("revoked:1", true, 1*time.Second)
	c.Set("revoked:2", true, 1*time.Second)
	c.Set("session:1", true, 1*time.Second)
	c.Invalidate("revoked:")
	_, ok1 := c.Get("revoked:1")
	_, ok2 := c.Get("revoked:2")
	_, ok3 := c.Get("session:1")
	if ok1 || ok2 {
		t.Fatalf("expected revoked keys to be invalidated")
	}
	if !ok3 {
		t.Fatalf("expected session:1 to still exist")
	}
}
