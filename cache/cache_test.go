package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New(10, time.Minute)

	key := Key("https://example.com/review/1")
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(key, []byte("page body"))
	body, ok := c.Get(key)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(body) != "page body" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestExpiry(t *testing.T) {
	c := New(10, 10*time.Millisecond)

	key := Key("https://example.com/review/2")
	c.Set(key, []byte("stale"))

	time.Sleep(25 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestCapacityEviction(t *testing.T) {
	c := New(3, time.Minute)

	for i := 0; i < 4; i++ {
		c.Set(Key(fmt.Sprintf("https://example.com/%d", i)), []byte("x"))
	}

	c.mu.RLock()
	size := len(c.store)
	c.mu.RUnlock()
	if size != 3 {
		t.Errorf("expected 3 entries after eviction, got %d", size)
	}
}

func TestKeyIsStable(t *testing.T) {
	a := Key("https://example.com/a")
	if a != Key("https://example.com/a") {
		t.Error("same URL must yield the same key")
	}
	if a == Key("https://example.com/b") {
		t.Error("different URLs must yield different keys")
	}
}
