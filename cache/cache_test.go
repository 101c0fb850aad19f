package cache

import (
	"testing"
	"time"

	"github.com/use-agent/harvest/models"
)

func TestCache_HitAndMiss(t *testing.T) {
	c := New(10)
	key := Key("https://a.example/", "list", Digest([]byte(`{"limit":3}`)))

	if _, ok := c.Get(key, 60_000); ok {
		t.Fatal("unexpected hit on empty cache")
	}

	c.Set(key, &models.ScrapeResponse{Success: true})
	resp, ok := c.Get(key, 60_000)
	if !ok || !resp.Success {
		t.Fatal("expected a hit after Set")
	}

	// maxAge <= 0 disables lookup entirely.
	if _, ok := c.Get(key, 0); ok {
		t.Error("maxAge 0 must bypass the cache")
	}
}

func TestCache_MaxAge(t *testing.T) {
	c := New(10)
	key := Key("https://b.example/", "scrape", "")
	c.Set(key, &models.ScrapeResponse{Success: true})

	time.Sleep(15 * time.Millisecond)
	if _, ok := c.Get(key, 10); ok {
		t.Error("entry older than maxAge must miss")
	}
}

func TestCache_EvictsAtCapacity(t *testing.T) {
	c := New(2)
	c.Set("a", &models.ScrapeResponse{})
	c.Set("b", &models.ScrapeResponse{})
	c.Set("c", &models.ScrapeResponse{})

	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.store) != 2 {
		t.Errorf("store has %d entries, want 2", len(c.store))
	}
}

func TestKey_DistinguishesParameters(t *testing.T) {
	a := Key("https://x.example/", "list", Digest([]byte(`{"limit":3}`)))
	b := Key("https://x.example/", "list", Digest([]byte(`{"limit":5}`)))
	if a == b {
		t.Error("different parameters must produce different keys")
	}
}
