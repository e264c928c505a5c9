package cache

import (
	"testing"
	"time"
)

func TestGetSet(t *testing.T) {
	c := New[string](time.Minute)
	c.Set("a", "one")

	got, ok := c.Get("a")
	if !ok || got != "one" {
		t.Errorf("Get = (%q, %v), want (one, true)", got, ok)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}

func TestLazyExpiry(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := New[string](30 * time.Minute)
	c.SetNowFunc(func() time.Time { return now })

	c.Set("a", "one")

	now = now.Add(29 * time.Minute)
	if _, ok := c.Get("a"); !ok {
		t.Error("entry should still be fresh at 29m")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Error("entry should have expired at 31m")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0 after purge", c.Len())
	}
}
